package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"gestorapp_backend/internal/notification"
	"gestorapp_backend/internal/service"
	"gestorapp_backend/pkg/config"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/email"
	"gestorapp_backend/pkg/whatsapp"
)

var (
	flagDryRun bool
	flagUserID uint
)

var rootCmd = &cobra.Command{
	Use:   "billingctl",
	Short: "Billing maintenance commands for GestorApp",
}

var generateChargesCmd = &cobra.Command{
	Use:   "generate-charges",
	Short: "Generate pending charges for every due subscription",
	Long: `Walks all active subscriptions whose next billing date is due and emits
one pending charge per subscription. Safe to re-run: cycles that already
have a charge are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
		database.InitDB(cfg.Database.URL)

		var notifier service.Notifier
		if !flagDryRun && cfg.Notify.ResendAPIKey != "" {
			if err := email.InitEmailService(cfg.Notify.ResendAPIKey, cfg.Notify.EmailFrom); err != nil {
				log.Printf("Email service unavailable, notifications disabled: %v", err)
			} else {
				var whatsappClient *whatsapp.Client
				if cfg.Notify.WhatsAppEnabled {
					whatsappClient = whatsapp.NewClient(cfg.Notify.WhatsAppAPIURL, cfg.Notify.WhatsAppToken)
				}
				notifier = notification.New(email.GlobalEmailService, whatsappClient)
			}
		}

		summary, err := service.GenerateCharges(database.DB, notifier, service.GenerateOptions{
			DryRun: flagDryRun,
			UserID: flagUserID,
		})
		if err != nil {
			return err
		}

		mode := ""
		if flagDryRun {
			mode = " (dry run)"
		}
		fmt.Printf("Charge generation finished%s\n", mode)
		fmt.Printf("  processed: %d\n", summary.Processed)
		fmt.Printf("  created:   %d\n", summary.ChargesCreated)
		fmt.Printf("  skipped:   %d\n", summary.Skipped)
		fmt.Printf("  errors:    %d\n", len(summary.Errors))
		for _, genErr := range summary.Errors {
			fmt.Printf("    subscription %d: %s\n", genErr.SubscriptionID, genErr.Message)
		}

		return nil
	},
}

func init() {
	generateChargesCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report what would be created without writing anything")
	generateChargesCmd.Flags().UintVar(&flagUserID, "user", 0, "only process subscriptions of this tenant")
	rootCmd.AddCommand(generateChargesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
