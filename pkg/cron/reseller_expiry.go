package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/email"
)

func InitResellerExpiryCron() {
	c := cron.New()

	_, err := c.AddFunc("0 9 * * *", func() {
		checkExpiringResellerAccounts()
	})

	if err != nil {
		log.Printf("Could not initialize reseller expiry cron: %v", err)
		return
	}

	c.Start()
	log.Printf("Reseller expiry cron initialized")
}

func checkExpiringResellerAccounts() {
	log.Println("Checking for expiring reseller accounts...")

	warningDays := []int{7, 3}

	for _, days := range warningDays {
		targetDate := time.Now().AddDate(0, 0, days).Format("2006-01-02")

		var accounts []model.User
		err := database.DB.
			Where("reseller_id IS NOT NULL AND status = ?", model.UserStatusActive).
			Where("DATE(reseller_expires_at) = ?", targetDate).
			Find(&accounts).Error
		if err != nil {
			log.Printf("Error fetching expiring accounts: %v", err)
			continue
		}

		log.Printf("Found %d accounts expiring in %d days", len(accounts), days)

		for i := range accounts {
			account := &accounts[i]
			if email.GlobalEmailService == nil || account.ResellerExpiresAt == nil {
				continue
			}

			err := email.GlobalEmailService.SendResellerExpiryWarning(
				account.Email,
				account.CompanyName,
				*account.ResellerExpiresAt,
				days,
			)
			if err != nil {
				log.Printf("Error sending expiry warning to %s: %v", account.Email, err)
			} else {
				log.Printf("Sent expiry warning to %s (%d days)", account.Email, days)
			}
		}
	}
}
