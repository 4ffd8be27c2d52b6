package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"gestorapp_backend/internal/controller"
	"gestorapp_backend/internal/middleware"
	"gestorapp_backend/internal/model"
	"gestorapp_backend/internal/notification"
	"gestorapp_backend/pkg/config"
	"gestorapp_backend/pkg/cron"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/email"
	"gestorapp_backend/pkg/mercadopago"
	"gestorapp_backend/pkg/plan"
	"gestorapp_backend/pkg/seed"
	"gestorapp_backend/pkg/whatsapp"
)

func setupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)

	// Webhooks (unauthenticated by design; payloads are verified or
	// re-fetched from the provider)
	api.Post("/webhooks/stripe", controller.HandleStripeWebhook)
	api.Post("/webhooks/mercadopago", controller.HandleMercadoPagoWebhook)

	// Plans are public
	api.Get("/plans", controller.ListPlans)

	// Protected routes
	protected := api.Group("/", middleware.AuthMiddleware())
	protected.Get("/me", controller.GetMe)

	active := protected.Group("/", middleware.RequireActivePlatformSubscription())

	clients := active.Group("/clients")
	clients.Get("/", controller.ListMyClients)
	clients.Post("/", middleware.CheckClientLimit(), controller.CreateClient)
	clients.Put("/:id", middleware.CheckClientOwnership(), controller.UpdateClient)
	clients.Delete("/:id", middleware.CheckClientOwnership(), controller.DeleteClient)

	subscriptions := active.Group("/subscriptions")
	subscriptions.Get("/", controller.ListMySubscriptions)
	subscriptions.Post("/", controller.CreateSubscription)
	subscriptions.Patch("/:id/suspend", middleware.CheckSubscriptionOwnership(), controller.SuspendSubscription)
	subscriptions.Patch("/:id/reactivate", middleware.CheckSubscriptionOwnership(), controller.ReactivateSubscription)
	subscriptions.Patch("/:id/cancel", middleware.CheckSubscriptionOwnership(), controller.CancelClientSubscription)

	charges := active.Group("/charges")
	charges.Get("/", controller.ListMyCharges)
	charges.Post("/", controller.CreateCharge)
	charges.Patch("/:id/status", middleware.CheckChargeOwnership(), controller.UpdateChargeStatus)
	charges.Patch("/:id/mark-paid", middleware.CheckChargeOwnership(), controller.MarkChargePaid)
	charges.Patch("/:id/cancel", middleware.CheckChargeOwnership(), controller.CancelCharge)

	payments := active.Group("/payments")
	payments.Get("/", controller.ListMyPayments)
	payments.Post("/", controller.RecordManualPayment)

	resellers := active.Group("/resellers", middleware.CheckFeatureAccess(plan.ResellerAccounts))
	resellers.Get("/accounts", controller.ListMySubAccounts)
	resellers.Post("/accounts", controller.CreateSubAccount)
	resellers.Get("/renewals", controller.ListRenewals)

	settings := active.Group("/settings")
	settings.Post("/gateway", controller.UpsertGatewayCredential)
}

func main() {
	cfg := config.Load()

	if cfg.Notify.ResendAPIKey != "" {
		if err := email.InitEmailService(cfg.Notify.ResendAPIKey, cfg.Notify.EmailFrom); err != nil {
			log.Fatal("Could not initialize email service:", err)
		}
	} else {
		log.Println("RESEND_API_KEY not set, email notifications disabled")
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.Plan{},
		&model.Client{},
		&model.Subscription{},
		&model.Charge{},
		&model.Payment{},
		&model.PlatformInvoice{},
		&model.ResellerRenewalLog{},
		&model.GatewayCredential{},
		&model.GatewayLog{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	seed.SeedPlans(database.DB)

	var whatsappClient *whatsapp.Client
	if cfg.Notify.WhatsAppEnabled {
		whatsappClient = whatsapp.NewClient(cfg.Notify.WhatsAppAPIURL, cfg.Notify.WhatsAppToken)
	}
	notifier := notification.New(email.GlobalEmailService, whatsappClient)

	controller.InitChargeController(cfg, notifier)
	controller.InitSubscriptionController(cfg, notifier)
	controller.InitStripeWebhookController(cfg)
	controller.InitMercadoPagoWebhookController(cfg, notifier, mercadopago.NewClient())

	cron.InitChargeGenerationCron(notifier)
	cron.InitOverdueSweepCron()
	cron.InitResellerExpiryCron()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
