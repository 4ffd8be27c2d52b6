package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Stripe   StripeConfig
	Notify   NotifyConfig
	Billing  BillingConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type NotifyConfig struct {
	ResendAPIKey    string
	EmailFrom       string
	WhatsAppAPIURL  string
	WhatsAppToken   string
	WhatsAppEnabled bool
}

// BillingConfig carries the fee-rate table and renewal window. The rates are
// deliberately configuration, not constants; see FeeRate.
type BillingConfig struct {
	FeeRatePix          float64
	FeeRateBoleto       float64
	FeeRateCreditCard   float64
	FeeRateDefault      float64
	ResellerRenewalDays int
}

// FeeRate returns the configured rate for a payment method, falling back to
// the default rate for unknown methods.
func (b BillingConfig) FeeRate(method string) float64 {
	switch method {
	case "pix":
		return b.FeeRatePix
	case "boleto":
		return b.FeeRateBoleto
	case "credit_card":
		return b.FeeRateCreditCard
	default:
		return b.FeeRateDefault
	}
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "gestorapp-dev-secret"),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Notify: NotifyConfig{
			ResendAPIKey:    getEnv("RESEND_API_KEY", ""),
			EmailFrom:       getEnv("EMAIL_FROM", "GestorApp <noreply@gestorapp.com>"),
			WhatsAppAPIURL:  getEnv("WHATSAPP_API_URL", ""),
			WhatsAppToken:   getEnv("WHATSAPP_API_TOKEN", ""),
			WhatsAppEnabled: getEnv("WHATSAPP_API_URL", "") != "",
		},
		Billing: BillingConfig{
			FeeRatePix:          getEnvFloat("FEE_RATE_PIX", 0.0099),
			FeeRateBoleto:       getEnvFloat("FEE_RATE_BOLETO", 0.0199),
			FeeRateCreditCard:   getEnvFloat("FEE_RATE_CREDIT_CARD", 0.0399),
			FeeRateDefault:      getEnvFloat("FEE_RATE_DEFAULT", 0.02),
			ResellerRenewalDays: getEnvInt("RESELLER_RENEWAL_DAYS", 30),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
