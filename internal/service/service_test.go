package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/config"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
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
	require.NoError(t, err)

	return db
}

func testBillingConfig() config.BillingConfig {
	return config.BillingConfig{
		FeeRatePix:          0.02,
		FeeRateBoleto:       0.02,
		FeeRateCreditCard:   0.02,
		FeeRateDefault:      0.02,
		ResellerRenewalDays: 30,
	}
}

func createTenant(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:       email,
		Password:    "hashed",
		Username:    email,
		CompanyName: "Acme Services",
		Status:      model.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createClient(t *testing.T, db *gorm.DB, userID uint) *model.Client {
	t.Helper()
	client := &model.Client{
		UserID: userID,
		Name:   "Jordan Silva",
		Email:  "jordan@example.com",
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func createSubscription(t *testing.T, db *gorm.DB, userID, clientID uint, nextBilling time.Time) *model.Subscription {
	t.Helper()
	sub := &model.Subscription{
		UserID:          userID,
		ClientID:        clientID,
		Amount:          100.00,
		Cycle:           model.CycleMonthly,
		PaymentMethod:   model.PaymentMethodPix,
		Status:          model.SubscriptionStatusActive,
		StartDate:       nextBilling,
		NextBillingDate: nextBilling,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

// recordingNotifier captures notifications; failing toggles error returns so
// tests can prove notification failures never block billing.
type recordingNotifier struct {
	chargeCreated    int
	paymentConfirmed int
	resellerRenewed  int
	lastNextBilling  *time.Time
	failing          bool
}

func (n *recordingNotifier) ChargeCreated(client *model.Client, charge *model.Charge, companyName string) error {
	n.chargeCreated++
	if n.failing {
		return errTestNotifier
	}
	return nil
}

func (n *recordingNotifier) PaymentConfirmed(client *model.Client, charge *model.Charge, payment *model.Payment, nextBillingDate *time.Time) error {
	n.paymentConfirmed++
	n.lastNextBilling = nextBillingDate
	if n.failing {
		return errTestNotifier
	}
	return nil
}

func (n *recordingNotifier) ResellerRenewed(account *model.User, days int, expiresAt time.Time) error {
	n.resellerRenewed++
	if n.failing {
		return errTestNotifier
	}
	return nil
}

var errTestNotifier = &notifierError{}

type notifierError struct{}

func (*notifierError) Error() string { return "notifier unavailable" }
