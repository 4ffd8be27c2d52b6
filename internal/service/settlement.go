package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/billing"
	"gestorapp_backend/pkg/config"
)

// OnChargePaid runs the settlement fan-out for a charge that reached the
// paid status. It is invoked from the status-update endpoints and from the
// webhook reconcilers, possibly more than once for the same charge; every
// path guards on the existing Payment row so repeated invocations are no-ops.
// Ledger writes commit before any notification is attempted.
func OnChargePaid(db *gorm.DB, cfg config.BillingConfig, notifier Notifier, chargeID uint) error {
	var charge model.Charge
	if err := db.Preload("Client").Preload("Subscription").First(&charge, chargeID).Error; err != nil {
		return fmt.Errorf("loading charge %d: %w", chargeID, err)
	}

	switch charge.Origin() {
	case model.OriginReseller:
		return settleResellerCharge(db, cfg, notifier, &charge)
	case model.OriginSubscription:
		return settleSubscriptionCharge(db, cfg, notifier, &charge)
	case model.OriginStandalone:
		return settleStandaloneCharge(db, cfg, notifier, &charge)
	}
	return nil
}

func settleResellerCharge(db *gorm.DB, cfg config.BillingConfig, notifier Notifier, charge *model.Charge) error {
	var account model.User
	if err := db.First(&account, *charge.ResellerChargeAccountID).Error; err != nil {
		return fmt.Errorf("loading reseller account %d: %w", *charge.ResellerChargeAccountID, err)
	}

	now := time.Now()
	days := cfg.ResellerRenewalDays
	if days <= 0 {
		days = 30
	}

	var renewed bool
	var newExpiry time.Time
	err := db.Transaction(func(tx *gorm.DB) error {
		exists, err := paymentExists(tx, charge.ID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		// Renewal extends from whichever is later, now or the current
		// expiry: a late retrigger never shortens validity.
		base := now
		if account.ResellerExpiresAt != nil && account.ResellerExpiresAt.After(now) {
			base = *account.ResellerExpiresAt
		}
		newExpiry = base.AddDate(0, 0, days)

		if err := tx.Model(&model.User{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
			"reseller_expires_at": newExpiry,
			"status":              model.UserStatusActive,
		}).Error; err != nil {
			return err
		}

		renewalLog := model.ResellerRenewalLog{
			AccountID:    account.ID,
			RenewedBy:    charge.UserID,
			ChargeID:     &charge.ID,
			Days:         days,
			OldExpiresAt: account.ResellerExpiresAt,
			NewExpiresAt: newExpiry,
		}
		if err := tx.Create(&renewalLog).Error; err != nil {
			return err
		}

		payment := buildPayment(cfg, charge, now)
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		renewed = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("settling reseller charge %d: %w", charge.ID, err)
	}

	if renewed && notifier != nil {
		if err := notifier.ResellerRenewed(&account, days, newExpiry); err != nil {
			log.Printf("Could not send renewal notification for account %d: %v", account.ID, err)
		}
	}
	return nil
}

func settleSubscriptionCharge(db *gorm.DB, cfg config.BillingConfig, notifier Notifier, charge *model.Charge) error {
	now := time.Now()

	var settled bool
	var payment model.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		exists, err := paymentExists(tx, charge.ID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		payment = buildPayment(cfg, charge, now)
		if charge.Subscription != nil {
			payment.PlanID = charge.Subscription.PlanID
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Subscription{}).
			Where("id = ?", *charge.SubscriptionID).
			Update("last_payment_date", now).Error; err != nil {
			return err
		}

		settled = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("settling subscription charge %d: %w", charge.ID, err)
	}

	if settled && notifier != nil && charge.Client != nil {
		var nextBilling *time.Time
		if charge.Subscription != nil {
			next := charge.Subscription.NextBillingDate
			nextBilling = &next
		}
		if err := notifier.PaymentConfirmed(charge.Client, charge, &payment, nextBilling); err != nil {
			log.Printf("Could not send payment confirmation for charge %d: %v", charge.ID, err)
		}
	}
	return nil
}

func settleStandaloneCharge(db *gorm.DB, cfg config.BillingConfig, notifier Notifier, charge *model.Charge) error {
	now := time.Now()

	var settled bool
	var payment model.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		exists, err := paymentExists(tx, charge.ID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		payment = buildPayment(cfg, charge, now)
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		settled = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("settling charge %d: %w", charge.ID, err)
	}

	if settled && notifier != nil && charge.Client != nil {
		if err := notifier.PaymentConfirmed(charge.Client, charge, &payment, nil); err != nil {
			log.Printf("Could not send payment confirmation for charge %d: %v", charge.ID, err)
		}
	}
	return nil
}

// paymentExists is the at-most-one-payment-per-charge guard. It runs inside
// the settlement transaction; the unique index on payments.charge_id backs
// it up against concurrent settlements.
func paymentExists(tx *gorm.DB, chargeID uint) (bool, error) {
	var count int64
	if err := tx.Model(&model.Payment{}).Where("charge_id = ?", chargeID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking existing payment: %w", err)
	}
	return count > 0, nil
}

func buildPayment(cfg config.BillingConfig, charge *model.Charge, now time.Time) model.Payment {
	fee, net := billing.CalculateFee(cfg, charge.Amount, charge.PaymentMethod)
	return model.Payment{
		UserID:         charge.UserID,
		ClientID:       charge.ClientID,
		ChargeID:       &charge.ID,
		SubscriptionID: charge.SubscriptionID,
		Amount:         charge.Amount,
		Fee:            fee,
		NetAmount:      net,
		PaymentMethod:  charge.PaymentMethod,
		Status:         model.PaymentStatusCompleted,
		TransactionID:  uuid.NewString(),
		CompletedAt:    &now,
	}
}
