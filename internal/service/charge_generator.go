package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/billing"
)

type GenerateOptions struct {
	DryRun bool
	UserID uint // 0 processes every tenant
	Now    time.Time
}

type GenerateError struct {
	SubscriptionID uint   `json:"subscription_id"`
	Message        string `json:"message"`
}

type GenerateSummary struct {
	Processed      int             `json:"processed"`
	ChargesCreated int             `json:"charges_created"`
	Skipped        int             `json:"skipped"`
	Errors         []GenerateError `json:"errors"`
}

// GenerateCharges walks every active subscription whose next billing date is
// due and emits one pending charge per subscription. The run is safe to
// repeat: a subscription with an existing pending/paid charge for the same
// due date is skipped. One subscription failing never aborts the batch; only
// the initial query failing is fatal.
func GenerateCharges(db *gorm.DB, notifier Notifier, opts GenerateOptions) (*GenerateSummary, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := billing.DateOnly(now).Format("2006-01-02")

	query := db.Preload("Client").Preload("User").
		Where("status = ?", model.SubscriptionStatusActive).
		Where("DATE(next_billing_date) <= ?", today)
	if opts.UserID != 0 {
		query = query.Where("user_id = ?", opts.UserID)
	}

	var subs []model.Subscription
	if err := query.Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("fetching due subscriptions: %w", err)
	}

	summary := &GenerateSummary{Errors: []GenerateError{}}
	for i := range subs {
		sub := &subs[i]
		summary.Processed++

		created, err := generateChargeForSubscription(db, notifier, sub, opts.DryRun, now)
		if err != nil {
			log.Printf("Charge generation failed for subscription %d: %v", sub.ID, err)
			summary.Errors = append(summary.Errors, GenerateError{
				SubscriptionID: sub.ID,
				Message:        err.Error(),
			})
			continue
		}
		if created {
			summary.ChargesCreated++
		} else {
			summary.Skipped++
		}
	}

	return summary, nil
}

func generateChargeForSubscription(db *gorm.DB, notifier Notifier, sub *model.Subscription, dryRun bool, now time.Time) (bool, error) {
	dueDate := billing.DateOnly(sub.NextBillingDate)

	// Idempotent re-run protection: an existing pending or paid charge for
	// this exact due date means this cycle was already billed.
	var existing int64
	err := db.Model(&model.Charge{}).
		Where("subscription_id = ?", sub.ID).
		Where("DATE(due_date) = ?", dueDate.Format("2006-01-02")).
		Where("status IN ?", []string{model.ChargeStatusPending, model.ChargeStatusPaid}).
		Count(&existing).Error
	if err != nil {
		return false, fmt.Errorf("checking existing charges: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	if dryRun {
		return true, nil
	}

	charge := model.Charge{
		UserID:            sub.UserID,
		ClientID:          &sub.ClientID,
		SubscriptionID:    &sub.ID,
		Amount:            billing.Round2(sub.Amount),
		DueDate:           dueDate,
		PaymentMethod:     lastPaymentMethod(db, sub),
		Status:            model.ChargeStatusPending,
		Description:       "Recurring subscription charge",
		ExternalReference: uuid.NewString(),
	}
	nextDate := billing.NextBillingDate(sub.Cycle, sub.CustomDays, sub.NextBillingDate)

	// Charge insert and billing-date advance commit or fail together so a
	// crash mid-step can never bill the same cycle twice or skip one.
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&charge).Error; err != nil {
			return err
		}
		return tx.Model(&model.Subscription{}).
			Where("id = ?", sub.ID).
			Update("next_billing_date", nextDate).Error
	})
	if err != nil {
		return false, fmt.Errorf("creating charge: %w", err)
	}
	sub.NextBillingDate = nextDate

	notifyChargeCreated(db, notifier, sub, &charge, now)

	return true, nil
}

// notifyChargeCreated is best effort: a notification failure is logged and
// never fails the generation run.
func notifyChargeCreated(db *gorm.DB, notifier Notifier, sub *model.Subscription, charge *model.Charge, now time.Time) {
	if notifier == nil {
		return
	}

	if err := notifier.ChargeCreated(&sub.Client, charge, sub.User.CompanyName); err != nil {
		log.Printf("Could not send new-charge notification for charge %d: %v", charge.ID, err)
		return
	}

	if err := db.Model(charge).Updates(map[string]interface{}{
		"last_notification_at": now,
		"notification_count":   gorm.Expr("notification_count + 1"),
	}).Error; err != nil {
		log.Printf("Could not record notification for charge %d: %v", charge.ID, err)
	}
}

// lastPaymentMethod picks the payment method of the subscription's most
// recent completed payment, then the subscription preference, then pix.
func lastPaymentMethod(db *gorm.DB, sub *model.Subscription) string {
	var payment model.Payment
	err := db.Where("subscription_id = ? AND status = ?", sub.ID, model.PaymentStatusCompleted).
		Order("id DESC").
		First(&payment).Error
	if err == nil && payment.PaymentMethod != "" {
		return payment.PaymentMethod
	}

	if sub.PaymentMethod != "" {
		return sub.PaymentMethod
	}
	return model.PaymentMethodPix
}
