package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/database"
)

// InitOverdueSweepCron flips pending charges past their due date to overdue
// every hour, and back to pending if the due date was pushed forward. This
// is the only legal two-way transition in the charge lifecycle.
func InitOverdueSweepCron() {
	c := cron.New()

	_, err := c.AddFunc("@hourly", func() {
		sweepOverdueCharges()
	})

	if err != nil {
		log.Printf("Could not initialize overdue sweep cron: %v", err)
		return
	}

	c.Start()
	log.Printf("Overdue sweep cron initialized")
}

func sweepOverdueCharges() {
	today := time.Now().Format("2006-01-02")

	result := database.DB.Model(&model.Charge{}).
		Where("status = ? AND DATE(due_date) < ?", model.ChargeStatusPending, today).
		Update("status", model.ChargeStatusOverdue)
	if result.Error != nil {
		log.Printf("Error marking overdue charges: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Marked %d charges overdue", result.RowsAffected)
	}

	result = database.DB.Model(&model.Charge{}).
		Where("status = ? AND DATE(due_date) >= ?", model.ChargeStatusOverdue, today).
		Update("status", model.ChargeStatusPending)
	if result.Error != nil {
		log.Printf("Error reverting overdue charges: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("Reverted %d charges to pending", result.RowsAffected)
	}
}
