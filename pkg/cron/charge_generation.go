package cron

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"gestorapp_backend/internal/service"
	"gestorapp_backend/pkg/database"
)

var (
	generationMutex   sync.Mutex
	lastGenerationRun time.Time
)

// InitChargeGenerationCron schedules the daily recurring-charge run. The
// run itself is idempotent, the last-run guard just avoids pointless work
// when the process restarts around the schedule boundary.
func InitChargeGenerationCron(notifier service.Notifier) {
	c := cron.New()

	_, err := c.AddFunc("0 6 * * *", func() {
		generationMutex.Lock()
		defer generationMutex.Unlock()

		if time.Since(lastGenerationRun) < 23*time.Hour {
			log.Printf("Charges already generated today, skipping...")
			return
		}

		summary, err := service.GenerateCharges(database.DB, notifier, service.GenerateOptions{})
		if err != nil {
			log.Printf("Charge generation run failed: %v", err)
			return
		}

		log.Printf("Charge generation finished: processed=%d created=%d skipped=%d errors=%d",
			summary.Processed, summary.ChargesCreated, summary.Skipped, len(summary.Errors))
		for _, genErr := range summary.Errors {
			log.Printf("  subscription %d: %s", genErr.SubscriptionID, genErr.Message)
		}

		lastGenerationRun = time.Now()
	})

	if err != nil {
		log.Printf("Could not initialize charge generation cron: %v", err)
		return
	}

	c.Start()
	log.Printf("Charge generation cron initialized")
}
