package seed

import (
	"log"

	"gorm.io/gorm"

	"gestorapp_backend/internal/model"
)

func SeedPlans(db *gorm.DB) {
	plans := []model.Plan{
		{
			Name:            "Starter",
			Description:     "For freelancers getting started",
			Price:           29.90,
			Duration:        30,
			MaxClients:      5,
			StripeProductID: "prod_test_starter",
			StripePriceID:   "price_test_starter",
		},
		{
			Name:            "Professional",
			Description:     "For growing service businesses",
			Price:           79.90,
			Duration:        30,
			MaxClients:      100,
			StripeProductID: "prod_test_pro",
			StripePriceID:   "price_test_pro",
		},
		{
			Name:            "Elite",
			Description:     "Resellers and agencies",
			Price:           199.90,
			Duration:        30,
			MaxClients:      1000,
			StripeProductID: "prod_test_elite",
			StripePriceID:   "price_test_elite",
		},
	}

	for _, plan := range plans {
		result := db.FirstOrCreate(&plan, model.Plan{Name: plan.Name})
		if result.Error != nil {
			log.Printf("Error creating plan %s: %v", plan.Name, result.Error)
		}
	}

	log.Println("Platform plans seeded successfully!")
}
