package middleware

import (
	"github.com/gofiber/fiber/v2"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/plan"
	"gestorapp_backend/pkg/utils/jwt"
)

// RequireActivePlatformSubscription blocks tenants whose platform
// subscription lapsed. Cancelling tenants keep access until period end.
func RequireActivePlatformSubscription() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		var user model.User
		if err := database.DB.First(&user, claims.UserID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		switch user.Status {
		case model.UserStatusActive, model.UserStatusCancelling:
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Your subscription is not active. Please update your billing details.",
		})
	}
}

// CheckClientLimit enforces the tenant plan's client cap.
func CheckClientLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		planType := tenantPlanType(claims.UserID)
		limits := plan.GetPlanLimits(planType)

		var clientCount int64
		database.DB.Model(&model.Client{}).Where("user_id = ?", claims.UserID).Count(&clientCount)

		if int(clientCount) >= limits.MaxClients {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":         "You have reached your client limit. Please upgrade your plan.",
				"current_count": clientCount,
				"max_limit":     limits.MaxClients,
			})
		}

		return c.Next()
	}
}

// CheckFeatureAccess gates a route on a plan feature.
func CheckFeatureAccess(feature plan.Feature) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		if !plan.CanUseFeature(tenantPlanType(claims.UserID), feature) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "This feature requires a higher subscription plan",
			})
		}

		return c.Next()
	}
}

func tenantPlanType(userID uint) plan.PlanType {
	var user model.User
	if err := database.DB.Preload("Plan").First(&user, userID).Error; err != nil {
		return plan.FreePlan
	}
	if user.Plan == nil {
		return plan.FreePlan
	}

	switch user.Plan.Name {
	case "Professional":
		return plan.ProPlan
	case "Elite":
		return plan.ElitePlan
	default:
		return plan.FreePlan
	}
}
