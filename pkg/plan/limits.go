package plan

type PlanType string
type Feature string

const (
	FreePlan  PlanType = "FREE"
	ProPlan   PlanType = "PRO"
	ElitePlan PlanType = "ELITE"
)

const (
	WhatsAppNotifications Feature = "whatsapp_notifications"
	ResellerAccounts      Feature = "reseller_accounts"
	RecurringBilling      Feature = "recurring_billing"
	EmailSupport          Feature = "email_support"
	PrioritySupport       Feature = "priority_support"
)

type PlanLimits struct {
	MaxClients      int
	AllowedFeatures map[Feature]bool
}

var PlanFeatures = map[PlanType]PlanLimits{
	FreePlan: {
		MaxClients: 5,
		AllowedFeatures: map[Feature]bool{
			WhatsAppNotifications: false,
			ResellerAccounts:      false,
			RecurringBilling:      true,
			EmailSupport:          false,
			PrioritySupport:       false,
		},
	},
	ProPlan: {
		MaxClients: 100,
		AllowedFeatures: map[Feature]bool{
			WhatsAppNotifications: true,
			ResellerAccounts:      false,
			RecurringBilling:      true,
			EmailSupport:          true,
			PrioritySupport:       false,
		},
	},
	ElitePlan: {
		MaxClients: 1000,
		AllowedFeatures: map[Feature]bool{
			WhatsAppNotifications: true,
			ResellerAccounts:      true,
			RecurringBilling:      true,
			EmailSupport:          true,
			PrioritySupport:       true,
		},
	},
}

func GetPlanLimits(planType PlanType) PlanLimits {
	if limits, ok := PlanFeatures[planType]; ok {
		return limits
	}
	return PlanFeatures[FreePlan]
}

func CanUseFeature(planType PlanType, feature Feature) bool {
	return GetPlanLimits(planType).AllowedFeatures[feature]
}
