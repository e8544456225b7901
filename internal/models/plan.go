package models

// Subscription plan names.
const (
	PlanFree         = "free"
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

type Plan struct {
	Name               string `json:"name"`
	MonthlyCharacters  int64  `json:"monthly_characters"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
	PremiumVoices      bool   `json:"premium_voices"`
	PriceUSD           int    `json:"price_usd"`
}

// Plans is the static plan table. Plan limits feed key-creation defaults;
// monthly character ceilings are enforced per user at request time.
var Plans = map[string]Plan{
	PlanFree:         {Name: "Free", MonthlyCharacters: 10_000, RateLimitPerMinute: 20, PremiumVoices: false, PriceUSD: 0},
	PlanStarter:      {Name: "Starter", MonthlyCharacters: 100_000, RateLimitPerMinute: 60, PremiumVoices: true, PriceUSD: 15},
	PlanProfessional: {Name: "Professional", MonthlyCharacters: 500_000, RateLimitPerMinute: 120, PremiumVoices: true, PriceUSD: 49},
	PlanEnterprise:   {Name: "Enterprise", MonthlyCharacters: 2_000_000, RateLimitPerMinute: 300, PremiumVoices: true, PriceUSD: 149},
}

// PlanByName returns the plan config, falling back to free for unknown names.
func PlanByName(name string) Plan {
	if p, ok := Plans[name]; ok {
		return p
	}
	return Plans[PlanFree]
}

// ValidPlan reports whether name is a known subscription plan.
func ValidPlan(name string) bool {
	_, ok := Plans[name]
	return ok
}
