package model

// Billing plans are a static table consumed by the hosted checkout flow.
// Pricing is tiered by commune population; the payment processor owns the
// actual charge and webhook lifecycle.

// PlanID identifies a billing plan tier.
type PlanID string

const (
	PlanSmallCommune  PlanID = "small_commune"
	PlanMediumCommune PlanID = "medium_commune"
	PlanLargeCommune  PlanID = "large_commune"
)

// Plan describes one subscription tier.
type Plan struct {
	ID              PlanID   `json:"id"`
	Name            string   `json:"name"`
	MonthlyPriceEUR int      `json:"monthly_price_eur"`
	Description     string   `json:"description"`
	Features        []string `json:"features"`
	// PopulationCeiling is the exclusive upper population bound for the
	// tier; the last tier has no effective ceiling.
	PopulationCeiling int `json:"population_ceiling"`
}

// Plans returns the billing plan table ordered by population ceiling.
func Plans() []Plan {
	return []Plan{
		{
			ID:              PlanSmallCommune,
			Name:            "Petite commune",
			MonthlyPriceEUR: 99,
			Description:     "Pour les communes de moins de 10 000 habitants",
			Features: []string{
				"Publication d'événements illimitée",
				"Support client",
				"Jusqu'à 5 utilisateurs",
				"Sans billetterie",
			},
			PopulationCeiling: 10000,
		},
		{
			ID:              PlanMediumCommune,
			Name:            "Commune moyenne",
			MonthlyPriceEUR: 199,
			Description:     "Pour les communes de 10 000 à 100 000 habitants",
			Features: []string{
				"Publication d'événements illimitée",
				"Support client prioritaire",
				"Jusqu'à 10 utilisateurs",
				"Sans billetterie",
			},
			PopulationCeiling: 100000,
		},
		{
			ID:              PlanLargeCommune,
			Name:            "Grande commune",
			MonthlyPriceEUR: 299,
			Description:     "Pour les communes de plus de 100 000 habitants",
			Features: []string{
				"Publication d'événements illimitée",
				"Support client prioritaire",
				"Jusqu'à 15 utilisateurs",
				"Sans billetterie",
			},
			PopulationCeiling: 999999,
		},
	}
}

// PlanByID returns the plan with the given id.
func PlanByID(id PlanID) (Plan, bool) {
	for _, p := range Plans() {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// PlanForPopulation returns the cheapest plan whose ceiling covers the given
// population. Populations above every ceiling fall into the last tier.
func PlanForPopulation(population int) Plan {
	plans := Plans()
	for _, p := range plans {
		if population < p.PopulationCeiling {
			return p
		}
	}
	return plans[len(plans)-1]
}
