package fuzzy

import "github.com/bahyway/alarminsight/internal/domain"

// OutTerm is a consequent term over the output variable defect_probability,
// realized as an output singleton for centroid defuzzification.
type OutTerm string

const (
	OutLow      OutTerm = "low"
	OutMedium   OutTerm = "medium"
	OutHigh     OutTerm = "high"
	OutVeryHigh OutTerm = "very_high"
)

// outTerms fixes the aggregation order so evaluation stays deterministic.
var outTerms = []OutTerm{OutLow, OutMedium, OutHigh, OutVeryHigh}

// Center returns the singleton position of the term on [0,1].
func (t OutTerm) Center() float64 {
	switch t {
	case OutLow:
		return 0.2
	case OutMedium:
		return 0.5
	case OutHigh:
		return 0.75
	case OutVeryHigh:
		return 0.95
	}
	return 0
}

// Condition names one conjunct of a rule antecedent.
type Condition struct {
	Variable string
	Term     string
}

// Rule maps a conjunction of fuzzified conditions onto a weighted consequent
// term. Firing strength is min over the conjunct memberships, scaled by
// Weight (standard Mamdani AND).
type Rule struct {
	Name   string
	When   []Condition
	Then   OutTerm
	Weight float64
}

// Facts carries the crisp per-segment inputs for one evaluation.
type Facts struct {
	AgeYears        float64
	IndicatorCount  int
	Material        domain.Material
	HistoricalLeaks int
}

// Boost is a declarative post-processing adjustment: when Applies holds for
// the facts, Amount is added to the defuzzified score before clamping.
// Boosts are data, evaluated in slice order, so the set is independently
// testable.
type Boost struct {
	Name    string
	Amount  float64
	Applies func(Facts) bool
}

// RuleBase is the immutable rule configuration injected into the engine.
// There is no ambient global rule state.
type RuleBase struct {
	Rules  []Rule
	Boosts []Boost
}

// DefaultRuleBase covers the age x density grid with the documented
// consequents plus the two documented probability boosts.
func DefaultRuleBase() RuleBase {
	age := func(term string) Condition { return Condition{Variable: VarPipeAge, Term: term} }
	density := func(term string) Condition { return Condition{Variable: VarIndicatorDensity, Term: term} }

	return RuleBase{
		Rules: []Rule{
			{Name: "new_few", When: []Condition{age("new"), density("few")}, Then: OutLow, Weight: 1.0},
			{Name: "new_several", When: []Condition{age("new"), density("several")}, Then: OutLow, Weight: 1.0},
			{Name: "new_many", When: []Condition{age("new"), density("many")}, Then: OutMedium, Weight: 0.9},
			{Name: "moderate_few", When: []Condition{age("moderate"), density("few")}, Then: OutLow, Weight: 1.0},
			{Name: "moderate_several", When: []Condition{age("moderate"), density("several")}, Then: OutMedium, Weight: 1.0},
			{Name: "moderate_many", When: []Condition{age("moderate"), density("many")}, Then: OutHigh, Weight: 0.85},
			{Name: "old_few", When: []Condition{age("old"), density("few")}, Then: OutMedium, Weight: 1.0},
			{Name: "old_several", When: []Condition{age("old"), density("several")}, Then: OutHigh, Weight: 0.9},
			{Name: "old_many", When: []Condition{age("old"), density("many")}, Then: OutVeryHigh, Weight: 0.85},
			{Name: "ancient_few", When: []Condition{age("ancient"), density("few")}, Then: OutHigh, Weight: 0.8},
			{Name: "ancient_several", When: []Condition{age("ancient"), density("several")}, Then: OutVeryHigh, Weight: 0.9},
			{Name: "ancient_many", When: []Condition{age("ancient"), density("many")}, Then: OutVeryHigh, Weight: 1.0},
		},
		Boosts: []Boost{
			{
				Name:   "asbestos_aged",
				Amount: 0.20,
				Applies: func(f Facts) bool {
					return f.Material == domain.MaterialAsbestos && f.AgeYears >= 25
				},
			},
			{
				Name:   "repeat_offender",
				Amount: 0.30,
				Applies: func(f Facts) bool {
					return f.HistoricalLeaks > 3
				},
			},
		},
	}
}
