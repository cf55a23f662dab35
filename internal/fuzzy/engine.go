package fuzzy

import "github.com/bahyway/alarminsight/internal/domain"

// FallbackDPS is returned when no rule fires. It is a deliberate
// low-confidence default, not an error; the empty trace marks it.
const FallbackDPS = 0.10

// Result is the outcome of one engine evaluation.
type Result struct {
	DPS      float64
	Trace    []domain.FiredRule
	Boosts   []string
	Fallback bool
}

// Engine evaluates a fixed rule base over fuzzified inputs and defuzzifies
// to a defect probability score. Given identical facts the output is
// bit-for-bit reproducible.
type Engine struct {
	lib  *Library
	base RuleBase
}

// NewEngine binds a variable library and a rule base.
func NewEngine(lib *Library, base RuleBase) *Engine {
	return &Engine{lib: lib, base: base}
}

// Score runs the full Mamdani pass: fuzzify, fire rules (min AND, weighted),
// max-aggregate per consequent term, centroid-defuzzify, scale by material
// vulnerability, then apply additive boosts and clamp to [0,1].
func (e *Engine) Score(f Facts) (Result, error) {
	memberships := map[string]map[string]float64{}
	ageDeg, err := e.lib.Fuzzify(VarPipeAge, f.AgeYears)
	if err != nil {
		return Result{}, err
	}
	memberships[VarPipeAge] = ageDeg
	densityDeg, err := e.lib.Fuzzify(VarIndicatorDensity, float64(f.IndicatorCount))
	if err != nil {
		return Result{}, err
	}
	memberships[VarIndicatorDensity] = densityDeg

	aggregated := map[OutTerm]float64{}
	var trace []domain.FiredRule
	for _, r := range e.base.Rules {
		strength := r.firingStrength(memberships)
		if strength <= 0 {
			continue
		}
		trace = append(trace, domain.FiredRule{
			Rule:     r.Name,
			Strength: strength,
			Term:     string(r.Then),
		})
		if strength > aggregated[r.Then] {
			aggregated[r.Then] = strength
		}
	}

	if len(trace) == 0 {
		return Result{DPS: FallbackDPS, Fallback: true}, nil
	}

	dps := centroid(aggregated)

	// Material vulnerability acts as a crisp modifier, neutral at steel.
	dps *= 0.8 + 0.4*f.Material.Vulnerability()

	var applied []string
	for _, b := range e.base.Boosts {
		if b.Applies(f) {
			dps += b.Amount
			applied = append(applied, b.Name)
		}
	}

	return Result{DPS: clamp01(dps), Trace: trace, Boosts: applied}, nil
}

// firingStrength is min over the conjunct memberships, scaled by the rule
// weight. A condition on an unknown variable or term contributes zero.
func (r Rule) firingStrength(memberships map[string]map[string]float64) float64 {
	strength := 1.0
	for _, c := range r.When {
		deg := memberships[c.Variable][c.Term]
		if deg < strength {
			strength = deg
		}
	}
	return strength * r.Weight
}

// centroid defuzzifies the aggregated output singletons. With a single
// active term the strength cancels out of the weighted mean, so the term
// center is returned directly; computing s*c/s would round a half-ulp away
// from c and let firing strength leak into the score.
func centroid(aggregated map[OutTerm]float64) float64 {
	var num, den float64
	var active int
	var last OutTerm
	for _, t := range outTerms {
		s := aggregated[t]
		if s <= 0 {
			continue
		}
		active++
		last = t
		num += s * t.Center()
		den += s
	}
	switch active {
	case 0:
		return 0
	case 1:
		return last.Center()
	}
	return num / den
}
