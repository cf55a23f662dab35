package fuzzy

import (
	"errors"
	"math"
	"testing"

	"github.com/bahyway/alarminsight/internal/domain"
)

func defaultEngine() *Engine {
	return NewEngine(DefaultLibrary(), DefaultRuleBase())
}

func TestScoreAncientManyLeaksIsCritical(t *testing.T) {
	e := defaultEngine()
	res, err := e.Score(Facts{
		AgeYears:        65,
		IndicatorCount:  5,
		Material:        domain.MaterialCastIron,
		HistoricalLeaks: 5,
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	// ancient_many fires alone at strength 1.0: centroid 0.95, cast iron
	// modifier 1.08, repeat_offender boost, clamped to 1.0
	if res.DPS != 1.0 {
		t.Fatalf("expected dps 1.0, got %f", res.DPS)
	}
	if res.Fallback {
		t.Fatal("expected a fired trace, not fallback")
	}
	if len(res.Trace) != 1 || res.Trace[0].Rule != "ancient_many" {
		t.Fatalf("unexpected trace: %+v", res.Trace)
	}
	if len(res.Boosts) != 1 || res.Boosts[0] != "repeat_offender" {
		t.Fatalf("unexpected boosts: %+v", res.Boosts)
	}
	if domain.TierFor(res.DPS) != domain.TierCritical {
		t.Fatalf("expected critical tier for dps %f", res.DPS)
	}
}

func TestScoreNewPVCStaysLow(t *testing.T) {
	e := defaultEngine()
	res, err := e.Score(Facts{
		AgeYears:       3,
		IndicatorCount: 1,
		Material:       domain.MaterialPVC,
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	// new_few fires at 0.5: centroid 0.2, pvc modifier 0.92
	if math.Abs(res.DPS-0.184) > 1e-12 {
		t.Fatalf("expected dps 0.184, got %f", res.DPS)
	}
	if domain.TierFor(res.DPS) != domain.TierNone {
		t.Fatalf("expected no tier for dps %f", res.DPS)
	}
}

func TestScoreAsbestosBoost(t *testing.T) {
	e := defaultEngine()
	withBoost, err := e.Score(Facts{AgeYears: 30, IndicatorCount: 2, Material: domain.MaterialAsbestos})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	without, err := e.Score(Facts{AgeYears: 30, IndicatorCount: 2, Material: domain.MaterialAsbestos, HistoricalLeaks: 0})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if withBoost.DPS != without.DPS {
		t.Fatalf("identical facts must score identically: %f vs %f", withBoost.DPS, without.DPS)
	}
	if len(withBoost.Boosts) != 1 || withBoost.Boosts[0] != "asbestos_aged" {
		t.Fatalf("expected asbestos_aged boost, got %+v", withBoost.Boosts)
	}

	young, err := e.Score(Facts{AgeYears: 10, IndicatorCount: 2, Material: domain.MaterialAsbestos})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(young.Boosts) != 0 {
		t.Fatalf("asbestos under 25 years must not boost, got %+v", young.Boosts)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	e := defaultEngine()
	facts := Facts{AgeYears: 27, IndicatorCount: 3, Material: domain.MaterialConcrete, HistoricalLeaks: 2}

	first, err := e.Score(facts)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := e.Score(facts)
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		if again.DPS != first.DPS {
			t.Fatalf("run %d: dps drifted from %v to %v", i, first.DPS, again.DPS)
		}
		if len(again.Trace) != len(first.Trace) {
			t.Fatalf("run %d: trace length drifted", i)
		}
	}
}

func TestScoreIsBounded(t *testing.T) {
	e := defaultEngine()
	materials := []domain.Material{
		domain.MaterialPVC, domain.MaterialSteel, domain.MaterialConcrete,
		domain.MaterialCastIron, domain.MaterialAsbestos, domain.MaterialUnknown,
	}
	for age := 0.0; age <= 120; age += 7.5 {
		for count := 0; count <= 12; count++ {
			for _, m := range materials {
				for _, leaks := range []int{0, 4} {
					res, err := e.Score(Facts{AgeYears: age, IndicatorCount: count, Material: m, HistoricalLeaks: leaks})
					if err != nil {
						t.Fatalf("score age=%.1f count=%d: %v", age, count, err)
					}
					if res.DPS < 0 || res.DPS > 1 {
						t.Fatalf("dps %f out of [0,1] for age=%.1f count=%d material=%s leaks=%d",
							res.DPS, age, count, m, leaks)
					}
				}
			}
		}
	}
}

func TestScoreMonotoneInAge(t *testing.T) {
	e := defaultEngine()
	prev := -1.0
	for _, age := range []float64{3, 15, 35, 65} {
		res, err := e.Score(Facts{AgeYears: age, IndicatorCount: 4, Material: domain.MaterialSteel})
		if err != nil {
			t.Fatalf("score age=%f: %v", age, err)
		}
		if res.DPS < prev {
			t.Fatalf("dps dropped from %f to %f as age rose to %f", prev, res.DPS, age)
		}
		prev = res.DPS
	}
}

func TestScoreMonotoneInDensity(t *testing.T) {
	e := defaultEngine()
	// age 35 is fully "old"; counts walk few -> several -> many
	want := map[int]float64{0: 0.5, 1: 0.5, 2: 0.75, 4: 0.95, 6: 0.95}
	prev := -1.0
	for _, count := range []int{0, 1, 2, 4, 6} {
		res, err := e.Score(Facts{AgeYears: 35, IndicatorCount: count, Material: domain.MaterialSteel})
		if err != nil {
			t.Fatalf("score count=%d: %v", count, err)
		}
		if res.DPS != want[count] {
			t.Fatalf("count %d: expected dps %v, got %v", count, want[count], res.DPS)
		}
		if res.DPS < prev {
			t.Fatalf("dps dropped from %v to %v as density rose to %d", prev, res.DPS, count)
		}
		prev = res.DPS
	}
}

func TestScoreSingleRuleStrengthDoesNotLeak(t *testing.T) {
	e := defaultEngine()
	// Both ages fire a single very_high rule, at different strengths
	// (old_many at 0.425, ancient_many at 0.5). The defuzzified score must
	// be exactly the term center either way, or the older pipe would score
	// a half-ulp below the younger one.
	at35, err := e.Score(Facts{AgeYears: 35, IndicatorCount: 4, Material: domain.MaterialSteel})
	if err != nil {
		t.Fatalf("score age=35: %v", err)
	}
	at65, err := e.Score(Facts{AgeYears: 65, IndicatorCount: 4, Material: domain.MaterialSteel})
	if err != nil {
		t.Fatalf("score age=65: %v", err)
	}
	if at35.DPS != 0.95 || at65.DPS != 0.95 {
		t.Fatalf("expected exactly 0.95 at both ages, got %v and %v", at35.DPS, at65.DPS)
	}
	if at65.DPS < at35.DPS {
		t.Fatalf("dps dropped from %v to %v as age rose", at35.DPS, at65.DPS)
	}
}

func TestScoreFallbackWhenNoRuleFires(t *testing.T) {
	base := RuleBase{
		Rules: []Rule{
			{
				Name:   "old_only",
				When:   []Condition{{Variable: VarPipeAge, Term: "old"}},
				Then:   OutHigh,
				Weight: 1.0,
			},
		},
	}
	e := NewEngine(DefaultLibrary(), base)

	res, err := e.Score(Facts{AgeYears: 3, IndicatorCount: 1, Material: domain.MaterialAsbestos, HistoricalLeaks: 9})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !res.Fallback {
		t.Fatal("expected fallback result")
	}
	// fallback skips the material modifier and the boosts
	if res.DPS != FallbackDPS {
		t.Fatalf("expected fallback dps %f, got %f", FallbackDPS, res.DPS)
	}
	if len(res.Trace) != 0 || len(res.Boosts) != 0 {
		t.Fatalf("fallback must carry no trace or boosts: %+v", res)
	}
}

func TestLibraryUnknownVariable(t *testing.T) {
	lib := DefaultLibrary()
	if _, err := lib.Fuzzify("soil_acidity", 5); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("expected ErrUnknownVariable, got %v", err)
	}
}
