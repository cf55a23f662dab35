package ports

import "github.com/bahyway/alarminsight/internal/domain"

// Observability is the engine's logging and metrics boundary.
type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)
	SetGauge(name string, v float64)

	// RecordOrphan surfaces evidence with no segment within tolerance.
	// Orphans are an expected, handled state, not an error.
	RecordOrphan(ind domain.LeakIndicator)
}

// Field is a structured log field.
type Field struct {
	Key   string
	Value any
}

// NopObservability drops all signals; the default when none is injected.
type NopObservability struct{}

func (NopObservability) LogInfo(string, ...Field)            {}
func (NopObservability) LogError(string, error, ...Field)    {}
func (NopObservability) LogCritical(string, error, ...Field) {}
func (NopObservability) IncCounter(string, float64)          {}
func (NopObservability) ObserveLatency(string, float64)      {}
func (NopObservability) SetGauge(string, float64)            {}
func (NopObservability) RecordOrphan(domain.LeakIndicator)   {}
