package observability

import (
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/ports"
)

// PromObs is the Prometheus-backed observability adapter.
type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the engine's metrics on the default registerer.
func NewPromObs() *PromObs {
	assessments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alarminsight_assessments_total",
		Help: "Total defect assessments produced.",
	})
	alarmsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alarminsight_alarms_created_total",
		Help: "Alarms opened by a first Medium-or-above assessment.",
	})
	alarmsEscalated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alarminsight_alarms_escalated_total",
		Help: "Tier upgrades applied to open alarms.",
	})
	orphans := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alarminsight_orphaned_indicators_total",
		Help: "Evidence with no segment within the association tolerance.",
	})
	openAlarms := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alarminsight_open_alarms",
		Help: "Alarms currently in a non-terminal state.",
	})
	segmentsGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "alarminsight_network_segments",
		Help: "Segments in the current network snapshot.",
	})
	batchLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "alarminsight_batch_seconds",
		Help:    "End-to-end latency of one assessment batch.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	prometheus.MustRegister(assessments, alarmsCreated, alarmsEscalated, orphans, openAlarms, segmentsGauge, batchLatency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"alarminsight_assessments_total":         assessments,
			"alarminsight_alarms_created_total":      alarmsCreated,
			"alarminsight_alarms_escalated_total":    alarmsEscalated,
			"alarminsight_orphaned_indicators_total": orphans,
		},
		gauges: map[string]prometheus.Gauge{
			"alarminsight_open_alarms":      openAlarms,
			"alarminsight_network_segments": segmentsGauge,
		},
		histos: map[string]prometheus.Observer{
			"alarminsight_batch_seconds": batchLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordOrphan(ind domain.LeakIndicator) {
	log.Printf("orphaned indicator id=%s kind=%s at=(%f,%f)", ind.ID, ind.Kind, ind.Location.X, ind.Location.Y)
}

func formatFields(fields []ports.Field) string {
	out := ""
	for _, f := range fields {
		out += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
