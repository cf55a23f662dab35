// Package alarminsight exposes the defect probability and alarm
// prioritization engine for embedding inside any Go service. The facade
// wires the default adapters (Postgres or in-memory store, Prometheus
// observability, WebSocket event hub) and lets callers override any
// dependency through options.
package alarminsight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bahyway/alarminsight/internal/adapters/events"
	"github.com/bahyway/alarminsight/internal/adapters/geojson"
	"github.com/bahyway/alarminsight/internal/adapters/memstore"
	"github.com/bahyway/alarminsight/internal/adapters/observability"
	"github.com/bahyway/alarminsight/internal/adapters/store"
	"github.com/bahyway/alarminsight/internal/alarm"
	"github.com/bahyway/alarminsight/internal/app/assess"
	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/fuzzy"
	"github.com/bahyway/alarminsight/internal/graph"
	"github.com/bahyway/alarminsight/internal/ports"
	"github.com/bahyway/alarminsight/internal/resolver"
)

// EngineOption customizes the dependencies used by Engine.
type EngineOption func(*engineOverrides)

type engineOverrides struct {
	assessments   ports.AssessmentStore
	alarms        ports.AlarmStore
	publisher     ports.EventPublisher
	observability ports.Observability
	evidence      ports.EvidenceSource
	rules         *fuzzy.RuleBase
}

// WithAssessmentStore injects a custom assessment store.
func WithAssessmentStore(s ports.AssessmentStore) EngineOption {
	return func(o *engineOverrides) {
		o.assessments = s
	}
}

// WithAlarmStore injects a custom alarm store.
func WithAlarmStore(s ports.AlarmStore) EngineOption {
	return func(o *engineOverrides) {
		o.alarms = s
	}
}

// WithPublisher plugs in a custom alarm event collaborator (message broker,
// notification service) in place of the WebSocket hub.
func WithPublisher(p ports.EventPublisher) EngineOption {
	return func(o *engineOverrides) {
		o.publisher = p
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs ports.Observability) EngineOption {
	return func(o *engineOverrides) {
		o.observability = obs
	}
}

// WithEvidenceSource injects the evidence feed polled by Run.
func WithEvidenceSource(src ports.EvidenceSource) EngineOption {
	return func(o *engineOverrides) {
		o.evidence = src
	}
}

// WithRuleBase replaces the default rule grid, for utilities that calibrate
// their own.
func WithRuleBase(rb fuzzy.RuleBase) EngineOption {
	return func(o *engineOverrides) {
		o.rules = &rb
	}
}

// Engine is the embeddable facade over the assessment orchestrator, the
// network graph, and the alarm lifecycle manager.
type Engine struct {
	cfg      *Config
	obs      ports.Observability
	holder   *graph.Holder
	orch     *assess.Orchestrator
	alarms   *alarm.Manager
	hub      *events.Hub
	evidence ports.EvidenceSource
	db       *sql.DB
	srv      *http.Server
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

// NewEngine bootstraps the default adapters. With an empty
// postgres.conn_string the engine runs on the in-memory store, which suits
// embedding and tests; otherwise it opens Postgres. Callers can use
// EngineOption values to override any dependency.
func NewEngine(cfg *Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var overrides engineOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	var (
		assessments = overrides.assessments
		alarmStore  = overrides.alarms
		db          *sql.DB
	)
	if assessments == nil || alarmStore == nil {
		if cfg.Postgres.ConnString != "" {
			var err error
			db, err = sql.Open("postgres", cfg.Postgres.ConnString)
			if err != nil {
				return nil, err
			}
			pg := store.NewPostgresStore(db)
			if assessments == nil {
				assessments = pg
			}
			if alarmStore == nil {
				alarmStore = pg
			}
		} else {
			mem := memstore.New()
			if assessments == nil {
				assessments = mem
			}
			if alarmStore == nil {
				alarmStore = mem
			}
		}
	}

	var hub *events.Hub
	pub := overrides.publisher
	if pub == nil {
		hub = events.NewHub(obs)
		pub = hub
	}

	evidence := overrides.evidence
	if evidence == nil && cfg.Evidence.Dir != "" {
		evidence = geojson.NewDirSource(cfg.Evidence.Dir)
	}

	rules := fuzzy.DefaultRuleBase()
	if overrides.rules != nil {
		rules = *overrides.rules
	}
	engine := fuzzy.NewEngine(fuzzy.DefaultLibrary(), rules)

	holder := graph.NewHolder(nil)
	res := resolver.New(cfg.Resolver.MaxDistance, cfg.Resolver.Epsilon)
	alarms := alarm.NewManager(alarmStore, pub, obs)
	orch := assess.New(engine, res, holder, assessments, alarms, obs, cfg.Assess.Workers)

	return &Engine{
		cfg:      cfg,
		obs:      obs,
		holder:   holder,
		orch:     orch,
		alarms:   alarms,
		hub:      hub,
		evidence: evidence,
		db:       db,
	}, nil
}

// ImportNetwork builds and atomically installs a new graph snapshot. A
// validation failure leaves the previous snapshot in place.
func (e *Engine) ImportNetwork(junctions []domain.Junction, segments []domain.PipeSegment) error {
	snap, err := graph.Build(junctions, segments)
	if err != nil {
		return err
	}
	e.holder.Swap(snap)
	e.obs.SetGauge("alarminsight_network_segments", float64(snap.NumSegments()))
	e.obs.LogInfo("network_imported",
		ports.Field{Key: "junctions", Value: snap.NumJunctions()},
		ports.Field{Key: "segments", Value: snap.NumSegments()})
	return nil
}

// DecodeNetwork reads a GeoJSON feature collection.
func DecodeNetwork(r io.Reader) ([]domain.Junction, []domain.PipeSegment, error) {
	return geojson.DecodeNetwork(r)
}

// DecodeIndicators reads a leak indicator batch.
func DecodeIndicators(r io.Reader) ([]domain.LeakIndicator, error) {
	return geojson.DecodeIndicators(r)
}

// ImportNetworkFile reads a GeoJSON feature collection from disk.
func (e *Engine) ImportNetworkFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	junctions, segments, err := geojson.DecodeNetwork(f)
	if err != nil {
		return err
	}
	return e.ImportNetwork(junctions, segments)
}

// IngestBatch runs one evidence batch through association, scoring, and the
// alarm manager.
func (e *Engine) IngestBatch(ctx context.Context, indicators []domain.LeakIndicator) (*assess.BatchResult, error) {
	return e.orch.EvaluateBatch(ctx, indicators)
}

// Assess re-evaluates a single segment against its current evidence.
func (e *Engine) Assess(ctx context.Context, segmentID string) (domain.DefectAssessment, error) {
	return e.orch.Assess(ctx, segmentID)
}

// InspectionPlan returns the latest assessment per segment, highest DPS
// first.
func (e *Engine) InspectionPlan(ctx context.Context) ([]domain.DefectAssessment, error) {
	return e.orch.InspectionPlan(ctx)
}

// Orphans returns evidence that matched no segment.
func (e *Engine) Orphans() []domain.LeakIndicator {
	return e.orch.Orphans()
}

// ListAlarms returns alarms matching the filter.
func (e *Engine) ListAlarms(ctx context.Context, f ports.AlarmFilter) ([]domain.Alarm, error) {
	return e.alarms.List(ctx, f)
}

// Acknowledge moves an open alarm to acknowledged.
func (e *Engine) Acknowledge(ctx context.Context, alarmID, actor string) (*domain.Alarm, error) {
	return e.alarms.Acknowledge(ctx, alarmID, actor)
}

// Dispatch moves an acknowledged alarm to dispatched.
func (e *Engine) Dispatch(ctx context.Context, alarmID string) (*domain.Alarm, error) {
	return e.alarms.Dispatch(ctx, alarmID)
}

// Resolve closes out the field work with a mandatory note.
func (e *Engine) Resolve(ctx context.Context, alarmID, note string) (*domain.Alarm, error) {
	return e.alarms.Resolve(ctx, alarmID, note)
}

// CloseAlarm finalizes a resolved alarm.
func (e *Engine) CloseAlarm(ctx context.Context, alarmID string) (*domain.Alarm, error) {
	return e.alarms.Close(ctx, alarmID)
}

// DownstreamImpact returns the junctions reachable from a segment's
// downstream endpoint within the configured hop bound.
func (e *Engine) DownstreamImpact(segmentID string) ([]domain.Junction, error) {
	snap := e.holder.Snapshot()
	if snap == nil {
		return nil, assess.ErrNoNetwork
	}
	return snap.DownstreamImpact(segmentID, e.cfg.Graph.MaxHops)
}

// VulnerableSegments returns segments at or above both age and leak-history
// thresholds.
func (e *Engine) VulnerableSegments(minAge float64, minLeaks int) ([]domain.PipeSegment, error) {
	snap := e.holder.Snapshot()
	if snap == nil {
		return nil, assess.ErrNoNetwork
	}
	return snap.VulnerableSegments(minAge, minLeaks), nil
}

// CriticalPath returns the shortest junction path from a segment's
// downstream endpoint to a target junction.
func (e *Engine) CriticalPath(fromSegment, toJunction string) ([]string, error) {
	snap := e.holder.Snapshot()
	if snap == nil {
		return nil, assess.ErrNoNetwork
	}
	return snap.CriticalPath(fromSegment, toJunction, e.cfg.Graph.MaxHops)
}

// Network returns the current graph snapshot, or nil before the first
// import.
func (e *Engine) Network() *graph.Snapshot {
	return e.holder.Snapshot()
}

// Start launches the HTTP surface (metrics, health, alarm event WebSocket)
// and, when an evidence source is configured, the periodic assessment loop.
// It returns immediately; call Run to block on a context instead.
func (e *Engine) Start() error {
	if e == nil {
		return fmt.Errorf("engine is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.doneCh = make(chan struct{})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if e.hub != nil {
		go e.hub.Run(ctx)
		mux.HandleFunc("/api/v1/events", e.hub.HandleWS)
	}

	e.srv = &http.Server{
		Addr:    e.cfg.Server.Addr,
		Handler: mux,
	}
	go func() {
		if err := e.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.obs.LogError("http_server_exited", err)
		}
	}()

	go func() {
		defer close(e.doneCh)
		if e.evidence == nil {
			return
		}
		e.fetchLoop(ctx)
	}()
	return nil
}

// Run starts the engine and blocks until the context is cancelled, then
// shuts down gracefully.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// Shutdown stops the HTTP server, the assessment loop, and the database
// connection.
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error

	if e.cancel != nil {
		e.cancel()
	}
	if e.srv != nil {
		if err := e.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	if e.doneCh != nil {
		select {
		case <-e.doneCh:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fetchLoop polls the evidence source on the configured interval and feeds
// each non-empty batch through the orchestrator.
func (e *Engine) fetchLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Assess.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch, err := e.evidence.Fetch(ctx)
			if err != nil {
				e.obs.LogError("evidence_fetch_failed", err)
				continue
			}
			if len(batch) == 0 {
				continue
			}
			if _, err := e.orch.EvaluateBatch(ctx, batch); err != nil {
				e.obs.LogError("batch_evaluation_failed", err,
					ports.Field{Key: "indicators", Value: len(batch)})
				continue
			}
			if c, ok := e.evidence.(ports.EvidenceCommitter); ok {
				if err := c.Commit(ctx); err != nil {
					e.obs.LogError("evidence_commit_failed", err)
				}
			}
		}
	}
}
