// Package assess drives the per-batch defect assessment run: spatial
// association, parallel fuzzy evaluation, versioned assessment records, and
// ordered hand-off to the alarm lifecycle manager.
package assess

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bahyway/alarminsight/internal/alarm"
	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/fuzzy"
	"github.com/bahyway/alarminsight/internal/graph"
	"github.com/bahyway/alarminsight/internal/ports"
	"github.com/bahyway/alarminsight/internal/resolver"
)

// ErrNoNetwork is returned when a batch arrives before any network import.
var ErrNoNetwork = errors.New("alarminsight: no network snapshot imported")

// BatchResult summarizes one evaluation run.
type BatchResult struct {
	Assessments []domain.DefectAssessment
	Orphans     []domain.LeakIndicator
}

// Orchestrator owns the evaluation run. Segments share no mutable state
// during evaluation; workers read the same immutable snapshot, so fan-out
// across the pool is safe.
type Orchestrator struct {
	engine *fuzzy.Engine
	res    *resolver.Resolver
	holder *graph.Holder
	store  ports.AssessmentStore
	alarms *alarm.Manager
	obs    ports.Observability

	workers int
	now     func() time.Time

	mu        sync.Mutex
	seq       map[string]uint64
	lastAssoc map[string][]domain.LeakIndicator
	orphans   []domain.LeakIndicator
}

// New wires an orchestrator. workers bounds the evaluation pool; values
// below 1 collapse to serial evaluation.
func New(engine *fuzzy.Engine, res *resolver.Resolver, holder *graph.Holder,
	store ports.AssessmentStore, alarms *alarm.Manager, obs ports.Observability, workers int) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	if obs == nil {
		obs = ports.NopObservability{}
	}
	return &Orchestrator{
		engine:    engine,
		res:       res,
		holder:    holder,
		store:     store,
		alarms:    alarms,
		obs:       obs,
		workers:   workers,
		now:       time.Now,
		seq:       make(map[string]uint64),
		lastAssoc: make(map[string][]domain.LeakIndicator),
	}
}

// EvaluateBatch runs one ingestion batch end to end. Evidence records are
// validated up front; a bad record rejects the batch before anything is
// applied. Assessments are handed to the alarm manager sorted by segment id
// so each segment sees non-decreasing timestamps across batches.
func (o *Orchestrator) EvaluateBatch(ctx context.Context, indicators []domain.LeakIndicator) (*BatchResult, error) {
	for _, ind := range indicators {
		if err := ind.Validate(); err != nil {
			return nil, err
		}
	}

	snap := o.holder.Snapshot()
	if snap == nil {
		return nil, ErrNoNetwork
	}

	start := o.now()
	assoc := o.res.AssociateBatch(indicators, snap)
	for _, orphan := range assoc.Orphans {
		o.obs.RecordOrphan(orphan)
	}
	o.obs.IncCounter("alarminsight_orphaned_indicators_total", float64(len(assoc.Orphans)))

	o.mu.Lock()
	for segID, evidence := range assoc.BySegment {
		o.lastAssoc[segID] = evidence
	}
	o.orphans = append(o.orphans, assoc.Orphans...)
	o.mu.Unlock()

	segIDs := make([]string, 0, len(assoc.BySegment))
	for id := range assoc.BySegment {
		segIDs = append(segIDs, id)
	}
	sort.Strings(segIDs)

	assessments, err := o.evaluateAll(ctx, snap, segIDs, assoc.BySegment, start)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(assessments))
	for _, a := range assessments {
		if err := o.store.AppendAssessment(ctx, a); err != nil {
			return nil, err
		}
		if _, err := o.alarms.Apply(ctx, a); err != nil && !errors.Is(err, domain.ErrStaleAssessment) {
			return nil, err
		}
		scores[a.SegmentID] = 1 - a.DPS
	}
	o.holder.Swap(snap.WithConditionScores(scores))

	o.obs.IncCounter("alarminsight_assessments_total", float64(len(assessments)))
	o.obs.ObserveLatency("alarminsight_batch_seconds", o.now().Sub(start).Seconds())
	return &BatchResult{Assessments: assessments, Orphans: assoc.Orphans}, nil
}

// Assess evaluates a single segment against its currently associated
// evidence, producing and recording a fresh assessment.
func (o *Orchestrator) Assess(ctx context.Context, segmentID string) (domain.DefectAssessment, error) {
	snap := o.holder.Snapshot()
	if snap == nil {
		return domain.DefectAssessment{}, ErrNoNetwork
	}
	seg, ok := snap.Segment(segmentID)
	if !ok {
		return domain.DefectAssessment{}, fmt.Errorf("%w: %q", graph.ErrUnknownSegment, segmentID)
	}

	o.mu.Lock()
	evidence := o.lastAssoc[segmentID]
	o.mu.Unlock()

	a, err := o.evaluateSegment(seg, evidence, o.now())
	if err != nil {
		return domain.DefectAssessment{}, err
	}
	if err := o.store.AppendAssessment(ctx, a); err != nil {
		return domain.DefectAssessment{}, err
	}
	if _, err := o.alarms.Apply(ctx, a); err != nil && !errors.Is(err, domain.ErrStaleAssessment) {
		return domain.DefectAssessment{}, err
	}
	return a, nil
}

// InspectionPlan returns the latest assessment per segment sorted by DPS
// descending, the field crew's priority order.
func (o *Orchestrator) InspectionPlan(ctx context.Context) ([]domain.DefectAssessment, error) {
	latest, err := o.store.LatestAssessments(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(latest, func(i, j int) bool { return latest[i].DPS > latest[j].DPS })
	return latest, nil
}

// Orphans returns the evidence that could not be associated with any
// segment, awaiting manual triage.
func (o *Orchestrator) Orphans() []domain.LeakIndicator {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.LeakIndicator, len(o.orphans))
	copy(out, o.orphans)
	return out
}

func (o *Orchestrator) evaluateAll(ctx context.Context, snap *graph.Snapshot, segIDs []string,
	bySegment map[string][]domain.LeakIndicator, at time.Time) ([]domain.DefectAssessment, error) {

	jobs := make(chan string, len(segIDs))
	for _, id := range segIDs {
		jobs <- id
	}
	close(jobs)

	results := make(chan domain.DefectAssessment, len(segIDs))
	errCh := make(chan error, o.workers)

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for segID := range jobs {
				if ctx.Err() != nil {
					return
				}
				seg, ok := snap.Segment(segID)
				if !ok {
					continue
				}
				a, err := o.evaluateSegment(seg, bySegment[segID], at)
				if err != nil {
					errCh <- err
					return
				}
				results <- a
			}
		}()
	}
	wg.Wait()
	close(results)
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assessments := make([]domain.DefectAssessment, 0, len(segIDs))
	for a := range results {
		assessments = append(assessments, a)
	}
	sort.Slice(assessments, func(i, j int) bool { return assessments[i].SegmentID < assessments[j].SegmentID })
	return assessments, nil
}

func (o *Orchestrator) evaluateSegment(seg domain.PipeSegment, evidence []domain.LeakIndicator, at time.Time) (domain.DefectAssessment, error) {
	facts := fuzzy.Facts{
		AgeYears:        seg.AgeYears,
		IndicatorCount:  len(evidence),
		Material:        seg.Material,
		HistoricalLeaks: seg.HistoricalLeaks,
	}
	res, err := o.engine.Score(facts)
	if err != nil {
		return domain.DefectAssessment{}, err
	}
	if res.Fallback {
		o.obs.LogInfo("assessment_fallback", ports.Field{Key: "segment", Value: seg.ID})
	}

	ids := make([]string, 0, len(evidence))
	var severitySum float64
	for _, e := range evidence {
		ids = append(ids, e.ID)
		severitySum += e.Severity
	}
	var meanSeverity float64
	if len(evidence) > 0 {
		meanSeverity = severitySum / float64(len(evidence))
	}

	return domain.DefectAssessment{
		SegmentID:   seg.ID,
		Seq:         o.nextSeq(seg.ID),
		DPS:         res.DPS,
		Tier:        domain.TierFor(res.DPS),
		EvidenceIDs: ids,
		Trace:       res.Trace,
		Boosts:      res.Boosts,
		Fallback:    res.Fallback,
		Factors: domain.Factors{
			AgeYears:              seg.AgeYears,
			MaterialVulnerability: seg.Material.Vulnerability(),
			HistoricalLeaks:       seg.HistoricalLeaks,
			IndicatorCount:        len(evidence),
			MeanSeverity:          meanSeverity,
		},
		EvaluatedAt: at,
	}, nil
}

func (o *Orchestrator) nextSeq(segmentID string) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq[segmentID]++
	return o.seq[segmentID]
}
