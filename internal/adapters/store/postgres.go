// Package store persists assessment history and alarm aggregates in
// Postgres. Assessment rows and alarm events are append-only; alarms are
// upserted but never deleted.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/ports"
)

// PostgresStore implements AssessmentStore and AlarmStore on lib/pq.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AppendAssessment(ctx context.Context, a domain.DefectAssessment) error {
	trace, err := json.Marshal(a.Trace)
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}
	factors, err := json.Marshal(a.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO defect_assessments (segment_id, seq, dps, tier, evidence_ids, trace, boosts, fallback, factors, evaluated_at)`+
			` VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`+
			` ON CONFLICT (segment_id, seq) DO NOTHING`,
		a.SegmentID,
		a.Seq,
		a.DPS,
		a.Tier.String(),
		strings.Join(a.EvidenceIDs, ","),
		trace,
		strings.Join(a.Boosts, ","),
		a.Fallback,
		factors,
		a.EvaluatedAt,
	)
	return err
}

func (s *PostgresStore) LatestAssessment(ctx context.Context, segmentID string) (*domain.DefectAssessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT segment_id, seq, dps, tier, evidence_ids, trace, boosts, fallback, factors, evaluated_at`+
			` FROM defect_assessments WHERE segment_id = $1 ORDER BY seq DESC LIMIT 1`, segmentID)
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) LatestAssessments(ctx context.Context) ([]domain.DefectAssessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT ON (segment_id) segment_id, seq, dps, tier, evidence_ids, trace, boosts, fallback, factors, evaluated_at`+
			` FROM defect_assessments ORDER BY segment_id, seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DefectAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(r rowScanner) (*domain.DefectAssessment, error) {
	var (
		a             domain.DefectAssessment
		tier          string
		evidence      string
		trace, factor []byte
		boosts        string
	)
	if err := r.Scan(&a.SegmentID, &a.Seq, &a.DPS, &tier, &evidence, &trace, &boosts, &a.Fallback, &factor, &a.EvaluatedAt); err != nil {
		return nil, err
	}
	a.Tier = parseTier(tier)
	if evidence != "" {
		a.EvidenceIDs = strings.Split(evidence, ",")
	}
	if boosts != "" {
		a.Boosts = strings.Split(boosts, ",")
	}
	if len(trace) > 0 {
		if err := json.Unmarshal(trace, &a.Trace); err != nil {
			return nil, fmt.Errorf("unmarshal trace: %w", err)
		}
	}
	if len(factor) > 0 {
		if err := json.Unmarshal(factor, &a.Factors); err != nil {
			return nil, fmt.Errorf("unmarshal factors: %w", err)
		}
	}
	return &a, nil
}

func parseTier(s string) domain.Tier {
	switch s {
	case "medium":
		return domain.TierMedium
	case "high":
		return domain.TierHigh
	case "critical":
		return domain.TierCritical
	default:
		return domain.TierNone
	}
}

func (s *PostgresStore) SaveAlarm(ctx context.Context, a *domain.Alarm, newEvents []domain.AlarmEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO alarms (id, segment_id, dps, tier, status, created_at, updated_at)`+
			` VALUES ($1,$2,$3,$4,$5,$6,$7)`+
			` ON CONFLICT (id) DO UPDATE SET dps = $3, tier = $4, status = $5, updated_at = $7`,
		a.ID, a.SegmentID, a.DPS, a.Tier.String(), string(a.Status), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		tx.Rollback()
		return err
	}

	if len(newEvents) > 0 {
		var b strings.Builder
		b.WriteString("INSERT INTO alarm_events (id, alarm_id, segment_id, kind, dps, tier, actor, note, at) VALUES ")
		args := make([]any, 0, len(newEvents)*9)
		for i, e := range newEvents {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5, len(args)+6, len(args)+7, len(args)+8, len(args)+9))
			args = append(args, e.ID, e.AlarmID, e.SegmentID, string(e.Kind), e.DPS, e.Tier.String(), e.Actor, e.Note, e.At)
		}
		// idempotent on event id so a replayed transition never duplicates
		b.WriteString(" ON CONFLICT (id) DO NOTHING")
		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) AlarmByID(ctx context.Context, id string) (*domain.Alarm, error) {
	return s.loadAlarm(ctx, `SELECT id FROM alarms WHERE id = $1`, id)
}

func (s *PostgresStore) OpenAlarmBySegment(ctx context.Context, segmentID string) (*domain.Alarm, error) {
	return s.loadAlarm(ctx,
		`SELECT id FROM alarms WHERE segment_id = $1 AND status NOT IN ('resolved','closed') LIMIT 1`, segmentID)
}

// loadAlarm rebuilds the aggregate by replaying its event log; the alarms
// table row is a query convenience, the log is the source of truth.
func (s *PostgresStore) loadAlarm(ctx context.Context, idQuery string, arg any) (*domain.Alarm, error) {
	var alarmID string
	err := s.db.QueryRowContext(ctx, idQuery, arg).Scan(&alarmID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	events, err := s.eventsFor(ctx, alarmID)
	if err != nil {
		return nil, err
	}
	return domain.Replay(events)
}

func (s *PostgresStore) eventsFor(ctx context.Context, alarmID string) ([]domain.AlarmEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, alarm_id, segment_id, kind, dps, tier, actor, note, at FROM alarm_events`+
			` WHERE alarm_id = $1 ORDER BY at, id`, alarmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AlarmEvent
	for rows.Next() {
		var (
			e          domain.AlarmEvent
			kind, tier string
		)
		if err := rows.Scan(&e.ID, &e.AlarmID, &e.SegmentID, &kind, &e.DPS, &tier, &e.Actor, &e.Note, &e.At); err != nil {
			return nil, err
		}
		e.Kind = domain.EventKind(kind)
		e.Tier = parseTier(tier)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) ListAlarms(ctx context.Context, f ports.AlarmFilter) ([]domain.Alarm, error) {
	query := `SELECT id FROM alarms`
	var (
		conds []string
		args  []any
	)
	if f.SegmentID != "" {
		args = append(args, f.SegmentID)
		conds = append(conds, fmt.Sprintf("segment_id = $%d", len(args)))
	}
	if f.OpenOnly {
		conds = append(conds, "status NOT IN ('resolved','closed')")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY segment_id, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []domain.Alarm
	for _, id := range ids {
		events, err := s.eventsFor(ctx, id)
		if err != nil {
			return nil, err
		}
		a, err := domain.Replay(events)
		if err != nil {
			return nil, err
		}
		// status and tier filters fold over the replayed aggregate
		if f.Matches(a) {
			out = append(out, *a)
		}
	}
	return out, nil
}

// Schema is the DDL the store expects; applied by the operator or a
// migration tool, not by the engine.
const Schema = `
CREATE TABLE IF NOT EXISTS defect_assessments (
	segment_id   TEXT             NOT NULL,
	seq          BIGINT           NOT NULL,
	dps          DOUBLE PRECISION NOT NULL,
	tier         TEXT             NOT NULL,
	evidence_ids TEXT             NOT NULL DEFAULT '',
	trace        JSONB            NOT NULL DEFAULT '[]',
	boosts       TEXT             NOT NULL DEFAULT '',
	fallback     BOOLEAN          NOT NULL DEFAULT FALSE,
	factors      JSONB            NOT NULL DEFAULT '{}',
	evaluated_at TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (segment_id, seq)
);

CREATE TABLE IF NOT EXISTS alarms (
	id         TEXT             PRIMARY KEY,
	segment_id TEXT             NOT NULL,
	dps        DOUBLE PRECISION NOT NULL,
	tier       TEXT             NOT NULL,
	status     TEXT             NOT NULL,
	created_at TIMESTAMPTZ      NOT NULL,
	updated_at TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS alarms_by_segment ON alarms (segment_id, status);

CREATE TABLE IF NOT EXISTS alarm_events (
	id         TEXT             PRIMARY KEY,
	alarm_id   TEXT             NOT NULL,
	segment_id TEXT             NOT NULL,
	kind       TEXT             NOT NULL,
	dps        DOUBLE PRECISION NOT NULL,
	tier       TEXT             NOT NULL,
	actor      TEXT             NOT NULL DEFAULT '',
	note       TEXT             NOT NULL DEFAULT '',
	at         TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS alarm_events_by_alarm ON alarm_events (alarm_id, at);
`

var (
	_ ports.AssessmentStore = (*PostgresStore)(nil)
	_ ports.AlarmStore      = (*PostgresStore)(nil)
)
