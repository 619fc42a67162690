package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/jobscheduler"
	qb "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/querybuilder"
)

var errDispatchIDRequired = errors.New("dispatch id is required")

// Each status owns an <status>_at, <status>_trace_id and <status>_span_id
// column. An event only overwrites the columns of its own status.
var dispatchPhases = []jobscheduler.DispatchStatus{
	jobscheduler.StatusSent,
	jobscheduler.StatusCompleted,
	jobscheduler.StatusFailed,
}

var dispatchUpsertSuffix = buildDispatchUpsertSuffix()

// JobDispatchRepository keeps one row per dispatch id, updated as the job
// moves from sent to completed or failed.
type JobDispatchRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewJobDispatchRepository(db *sqlx.DB) *JobDispatchRepository {
	return &JobDispatchRepository{db: db, now: time.Now}
}

func (r *JobDispatchRepository) UpsertEvent(ctx context.Context, event jobscheduler.DispatchEvent) error {
	model, err := dispatchModel(event, r.now())
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel("job_dispatches", model, dispatchUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert job dispatch query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert job dispatch dispatch_id=%s status=%s: %w", model.DispatchID, model.Status, err)
	}
	return nil
}

func dispatchModel(event jobscheduler.DispatchEvent, now time.Time) (jobDispatchInsertModel, error) {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return jobDispatchInsertModel{}, errDispatchIDRequired
	}
	payload, err := encodeJSON(event.Payload, "{}")
	if err != nil {
		return jobDispatchInsertModel{}, fmt.Errorf("marshal job dispatch payload: %w", err)
	}

	at := event.OccurredAt
	if at.IsZero() {
		at = now
	}
	at = at.UTC()
	traceID, spanID := optionalString(event.TraceID), optionalString(event.SpanID)

	model := jobDispatchInsertModel{
		DispatchID: dispatchID,
		JobName:    orDefault(event.JobName, "unknown"),
		JobPath:    orDefault(event.JobPath, "/unknown"),
		Scope:      orDefault(event.Scope, jobscheduler.ScopeAll),
		Payload:    payload,
		Status:     string(event.Status),
	}
	switch event.Status {
	case jobscheduler.StatusSent:
		model.SentAt, model.SentTraceID, model.SentSpanID = &at, traceID, spanID
	case jobscheduler.StatusCompleted:
		model.CompletedAt, model.CompletedTraceID, model.CompletedSpanID = &at, traceID, spanID
	case jobscheduler.StatusFailed:
		model.FailedAt, model.FailedTraceID, model.FailedSpanID = &at, traceID, spanID
		model.LastError = optionalString(event.ErrorMessage)
	}
	return model, nil
}

func buildDispatchUpsertSuffix() string {
	sets := []string{
		"job_name = EXCLUDED.job_name",
		"job_path = EXCLUDED.job_path",
		"scope = EXCLUDED.scope",
		"payload = EXCLUDED.payload",
		"status = EXCLUDED.status",
	}
	for _, phase := range dispatchPhases {
		for _, suffix := range []string{"_at", "_trace_id", "_span_id"} {
			col := string(phase) + suffix
			fallback := "job_dispatches." + col
			if phase == jobscheduler.StatusFailed && suffix == "_at" {
				// A later success clears the failure marker.
				fallback = fmt.Sprintf("CASE WHEN EXCLUDED.status = '%s' THEN NULL ELSE job_dispatches.%s END", jobscheduler.StatusCompleted, col)
			}
			sets = append(sets, fmt.Sprintf("%s = CASE WHEN EXCLUDED.status = '%s' THEN EXCLUDED.%s ELSE %s END", col, phase, col, fallback))
		}
	}
	sets = append(sets,
		"last_error = EXCLUDED.last_error",
		"updated_at = NOW()",
		"deleted_at = NULL",
	)
	return "ON CONFLICT (dispatch_id) WHERE deleted_at IS NULL DO UPDATE SET\n    " + strings.Join(sets, ",\n    ")
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}
