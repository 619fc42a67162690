package postgres

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/jobscheduler"
)

func TestDispatchModel_StampsOnlyOwnPhase(t *testing.T) {
	at := time.Date(2026, 3, 7, 13, 0, 0, 0, time.FixedZone("CET", 3600))
	model, err := dispatchModel(jobscheduler.DispatchEvent{
		DispatchID:   " d-1 ",
		Status:       jobscheduler.StatusFailed,
		ErrorMessage: "boom",
		OccurredAt:   at,
		TraceID:      "t",
	}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if model.DispatchID != "d-1" || model.JobName != "unknown" || model.JobPath != "/unknown" || model.Scope != "all" {
		t.Fatalf("defaults not applied: %+v", model)
	}
	if model.Payload != "{}" {
		t.Fatalf("expected empty payload object, got %q", model.Payload)
	}
	if model.FailedAt == nil || !model.FailedAt.Equal(at) || model.FailedAt.Location() != time.UTC {
		t.Fatalf("expected failed_at in UTC, got %v", model.FailedAt)
	}
	if model.SentAt != nil || model.CompletedAt != nil {
		t.Fatalf("other phases must stay unset")
	}
	if model.LastError == nil || *model.LastError != "boom" || model.FailedSpanID != nil {
		t.Fatalf("unexpected failure columns: %+v", model)
	}
}

func TestDispatchModel_CompletedDropsError(t *testing.T) {
	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	model, err := dispatchModel(jobscheduler.DispatchEvent{
		DispatchID:   "d-2",
		Status:       jobscheduler.StatusCompleted,
		ErrorMessage: "stale",
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.CompletedAt == nil || !model.CompletedAt.Equal(now) {
		t.Fatalf("expected completed_at to fall back to now, got %v", model.CompletedAt)
	}
	if model.LastError != nil {
		t.Fatalf("completed dispatch must not carry an error")
	}
}

func TestDispatchModel_RequiresID(t *testing.T) {
	if _, err := dispatchModel(jobscheduler.DispatchEvent{DispatchID: "  "}, time.Now()); !errors.Is(err, errDispatchIDRequired) {
		t.Fatalf("expected errDispatchIDRequired, got %v", err)
	}
}

func TestDispatchUpsertSuffix(t *testing.T) {
	for _, want := range []string{
		"ON CONFLICT (dispatch_id) WHERE deleted_at IS NULL DO UPDATE SET",
		"sent_at = CASE WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_at ELSE job_dispatches.sent_at END",
		"completed_span_id = CASE WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_span_id ELSE job_dispatches.completed_span_id END",
		"failed_at = CASE WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at ELSE CASE WHEN EXCLUDED.status = 'completed' THEN NULL ELSE job_dispatches.failed_at END END",
		"last_error = EXCLUDED.last_error",
	} {
		if !strings.Contains(dispatchUpsertSuffix, want) {
			t.Fatalf("upsert suffix missing %q:\n%s", want, dispatchUpsertSuffix)
		}
	}
}
