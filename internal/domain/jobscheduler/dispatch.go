// Package jobscheduler models background job dispatches and their audit trail.
package jobscheduler

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

const (
	JobEnrichmentAutoFetch = "enrichment-auto-fetch"
	JobEnrichmentSweep     = "enrichment-sweep"
	JobResultSync          = "result-sync"
)

// ScopeAll is the scope of jobs that work across every match.
const ScopeAll = "all"

// Repository persists dispatch events keyed by DispatchID. A later event for
// the same dispatch replaces the earlier status.
type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
}

// DispatchEvent tracks one background job through its lifecycle.
// Scope names what the job works on, such as "match:42" or "all".
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	JobPath      string
	Scope        string
	Status       DispatchStatus
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

// Settle marks the event completed, or failed with err's message.
func (e *DispatchEvent) Settle(err error) {
	if err != nil {
		e.Status = StatusFailed
		e.ErrorMessage = err.Error()
		return
	}
	e.Status = StatusCompleted
	e.ErrorMessage = ""
}

// AttachTrace copies the active span identifiers onto the event.
func (e *DispatchEvent) AttachTrace(ctx context.Context) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	e.TraceID = sc.TraceID().String()
	e.SpanID = sc.SpanID().String()
}

func MatchScope(matchID int64) string {
	return "match:" + strconv.FormatInt(matchID, 10)
}

// DedupKey is stable for every dispatch of jobName on scope within one
// bucket, so the queue drops repeats.
func DedupKey(jobName, scope string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	return idPart(jobName) + "-" + idPart(scope) + "-" + at.UTC().Truncate(bucket).Format("20060102T150405Z")
}

// ManualDispatchID names a run that did not come through the queue.
func ManualDispatchID(jobName, scope string, at time.Time) string {
	return "manual-" + idPart(jobName) + "-" + idPart(scope) + "-" + at.UTC().Format("20060102T150405.000000000Z")
}

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func idPart(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return unsafeIDChars.ReplaceAllString(value, "-")
}
