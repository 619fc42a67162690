package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/jobscheduler"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

// RunEnrichmentAutoFetchJob is the queue callback for one match. The runner
// records the dispatch outcome itself.
func (h *Handler) RunEnrichmentAutoFetchJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunEnrichmentAutoFetchJob")
	defer span.End()

	req, ok := h.prepareJob(ctx, w, r)
	if !ok {
		return
	}
	if req.MatchID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: match_id is required", usecase.ErrInvalidInput))
		return
	}
	span.SetAttributes(attribute.Int64("match_id", req.MatchID))

	dispatchID := strings.TrimSpace(req.DispatchID)
	if dispatchID == "" {
		dispatchID = jobscheduler.ManualDispatchID(jobscheduler.JobEnrichmentAutoFetch, jobscheduler.MatchScope(req.MatchID), h.now())
	}

	report, err := h.jobs.RunMatch(ctx, req.MatchID, dispatchID)
	if err != nil {
		h.logger.WarnContext(ctx, "enrichment auto-fetch job failed", "match_id", req.MatchID, "dispatch_id", dispatchID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) RunEnrichmentSweepJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunEnrichmentSweepJob")
	defer span.End()

	h.runTrackedJob(ctx, w, r, jobscheduler.JobEnrichmentSweep, usecase.JobPathEnrichmentSweep, func(ctx context.Context) (any, error) {
		return h.jobs.Sweep(ctx)
	})
}

// RunResultSyncJob always runs in-process. It is the target the queue calls.
func (h *Handler) RunResultSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunResultSyncJob")
	defer span.End()

	h.runTrackedJob(ctx, w, r, jobscheduler.JobResultSync, usecase.JobPathResultSync, func(ctx context.Context) (any, error) {
		report, _, err := h.jobs.RunResultSync(ctx, false)
		return report, err
	})
}

// runTrackedJob runs a whole-system job and records its dispatch outcome.
func (h *Handler) runTrackedJob(ctx context.Context, w http.ResponseWriter, r *http.Request, name, path string, run func(context.Context) (any, error)) {
	req, ok := h.prepareJob(ctx, w, r)
	if !ok {
		return
	}

	result, err := run(ctx)
	event := jobscheduler.DispatchEvent{
		JobName:    name,
		JobPath:    path,
		Scope:      jobscheduler.ScopeAll,
		Payload:    jobPayload(req),
		OccurredAt: h.now().UTC(),
	}
	event.Settle(err)
	h.recordDispatch(ctx, req, event)

	if err != nil {
		h.logger.WarnContext(ctx, "internal job failed", "job_name", name, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

// prepareJob checks the runner is wired and decodes the optional body. It
// writes the error response itself and reports whether to continue.
func (h *Handler) prepareJob(ctx context.Context, w http.ResponseWriter, r *http.Request) (internalJobRequest, bool) {
	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: job runner is not configured", usecase.ErrDependencyUnavailable))
		return internalJobRequest{}, false
	}

	var req internalJobRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return internalJobRequest{}, false
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return internalJobRequest{}, false
	}
	return req, true
}

func (h *Handler) recordDispatch(ctx context.Context, req internalJobRequest, event jobscheduler.DispatchEvent) {
	if h.jobDispatchRepo == nil {
		return
	}

	event.DispatchID = strings.TrimSpace(req.DispatchID)
	if event.DispatchID == "" {
		event.DispatchID = jobscheduler.ManualDispatchID(event.JobName, event.Scope, event.OccurredAt)
	}
	event.AttachTrace(ctx)

	if err := h.jobDispatchRepo.UpsertEvent(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "record job dispatch failed",
			"dispatch_id", event.DispatchID,
			"job_name", event.JobName,
			"status", event.Status,
			"error", err,
		)
	}
}

func jobPayload(req internalJobRequest) map[string]any {
	payload := map[string]any{}
	if req.MatchID > 0 {
		payload["match_id"] = req.MatchID
	}
	if id := strings.TrimSpace(req.DispatchID); id != "" {
		payload["dispatch_id"] = id
	}
	return payload
}
