package httpapi

import (
	"fmt"
	"net/http"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

// RunResultSync triggers the result fallback. With queue=true and a job queue
// configured the run is handed to the queue and the response carries no report.
func (h *Handler) RunResultSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunResultSync")
	defer span.End()

	if h.jobs == nil {
		writeError(ctx, w, fmt.Errorf("%w: job runner is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req resultSyncRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, queued, err := h.jobs.RunResultSync(ctx, req.Queue)
	if err != nil {
		h.logger.WarnContext(ctx, "run result sync failed", "queue", req.Queue, "error", err)
		writeError(ctx, w, err)
		return
	}
	if queued {
		writeSuccess(ctx, w, http.StatusAccepted, resultSyncDTO{Queued: true})
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resultSyncDTO{Report: &report})
}

func (h *Handler) ReconcileResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReconcileResults")
	defer span.End()

	if h.results == nil {
		writeError(ctx, w, fmt.Errorf("%w: result sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	competitionID, err := parsePathID(r, "competitionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.results.Reconcile(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "reconcile results failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
