package httpapi

import (
	"fmt"
	"net/http"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

func (h *Handler) EnsureMatchEnrichment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EnsureMatchEnrichment")
	defer span.End()

	if h.enrichment == nil {
		writeError(ctx, w, fmt.Errorf("%w: enrichment is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	matchID, err := parsePathID(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req ensureEnrichmentRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	types, err := parseDataTypes(req.Types)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.enrichment.EnsureMatchData(ctx, matchID, types)
	if err != nil {
		h.logger.WarnContext(ctx, "ensure match enrichment failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) FetchMatchEnrichment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FetchMatchEnrichment")
	defer span.End()

	if h.enrichment == nil {
		writeError(ctx, w, fmt.Errorf("%w: enrichment is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	matchID, err := parsePathID(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req fetchEnrichmentRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	types, err := parseDataTypes(req.Types)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	mode, err := usecase.ParseFetchMode(req.Mode)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	available, err := h.enrichment.FetchNow(ctx, matchID, types, mode)
	if err != nil {
		h.logger.WarnContext(ctx, "fetch match enrichment failed", "match_id", matchID, "mode", mode, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fetchNowDTO{
		MatchID:   matchID,
		Mode:      mode,
		Available: available,
	})
}

func (h *Handler) ListMatchEnrichment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchEnrichment")
	defer span.End()

	if h.enrichment == nil {
		writeError(ctx, w, fmt.Errorf("%w: enrichment is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	matchID, err := parsePathID(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.enrichment.Records(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "list match enrichment failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, recordsToDTO(items))
}

func (h *Handler) ResolveMatchReferences(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveMatchReferences")
	defer span.End()

	if h.enrichment == nil {
		writeError(ctx, w, fmt.Errorf("%w: enrichment is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	matchID, err := parsePathID(r, "matchID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	refs, err := h.enrichment.EnsureReferences(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve match references failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, providerRefsDTO{
		MatchID:           matchID,
		FixtureID:         refs.FixtureID,
		LeagueID:          refs.LeagueID,
		Season:            refs.Season,
		HomeTeamID:        refs.HomeTeamID,
		AwayTeamID:        refs.AwayTeamID,
		MappingConfidence: refs.MappingConfidence,
	})
}

func (h *Handler) GetEnrichmentStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEnrichmentStats")
	defer span.End()

	if h.enrichment == nil {
		writeError(ctx, w, fmt.Errorf("%w: enrichment is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	stats, err := h.enrichment.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get enrichment stats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stats)
}
