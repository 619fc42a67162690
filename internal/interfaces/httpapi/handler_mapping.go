package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

const (
	defaultUnresolvedLimit = 50
	maxUnresolvedLimit     = 500
)

// OverrideMapping stores a reviewer's manual mapping. The entry leaves the
// unresolved queue as a side effect.
func (h *Handler) OverrideMapping(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OverrideMapping")
	defer span.End()

	if h.mappings == nil {
		writeError(ctx, w, fmt.Errorf("%w: entity matcher is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	entityType, err := mapping.ParseEntityType(r.PathValue("entityType"))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	internalID := strings.TrimSpace(r.PathValue("internalID"))
	if internalID == "" {
		writeError(ctx, w, fmt.Errorf("%w: internal id is required", usecase.ErrInvalidInput))
		return
	}

	var req mappingOverrideRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	req.ProviderName = strings.TrimSpace(req.ProviderName)
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	var item mapping.Mapping
	switch entityType {
	case mapping.EntityLeague:
		item, err = h.mappings.OverrideLeague(ctx, internalID, req.ProviderID, req.ProviderName)
	default:
		item, err = h.mappings.OverrideTeam(ctx, internalID, req.ProviderID, req.ProviderName)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "override mapping failed",
			"entity_type", entityType,
			"internal_id", internalID,
			"provider_id", req.ProviderID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "mapping overridden",
		"entity_type", entityType,
		"internal_id", internalID,
		"provider_id", req.ProviderID,
	)
	writeSuccess(ctx, w, http.StatusOK, mappingToDTO(item))
}

func (h *Handler) ListUnresolved(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUnresolved")
	defer span.End()

	if h.unresolved == nil {
		writeError(ctx, w, fmt.Errorf("%w: unresolved queue is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var entityType mapping.EntityType
	if raw := strings.TrimSpace(r.URL.Query().Get("entity_type")); raw != "" {
		parsed, err := mapping.ParseEntityType(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
			return
		}
		entityType = parsed
	}
	limit, err := parseLimit(r, defaultUnresolvedLimit, maxUnresolvedLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.unresolved.ListPending(ctx, entityType, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list unresolved entities failed", "entity_type", entityType, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, unresolvedToDTO(items))
}
