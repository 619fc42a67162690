package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/enrichment"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/unresolved"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

type ensureEnrichmentRequest struct {
	Types []string `json:"types" validate:"omitempty,max=8,dive,required"`
}

type fetchEnrichmentRequest struct {
	Types []string `json:"types" validate:"omitempty,max=8,dive,required"`
	Mode  string   `json:"mode" validate:"omitempty,oneof=sequential parallel"`
}

type mappingOverrideRequest struct {
	ProviderID   int64  `json:"provider_id" validate:"required,gt=0"`
	ProviderName string `json:"provider_name" validate:"required,max=200"`
}

type internalJobRequest struct {
	MatchID    int64  `json:"match_id" validate:"omitempty,gt=0"`
	DispatchID string `json:"dispatch_id" validate:"omitempty,max=200"`
}

type resultSyncRequest struct {
	Queue bool `json:"queue"`
}

type fetchNowDTO struct {
	MatchID   int64                        `json:"match_id"`
	Mode      usecase.FetchMode            `json:"mode"`
	Available map[enrichment.DataType]bool `json:"available"`
}

type recordDTO struct {
	DataType  enrichment.DataType `json:"data_type"`
	Source    string              `json:"source"`
	IsStale   bool                `json:"is_stale"`
	FetchedAt time.Time           `json:"fetched_at"`
	Payload   json.RawMessage     `json:"payload"`
}

type providerRefsDTO struct {
	MatchID           int64  `json:"match_id"`
	FixtureID         int64  `json:"fixture_id,omitempty"`
	LeagueID          int64  `json:"league_id,omitempty"`
	Season            int    `json:"season,omitempty"`
	HomeTeamID        int64  `json:"home_team_id,omitempty"`
	AwayTeamID        int64  `json:"away_team_id,omitempty"`
	MappingConfidence string `json:"mapping_confidence,omitempty"`
}

type mappingDTO struct {
	EntityType   mapping.EntityType `json:"entity_type"`
	InternalID   string             `json:"internal_id"`
	ProviderID   int64              `json:"provider_id"`
	ProviderName string             `json:"provider_name"`
	Confidence   mapping.Confidence `json:"confidence"`
	Method       mapping.Method     `json:"method"`
	Similarity   *float64           `json:"similarity,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type unresolvedDTO struct {
	ID           string                 `json:"id"`
	EntityType   mapping.EntityType     `json:"entity_type"`
	InternalID   string                 `json:"internal_id"`
	Name         string                 `json:"name"`
	Context      map[string]string      `json:"context,omitempty"`
	Candidates   []unresolved.Candidate `json:"candidates"`
	AttemptCount int                    `json:"attempt_count"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type resultSyncDTO struct {
	Queued bool                      `json:"queued"`
	Report *usecase.ResultSyncReport `json:"report,omitempty"`
}

// decodeJSONBody reads a strict JSON body. An empty body leaves dst untouched.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := strictJSON.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func parsePathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", usecase.ErrInvalidInput, name, raw)
	}
	return value, nil
}

func parseLimit(r *http.Request, fallback, ceiling int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)
	}
	if value > ceiling {
		value = ceiling
	}
	return value, nil
}

func parseDataTypes(raw []string) ([]enrichment.DataType, error) {
	types, err := enrichment.ParseDataTypes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return types, nil
}

func recordsToDTO(items []enrichment.Record) []recordDTO {
	out := make([]recordDTO, 0, len(items))
	for _, item := range items {
		payload := json.RawMessage(item.Payload)
		if len(bytes.TrimSpace(payload)) == 0 {
			payload = json.RawMessage("null")
		}
		out = append(out, recordDTO{
			DataType:  item.DataType,
			Source:    item.Source,
			IsStale:   item.IsStale,
			FetchedAt: item.FetchedAt,
			Payload:   payload,
		})
	}
	return out
}

func mappingToDTO(item mapping.Mapping) mappingDTO {
	return mappingDTO{
		EntityType:   item.EntityType,
		InternalID:   item.InternalID,
		ProviderID:   item.ProviderID,
		ProviderName: item.ProviderName,
		Confidence:   item.Confidence,
		Method:       item.Method,
		Similarity:   item.Similarity,
		UpdatedAt:    item.UpdatedAt,
	}
}

func unresolvedToDTO(items []unresolved.Entity) []unresolvedDTO {
	out := make([]unresolvedDTO, 0, len(items))
	for _, item := range items {
		candidates := item.Candidates
		if candidates == nil {
			candidates = []unresolved.Candidate{}
		}
		out = append(out, unresolvedDTO{
			ID:           item.ID,
			EntityType:   item.EntityType,
			InternalID:   item.InternalID,
			Name:         item.Name,
			Context:      item.Context,
			Candidates:   candidates,
			AttemptCount: item.AttemptCount,
			UpdatedAt:    item.UpdatedAt,
		})
	}
	return out
}
