package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/enrichment"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/jobscheduler"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/unresolved"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

type EnrichmentService interface {
	EnsureMatchData(ctx context.Context, matchID int64, types []enrichment.DataType) (usecase.EnsureReport, error)
	FetchNow(ctx context.Context, matchID int64, types []enrichment.DataType, mode usecase.FetchMode) (map[enrichment.DataType]bool, error)
	EnsureReferences(ctx context.Context, matchID int64) (match.ProviderRefs, error)
	Records(ctx context.Context, matchID int64) ([]enrichment.Record, error)
	Stats(ctx context.Context) (usecase.EnrichmentStats, error)
}

type MappingService interface {
	OverrideTeam(ctx context.Context, internalID string, providerID int64, providerName string) (mapping.Mapping, error)
	OverrideLeague(ctx context.Context, internalID string, providerID int64, providerName string) (mapping.Mapping, error)
}

type ResultService interface {
	Reconcile(ctx context.Context, competitionID int64) (usecase.ReconcileReport, error)
}

type JobRunner interface {
	Sweep(ctx context.Context) (usecase.SweepResult, error)
	RunMatch(ctx context.Context, matchID int64, dispatchID string) (usecase.EnsureReport, error)
	RunResultSync(ctx context.Context, queue bool) (usecase.ResultSyncReport, bool, error)
}

type ProviderStatusReader interface {
	Get(ctx context.Context) (usecase.ProviderStatus, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type HandlerDeps struct {
	Enrichment      EnrichmentService
	Mappings        MappingService
	Unresolved      unresolved.Repository
	Results         ResultService
	Jobs            JobRunner
	ProviderStatus  ProviderStatusReader
	JobDispatchRepo jobscheduler.Repository
	Readiness       map[string]ReadinessCheck
	Logger          *logging.Logger
}

type Handler struct {
	enrichment      EnrichmentService
	mappings        MappingService
	unresolved      unresolved.Repository
	results         ResultService
	jobs            JobRunner
	providerStatus  ProviderStatusReader
	jobDispatchRepo jobscheduler.Repository
	readiness       map[string]ReadinessCheck
	logger          *logging.Logger
	validator       *validator.Validate
	now             func() time.Time
}

func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		enrichment:      deps.Enrichment,
		mappings:        deps.Mappings,
		unresolved:      deps.Unresolved,
		results:         deps.Results,
		jobs:            deps.Jobs,
		providerStatus:  deps.ProviderStatus,
		jobDispatchRepo: deps.JobDispatchRepo,
		readiness:       deps.Readiness,
		logger:          logger,
		validator:       newValidator(),
		now:             time.Now,
	}
}

// validateRequest reports each failing field by its JSON name.
func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	err := h.validator.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fe.Field()+" failed "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", usecase.ErrInvalidInput, strings.Join(problems, "; "))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.readiness))
	var failed error
	for name, check := range h.readiness {
		if err := check(checkCtx); err != nil {
			checks[name] = err.Error()
			if failed == nil {
				failed = fmt.Errorf("%w: %s: %v", usecase.ErrDependencyUnavailable, name, err)
			}
			continue
		}
		checks[name] = "ok"
	}
	if failed != nil {
		h.logger.WarnContext(ctx, "readiness check failed", "checks", checks)
		writeError(ctx, w, failed)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
}

func (h *Handler) GetProviderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProviderStatus")
	defer span.End()

	if h.providerStatus == nil {
		writeError(ctx, w, fmt.Errorf("%w: provider status is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	status, err := h.providerStatus.Get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get provider status failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, status)
}
