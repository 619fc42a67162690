package httpapi

import (
	"net/http"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

// route is one mux entry. Guarded routes require the internal job token;
// besides the queue callbacks that covers operator writes.
type route struct {
	pattern string
	handler http.HandlerFunc
	guarded bool
}

func routes(h *Handler, opts RouterOptions) []route {
	table := []route{
		{pattern: "GET /healthz", handler: h.Healthz},
		{pattern: "GET /readyz", handler: h.Readyz},

		{pattern: "GET /v1/matches/{matchID}/enrichment", handler: h.ListMatchEnrichment},
		{pattern: "POST /v1/matches/{matchID}/enrichment/ensure", handler: h.EnsureMatchEnrichment},
		{pattern: "POST /v1/matches/{matchID}/enrichment/fetch", handler: h.FetchMatchEnrichment},
		{pattern: "POST /v1/matches/{matchID}/references", handler: h.ResolveMatchReferences},
		{pattern: "GET /v1/enrichment/stats", handler: h.GetEnrichmentStats},
		{pattern: "GET /v1/provider/status", handler: h.GetProviderStatus},

		{pattern: "GET /v1/mappings/unresolved", handler: h.ListUnresolved},
		{pattern: "PUT /v1/mappings/{entityType}/{internalID}", handler: h.OverrideMapping, guarded: true},
		{pattern: "POST /v1/results/sync", handler: h.RunResultSync, guarded: true},
		{pattern: "GET /v1/competitions/{competitionID}/results/reconcile", handler: h.ReconcileResults},

		{pattern: "POST " + usecase.JobPathEnrichmentAutoFetch, handler: h.RunEnrichmentAutoFetchJob, guarded: true},
		{pattern: "POST " + usecase.JobPathEnrichmentSweep, handler: h.RunEnrichmentSweepJob, guarded: true},
		{pattern: "POST " + usecase.JobPathResultSync, handler: h.RunResultSyncJob, guarded: true},
	}
	if opts.Metrics != nil {
		table = append(table, route{pattern: "GET /metrics", handler: opts.Metrics.ServeHTTP})
	}
	if opts.SwaggerEnabled {
		table = append(table,
			route{pattern: "GET /openapi.yaml", handler: h.OpenAPI},
			route{pattern: "GET /docs", handler: h.SwaggerUI},
			route{pattern: "GET /docs/", handler: h.SwaggerUI},
		)
	}
	return table
}

func newMux(h *Handler, opts RouterOptions) *http.ServeMux {
	mux := http.NewServeMux()
	for _, r := range routes(h, opts) {
		var handler http.Handler = r.handler
		if r.guarded {
			handler = RequireInternalJobToken(opts.InternalJobToken, handler)
		}
		mux.Handle(r.pattern, handler)
	}
	return mux
}
