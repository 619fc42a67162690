package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type otelInstruments struct {
	ctx               context.Context
	providerCalls     metric.Int64Counter
	providerLatencyMs metric.Float64Histogram
	cacheLookups      metric.Int64Counter
	enrichmentFetches metric.Int64Counter
}

func newOtelInstruments(provider metric.MeterProvider, name string) (*otelInstruments, error) {
	meter := provider.Meter(name)

	providerCalls, err := meter.Int64Counter("provider_requests_total")
	if err != nil {
		return nil, err
	}
	providerLatency, err := meter.Float64Histogram("provider_request_duration_ms")
	if err != nil {
		return nil, err
	}
	cacheLookups, err := meter.Int64Counter("cache_lookups_total")
	if err != nil {
		return nil, err
	}
	enrichmentFetches, err := meter.Int64Counter("enrichment_fetches_total")
	if err != nil {
		return nil, err
	}

	return &otelInstruments{
		ctx:               context.Background(),
		providerCalls:     providerCalls,
		providerLatencyMs: providerLatency,
		cacheLookups:      cacheLookups,
		enrichmentFetches: enrichmentFetches,
	}, nil
}

func (o *otelInstruments) recordProviderCall(endpoint, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrOutcome, outcome),
	)
	o.providerCalls.Add(o.ctx, 1, attrs)
	if outcome != OutcomeCacheHit && outcome != OutcomeRejected {
		o.providerLatencyMs.Record(o.ctx, float64(duration.Milliseconds()), metric.WithAttributes(attribute.String(AttrEndpoint, endpoint)))
	}
}

func (o *otelInstruments) recordCacheLookup(tier string) {
	if o == nil {
		return
	}
	o.cacheLookups.Add(o.ctx, 1, metric.WithAttributes(attribute.String(AttrTier, tier)))
}

func (o *otelInstruments) recordEnrichmentFetch(dataType, result string) {
	if o == nil {
		return
	}
	o.enrichmentFetches.Add(o.ctx, 1, metric.WithAttributes(
		attribute.String(AttrDataType, dataType),
		attribute.String(AttrResult, result),
	))
}
