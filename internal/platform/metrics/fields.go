package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrEndpoint = "endpoint"
	AttrOutcome  = "outcome"
	AttrTier     = "tier"
	AttrDataType = "data_type"
	AttrResult   = "result"
)

// Provider call outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeCacheHit = "cache_hit"
	OutcomeRejected = "rejected"
)
