package unresolved

import (
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
)

// Candidate is one near-miss offered to a reviewer.
type Candidate struct {
	ProviderID int64   `json:"provider_id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// Entity is a team or league that no strategy could resolve.
type Entity struct {
	ID           string
	EntityType   mapping.EntityType
	InternalID   string
	Name         string
	Context      map[string]string
	Candidates   []Candidate
	AttemptCount int
	Resolved     bool
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
