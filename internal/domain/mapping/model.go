package mapping

import (
	"fmt"
	"strings"
	"time"
)

type EntityType string

const (
	EntityTeam   EntityType = "team"
	EntityLeague EntityType = "league"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type Method string

const (
	MethodExact      Method = "exact"
	MethodFuzzy      Method = "fuzzy"
	MethodExternalID Method = "externalId"
	MethodManual     Method = "manual"
)

// Mapping links one internal team or league to the provider's identifier.
type Mapping struct {
	EntityType   EntityType
	InternalID   string
	ProviderID   int64
	ProviderName string
	Confidence   Confidence
	Method       Method
	Similarity   *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func ParseEntityType(value string) (EntityType, error) {
	switch EntityType(strings.ToLower(strings.TrimSpace(value))) {
	case EntityTeam, "teams":
		return EntityTeam, nil
	case EntityLeague, "leagues":
		return EntityLeague, nil
	default:
		return "", fmt.Errorf("unknown entity type %q", value)
	}
}

// ConfidenceForSimilarity classifies an accepted fuzzy score.
func ConfidenceForSimilarity(similarity, highThreshold float64) Confidence {
	if similarity >= highThreshold {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

// Validate checks that confidence agrees with how the mapping was derived.
func (m Mapping) Validate() error {
	if m.EntityType != EntityTeam && m.EntityType != EntityLeague {
		return fmt.Errorf("mapping entity type is invalid: %q", m.EntityType)
	}
	if strings.TrimSpace(m.InternalID) == "" {
		return fmt.Errorf("mapping internal id is required")
	}
	if m.ProviderID <= 0 {
		return fmt.Errorf("mapping provider id must be > 0")
	}

	switch m.Method {
	case MethodExact, MethodExternalID, MethodManual:
		if m.Confidence != ConfidenceHigh {
			return fmt.Errorf("mapping by %s must have high confidence, got %s", m.Method, m.Confidence)
		}
	case MethodFuzzy:
		if m.Similarity == nil {
			return fmt.Errorf("fuzzy mapping requires a similarity score")
		}
		if m.Confidence != ConfidenceHigh && m.Confidence != ConfidenceMedium {
			return fmt.Errorf("fuzzy mapping confidence is invalid: %q", m.Confidence)
		}
	default:
		return fmt.Errorf("mapping method is invalid: %q", m.Method)
	}

	return nil
}

// Summary counts mappings of one entity type.
type Summary struct {
	Total        int                `json:"total"`
	ByConfidence map[Confidence]int `json:"by_confidence"`
	ByMethod     map[Method]int     `json:"by_method"`
}

func NewSummary() Summary {
	return Summary{
		ByConfidence: make(map[Confidence]int),
		ByMethod:     make(map[Method]int),
	}
}

func (s *Summary) Add(m Mapping) {
	s.Total++
	s.ByConfidence[m.Confidence]++
	s.ByMethod[m.Method]++
}
