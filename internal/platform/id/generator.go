package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs for run and queue references.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return value.String(), nil
}

// Sequence yields fixed IDs, for tests.
type Sequence struct {
	IDs  []string
	next int
}

func (s *Sequence) NewID() (string, error) {
	if s.next >= len(s.IDs) {
		return "", fmt.Errorf("sequence exhausted after %d ids", len(s.IDs))
	}
	value := s.IDs[s.next]
	s.next++
	return value, nil
}
