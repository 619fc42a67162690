package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/memory"
)

func TestSeedInsert(t *testing.T) {
	items := memory.SeedMatches(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if len(items) == 0 {
		t.Fatalf("expected seed matches")
	}

	query, args, err := seedInsert(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := len(items) * len(seedColumns); len(args) != want {
		t.Fatalf("expected %d args, got %d", want, len(args))
	}
	if !strings.HasPrefix(query, "INSERT INTO matches (id, competition_id,") || !strings.HasSuffix(query, "ON CONFLICT (id) DO NOTHING") {
		t.Fatalf("unexpected query: %s", query)
	}
	if got := strings.Count(query, "), ("); got != len(items)-1 {
		t.Fatalf("expected %d row tuples, got %d", len(items), got+1)
	}
}

func TestSeedInsert_Empty(t *testing.T) {
	if _, _, err := seedInsert(nil); err == nil {
		t.Fatalf("expected error for empty seed")
	}
}
