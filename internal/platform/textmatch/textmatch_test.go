package textmatch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Östersunds FK", "ostersunds fk"},
		{"  Malmö   FF ", "malmo ff"},
		{"Brighton & Hove Albion", "brighton hove albion"},
		{"Nott'm Forest", "nottm forest"},
		{"A.F.C. Bournemouth", "afc bournemouth"},
		{"Bodø/Glimt", "bodo glimt"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCore_StripsNoiseTokens(t *testing.T) {
	if got := Core("hammarby if"); got != "hammarby" {
		t.Fatalf("expected hammarby, got %q", got)
	}
	if got := Core("fc"); got != "fc" {
		t.Fatalf("expected all-noise name unchanged, got %q", got)
	}
}

func TestSimilarity_OstersundIsMediumBand(t *testing.T) {
	score := Similarity("Östersund", "Östersunds FK")
	if score < 80 || score >= 95 {
		t.Fatalf("expected score in [80,95), got %.2f", score)
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	if got := Similarity("Arsenal", "Arsenal"); got != 100 {
		t.Fatalf("expected identical names to score 100, got %.2f", got)
	}
	if got := Similarity("Arsenal", ""); got != 0 {
		t.Fatalf("expected empty name to score 0, got %.2f", got)
	}
	if got := Similarity("Liverpool", "Everton"); got >= 80 {
		t.Fatalf("expected unrelated clubs below threshold, got %.2f", got)
	}
}

func TestSimilarity_PrefersCloserCandidate(t *testing.T) {
	utd := Similarity("Manchester Utd", "Manchester United")
	city := Similarity("Manchester Utd", "Manchester City")
	if utd <= city {
		t.Fatalf("expected United (%.2f) to beat City (%.2f)", utd, city)
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("kitten", "sitting"); got < 57 || got > 58 {
		t.Fatalf("expected ~57.14, got %.2f", got)
	}
}

func TestAliasTable_Equivalent(t *testing.T) {
	teams, _, err := LoadAliases("")
	if err != nil {
		t.Fatalf("load aliases: %v", err)
	}

	if !teams.Equivalent(Normalize("Man United"), Normalize("Manchester United")) {
		t.Fatalf("expected Man United to alias Manchester United")
	}
	if teams.Equivalent(Normalize("Man City"), Normalize("Manchester United")) {
		t.Fatalf("expected different clubs not to be equivalent")
	}
}

func TestLoadAliases_MergesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	content := "teams:\n  IK Sirius:\n    - Sirius\nleagues:\n  Allsvenskan:\n    - SWE 1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write alias file: %v", err)
	}

	teams, leagues, err := LoadAliases(path)
	if err != nil {
		t.Fatalf("load aliases: %v", err)
	}
	if !teams.Equivalent("sirius", "ik sirius") {
		t.Fatalf("expected file alias for Sirius")
	}
	if !leagues.Equivalent("swe 1", "allsvenskan") {
		t.Fatalf("expected file alias for Allsvenskan")
	}
	if !teams.Equivalent("man utd", "manchester united") {
		t.Fatalf("expected built-in aliases to survive the merge")
	}
}

func TestLoadAliases_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	if err := os.WriteFile(path, []byte("teams: [not, a, map"), 0o600); err != nil {
		t.Fatalf("write alias file: %v", err)
	}
	if _, _, err := LoadAliases(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
