package textmatch

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasTable maps normalized aliases onto one normalized canonical name.
type AliasTable struct {
	canonical map[string]string
}

// AliasFile is the on-disk format of a curated alias table.
//
//	teams:
//	  Manchester United: [Man United, Man Utd]
//	leagues:
//	  Premier League: [EPL]
type AliasFile struct {
	Teams   map[string][]string `yaml:"teams"`
	Leagues map[string][]string `yaml:"leagues"`
}

func NewAliasTable(groups map[string][]string) *AliasTable {
	table := &AliasTable{canonical: make(map[string]string)}
	table.Merge(groups)
	return table
}

// Merge adds groups; later groups win when an alias is listed twice.
func (t *AliasTable) Merge(groups map[string][]string) {
	for name, aliases := range groups {
		canonical := Normalize(name)
		if canonical == "" {
			continue
		}
		t.canonical[canonical] = canonical
		for _, alias := range aliases {
			if normalized := Normalize(alias); normalized != "" {
				t.canonical[normalized] = canonical
			}
		}
	}
}

// Canonical resolves a normalized name to its group name, or returns it
// unchanged when no group lists it.
func (t *AliasTable) Canonical(normalized string) string {
	if t == nil {
		return normalized
	}
	if canonical, ok := t.canonical[normalized]; ok {
		return canonical
	}
	return normalized
}

// Equivalent reports whether two normalized names are the same entity by
// exact text or by shared alias group.
func (t *AliasTable) Equivalent(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || t.Canonical(a) == t.Canonical(b)
}

func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.canonical)
}

// LoadAliases returns the built-in team and league tables, extended with the
// YAML file at path when one is given.
func LoadAliases(path string) (teams *AliasTable, leagues *AliasTable, err error) {
	teams = NewAliasTable(defaultTeamAliases)
	leagues = NewAliasTable(defaultLeagueAliases)

	path = strings.TrimSpace(path)
	if path == "" {
		return teams, leagues, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read alias file: %w", err)
	}

	var file AliasFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parse alias file: %w", err)
	}
	teams.Merge(file.Teams)
	leagues.Merge(file.Leagues)

	return teams, leagues, nil
}

var defaultTeamAliases = map[string][]string{
	"Manchester United":        {"Man United", "Man Utd", "Man U", "Manchester Utd"},
	"Manchester City":          {"Man City"},
	"Tottenham Hotspur":        {"Tottenham", "Spurs"},
	"Wolverhampton Wanderers":  {"Wolves", "Wolverhampton"},
	"Brighton & Hove Albion":   {"Brighton", "Brighton and Hove Albion"},
	"Nottingham Forest":        {"Nott'm Forest", "Nottingham", "Nottm Forest"},
	"Newcastle United":         {"Newcastle"},
	"West Ham United":          {"West Ham"},
	"West Bromwich Albion":     {"West Brom", "WBA"},
	"Sheffield Wednesday":      {"Sheff Wed", "Sheffield W"},
	"Sheffield United":         {"Sheff Utd", "Sheffield U"},
	"Queens Park Rangers":      {"QPR"},
	"Leicester City":           {"Leicester"},
	"Leeds United":             {"Leeds"},
	"Ipswich Town":             {"Ipswich"},
	"AFC Bournemouth":          {"Bournemouth"},
	"Paris Saint Germain":      {"PSG", "Paris SG"},
	"Inter":                    {"Internazionale", "Inter Milan"},
	"AC Milan":                 {"Milan"},
	"Bayern München":           {"Bayern Munich", "Bayern", "FC Bayern"},
	"Borussia Mönchengladbach": {"Gladbach", "B. Monchengladbach", "Borussia M'gladbach"},
	"Djurgårdens IF":           {"Djurgården", "Djurgarden"},
	"Malmö FF":                 {"Malmö", "Malmo"},
	"IFK Göteborg":             {"Göteborg", "Goteborg", "Gothenburg"},
	"Hammarby FF":              {"Hammarby"},
	"BK Häcken":                {"Häcken", "Hacken"},
	"AIK Stockholm":            {"AIK", "AIK Solna"},
}

var defaultLeagueAliases = map[string][]string{
	"Premier League": {"EPL", "English Premier League", "Premiership"},
	"Championship":   {"EFL Championship", "English Championship"},
	"League One":     {"EFL League One"},
	"League Two":     {"EFL League Two"},
	"Allsvenskan":    {"Swedish Allsvenskan"},
	"Superettan":     {"Swedish Superettan"},
	"La Liga":        {"LaLiga", "Primera Division"},
	"Serie A":        {"Italian Serie A"},
	"Bundesliga":     {"1. Bundesliga", "German Bundesliga"},
	"Ligue 1":        {"French Ligue 1"},
	"Eredivisie":     {"Dutch Eredivisie"},
}
