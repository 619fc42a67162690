package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/unresolved"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/cache"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/id"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/textmatch"
)

type MatcherConfig struct {
	FuzzyThreshold          float64
	HighConfidenceThreshold float64
	UnscopedThreshold       float64
	CandidateLimit          int
	RosterTTL               time.Duration
}

func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		FuzzyThreshold:          80,
		HighConfidenceThreshold: 95,
		UnscopedThreshold:       85,
		CandidateLimit:          5,
		RosterTTL:               24 * time.Hour,
	}
}

func normalizeMatcherConfig(cfg MatcherConfig) MatcherConfig {
	defaults := DefaultMatcherConfig()
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = defaults.FuzzyThreshold
	}
	if cfg.HighConfidenceThreshold <= 0 {
		cfg.HighConfidenceThreshold = defaults.HighConfidenceThreshold
	}
	if cfg.UnscopedThreshold <= 0 {
		cfg.UnscopedThreshold = defaults.UnscopedThreshold
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = defaults.CandidateLimit
	}
	if cfg.RosterTTL <= 0 {
		cfg.RosterTTL = defaults.RosterTTL
	}
	return cfg
}

// TeamQuery describes an internal team. LeagueProviderID and Season scope the
// fuzzy search to a league roster when the league is already resolved.
type TeamQuery struct {
	InternalID       string
	Name             string
	LeagueProviderID int64
	Season           int
	Country          string
}

type LeagueQuery struct {
	InternalID string
	Name       string
	Country    string
}

type EntityMatcherDeps struct {
	Mappings      mapping.Repository
	Unresolved    unresolved.Repository
	Catalog       ProviderCatalog
	TeamAliases   *textmatch.AliasTable
	LeagueAliases *textmatch.AliasTable
	IDs           id.Generator
	Config        MatcherConfig
	Logger        *logging.Logger
}

// EntityMatcher resolves internal teams and leagues to provider ids. Every
// successful resolution is persisted, so each distinct entity is matched once.
type EntityMatcher struct {
	mappings      mapping.Repository
	unresolved    unresolved.Repository
	catalog       ProviderCatalog
	teamAliases   *textmatch.AliasTable
	leagueAliases *textmatch.AliasTable
	ids           id.Generator
	rosters       *cache.Store[[]matchCandidate]
	cfg           MatcherConfig
	logger        *logging.Logger
	similarity    func(a, b string) float64
	now           func() time.Time
}

func NewEntityMatcher(deps EntityMatcherDeps) *EntityMatcher {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	ids := deps.IDs
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	cfg := normalizeMatcherConfig(deps.Config)

	return &EntityMatcher{
		mappings:      deps.Mappings,
		unresolved:    deps.Unresolved,
		catalog:       deps.Catalog,
		teamAliases:   deps.TeamAliases,
		leagueAliases: deps.LeagueAliases,
		ids:           ids,
		rosters:       cache.NewStore[[]matchCandidate](cfg.RosterTTL),
		cfg:           cfg,
		logger:        logger,
		similarity:    textmatch.Score,
		now:           time.Now,
	}
}

type matchCandidate struct {
	providerID int64
	name       string
	normalized string
	country    string
}

type scoredCandidate struct {
	matchCandidate
	score float64
}

var errEmptyRoster = errors.New("empty roster")

func (m *EntityMatcher) MatchTeam(ctx context.Context, query TeamQuery) (*mapping.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityMatcher.MatchTeam")
	defer span.End()

	query.InternalID = strings.TrimSpace(query.InternalID)
	query.Name = strings.TrimSpace(query.Name)
	if query.InternalID == "" || query.Name == "" {
		return nil, fmt.Errorf("%w: team id and name are required", ErrInvalidInput)
	}

	existing, ok, err := m.mappings.Get(ctx, mapping.EntityTeam, query.InternalID)
	if err != nil {
		return nil, fmt.Errorf("get team mapping: %w", err)
	}
	if ok {
		return &existing, nil
	}

	normalized := textmatch.Normalize(query.Name)
	seen := make([]scoredCandidate, 0, 32)

	if query.LeagueProviderID > 0 && query.Season > 0 {
		roster, err := m.teamRoster(ctx, query.LeagueProviderID, query.Season)
		if err != nil {
			return nil, fmt.Errorf("load roster league=%d season=%d: %w", query.LeagueProviderID, query.Season, err)
		}
		if found := m.aliasMatch(m.teamAliases, normalized, roster); found != nil {
			return m.persist(ctx, mapping.EntityTeam, query.InternalID, *found, mapping.MethodExact, nil)
		}
		scored := m.scoreAll(normalized, roster)
		seen = append(seen, scored...)
		if best, ok := bestAbove(scored, m.cfg.FuzzyThreshold); ok {
			return m.persist(ctx, mapping.EntityTeam, query.InternalID, best.matchCandidate, mapping.MethodFuzzy, &best.score)
		}
	}

	term := textmatch.SearchTerm(m.teamAliases.Canonical(normalized))
	if term != "" {
		teams, err := m.catalog.SearchTeams(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("search teams term=%s: %w", term, err)
		}
		candidates := filterByCountry(teamCandidates(teams), query.Country)
		if found := m.aliasMatch(m.teamAliases, normalized, candidates); found != nil {
			return m.persist(ctx, mapping.EntityTeam, query.InternalID, *found, mapping.MethodExact, nil)
		}
		scored := m.scoreAll(normalized, candidates)
		seen = append(seen, scored...)
		if best, ok := bestAbove(scored, m.cfg.UnscopedThreshold); ok {
			return m.persist(ctx, mapping.EntityTeam, query.InternalID, best.matchCandidate, mapping.MethodFuzzy, &best.score)
		}
	}

	return nil, m.enqueueUnresolved(ctx, mapping.EntityTeam, query.InternalID, query.Name, map[string]string{
		"league_provider_id": formatOptionalID(query.LeagueProviderID),
		"season":             formatOptionalInt(query.Season),
		"country":            query.Country,
	}, seen)
}

func (m *EntityMatcher) MatchLeague(ctx context.Context, query LeagueQuery) (*mapping.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityMatcher.MatchLeague")
	defer span.End()

	query.InternalID = strings.TrimSpace(query.InternalID)
	query.Name = strings.TrimSpace(query.Name)
	query.Country = strings.TrimSpace(query.Country)
	if query.InternalID == "" || query.Name == "" {
		return nil, fmt.Errorf("%w: league id and name are required", ErrInvalidInput)
	}

	existing, ok, err := m.mappings.Get(ctx, mapping.EntityLeague, query.InternalID)
	if err != nil {
		return nil, fmt.Errorf("get league mapping: %w", err)
	}
	if ok {
		return &existing, nil
	}

	normalized := textmatch.Normalize(query.Name)
	seen := make([]scoredCandidate, 0, 32)

	if query.Country != "" {
		leagues, err := m.catalog.LeaguesByCountry(ctx, query.Country)
		if err != nil {
			return nil, fmt.Errorf("list leagues country=%s: %w", query.Country, err)
		}
		candidates := leagueCandidates(leagues)
		if found := m.aliasMatch(m.leagueAliases, normalized, candidates); found != nil {
			return m.persist(ctx, mapping.EntityLeague, query.InternalID, *found, mapping.MethodExact, nil)
		}
		scored := m.scoreAll(normalized, candidates)
		seen = append(seen, scored...)
		if best, ok := bestAbove(scored, m.cfg.FuzzyThreshold); ok {
			return m.persist(ctx, mapping.EntityLeague, query.InternalID, best.matchCandidate, mapping.MethodFuzzy, &best.score)
		}
	}

	if term := searchableName(m.leagueAliases.Canonical(normalized)); term != "" {
		leagues, err := m.catalog.SearchLeagues(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("search leagues term=%s: %w", term, err)
		}
		candidates := leagueCandidates(leagues)
		if found := m.aliasMatch(m.leagueAliases, normalized, candidates); found != nil {
			return m.persist(ctx, mapping.EntityLeague, query.InternalID, *found, mapping.MethodExact, nil)
		}
		scored := m.scoreAll(normalized, candidates)
		seen = append(seen, scored...)
		if best, ok := bestAbove(scored, m.cfg.UnscopedThreshold); ok {
			return m.persist(ctx, mapping.EntityLeague, query.InternalID, best.matchCandidate, mapping.MethodFuzzy, &best.score)
		}
	}

	return nil, m.enqueueUnresolved(ctx, mapping.EntityLeague, query.InternalID, query.Name, map[string]string{
		"country": query.Country,
	}, seen)
}

// OverrideTeam records a reviewer's decision and closes the review entry.
func (m *EntityMatcher) OverrideTeam(ctx context.Context, internalID string, providerID int64, providerName string) (mapping.Mapping, error) {
	return m.override(ctx, mapping.EntityTeam, internalID, providerID, providerName)
}

func (m *EntityMatcher) OverrideLeague(ctx context.Context, internalID string, providerID int64, providerName string) (mapping.Mapping, error) {
	return m.override(ctx, mapping.EntityLeague, internalID, providerID, providerName)
}

func (m *EntityMatcher) override(ctx context.Context, entityType mapping.EntityType, internalID string, providerID int64, providerName string) (mapping.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityMatcher.Override")
	defer span.End()

	now := m.now().UTC()
	item := mapping.Mapping{
		EntityType:   entityType,
		InternalID:   strings.TrimSpace(internalID),
		ProviderID:   providerID,
		ProviderName: strings.TrimSpace(providerName),
		Confidence:   mapping.ConfidenceHigh,
		Method:       mapping.MethodManual,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := item.Validate(); err != nil {
		return mapping.Mapping{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := m.mappings.Override(ctx, item); err != nil {
		return mapping.Mapping{}, fmt.Errorf("override %s mapping: %w", entityType, err)
	}
	m.closeUnresolved(ctx, entityType, item.InternalID, now)

	m.logger.InfoContext(ctx, "mapping overridden",
		"entity_type", entityType,
		"internal_id", item.InternalID,
		"provider_id", providerID,
	)
	return item, nil
}

func (m *EntityMatcher) teamRoster(ctx context.Context, leagueID int64, season int) ([]matchCandidate, error) {
	key := "roster:" + strconv.FormatInt(leagueID, 10) + ":" + strconv.Itoa(season)
	roster, err := m.rosters.GetOrLoad(ctx, key, func(ctx context.Context) ([]matchCandidate, error) {
		teams, err := m.catalog.TeamsByLeague(ctx, leagueID, season)
		if err != nil {
			return nil, err
		}
		if len(teams) == 0 {
			return nil, errEmptyRoster
		}
		return teamCandidates(teams), nil
	})
	if errors.Is(err, errEmptyRoster) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return roster, nil
}

// aliasMatch finds a candidate equal to name by normalized text or alias
// group. It never computes a similarity score.
func (m *EntityMatcher) aliasMatch(aliases *textmatch.AliasTable, normalized string, candidates []matchCandidate) *matchCandidate {
	var found *matchCandidate
	for i := range candidates {
		if !aliases.Equivalent(normalized, candidates[i].normalized) {
			continue
		}
		if found != nil && found.providerID != candidates[i].providerID {
			// Two different entities share the name; leave it to fuzzy scoring.
			return nil
		}
		found = &candidates[i]
	}
	return found
}

func (m *EntityMatcher) scoreAll(normalized string, candidates []matchCandidate) []scoredCandidate {
	out := make([]scoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, scoredCandidate{
			matchCandidate: candidate,
			score:          m.similarity(normalized, candidate.normalized),
		})
	}
	sortScored(out)
	return out
}

func (m *EntityMatcher) persist(ctx context.Context, entityType mapping.EntityType, internalID string, candidate matchCandidate, method mapping.Method, score *float64) (*mapping.Mapping, error) {
	now := m.now().UTC()
	item := mapping.Mapping{
		EntityType:   entityType,
		InternalID:   internalID,
		ProviderID:   candidate.providerID,
		ProviderName: candidate.name,
		Confidence:   mapping.ConfidenceHigh,
		Method:       method,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if score != nil {
		rounded := roundScore(*score)
		item.Similarity = &rounded
		item.Confidence = mapping.ConfidenceForSimilarity(*score, m.cfg.HighConfidenceThreshold)
	}

	if err := m.mappings.Insert(ctx, item); err != nil {
		return nil, fmt.Errorf("persist %s mapping internal_id=%s: %w", entityType, internalID, err)
	}
	m.closeUnresolved(ctx, entityType, internalID, now)

	m.logger.InfoContext(ctx, "entity resolved",
		"entity_type", entityType,
		"internal_id", internalID,
		"provider_id", item.ProviderID,
		"method", item.Method,
		"confidence", item.Confidence,
	)
	return &item, nil
}

func (m *EntityMatcher) enqueueUnresolved(ctx context.Context, entityType mapping.EntityType, internalID, name string, details map[string]string, seen []scoredCandidate) error {
	sortScored(seen)
	candidates := make([]unresolved.Candidate, 0, m.cfg.CandidateLimit)
	picked := make(map[int64]struct{}, m.cfg.CandidateLimit)
	for _, item := range seen {
		if len(candidates) >= m.cfg.CandidateLimit {
			break
		}
		if _, dup := picked[item.providerID]; dup {
			continue
		}
		picked[item.providerID] = struct{}{}
		candidates = append(candidates, unresolved.Candidate{
			ProviderID: item.providerID,
			Name:       item.name,
			Similarity: roundScore(item.score),
		})
	}

	for key, value := range details {
		if strings.TrimSpace(value) == "" {
			delete(details, key)
		}
	}

	entityID, err := m.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate unresolved id: %w", err)
	}
	now := m.now().UTC()
	err = m.unresolved.Record(ctx, unresolved.Entity{
		ID:           entityID,
		EntityType:   entityType,
		InternalID:   internalID,
		Name:         name,
		Context:      details,
		Candidates:   candidates,
		AttemptCount: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("record unresolved %s internal_id=%s: %w", entityType, internalID, err)
	}

	m.logger.WarnContext(ctx, "entity unresolved",
		"entity_type", entityType,
		"internal_id", internalID,
		"name", name,
		"candidates", len(candidates),
	)
	return nil
}

func (m *EntityMatcher) closeUnresolved(ctx context.Context, entityType mapping.EntityType, internalID string, at time.Time) {
	if m.unresolved == nil {
		return
	}
	if err := m.unresolved.Resolve(ctx, entityType, internalID, at); err != nil {
		m.logger.WarnContext(ctx, "close unresolved entry failed", "entity_type", entityType, "internal_id", internalID, "error", err)
	}
}

func teamCandidates(teams []ExternalTeam) []matchCandidate {
	out := make([]matchCandidate, 0, len(teams))
	for _, item := range teams {
		if item.ID <= 0 || item.Name == "" {
			continue
		}
		out = append(out, matchCandidate{
			providerID: item.ID,
			name:       item.Name,
			normalized: textmatch.Normalize(item.Name),
			country:    item.Country,
		})
	}
	return out
}

func leagueCandidates(leagues []ExternalLeague) []matchCandidate {
	out := make([]matchCandidate, 0, len(leagues))
	for _, item := range leagues {
		if item.ID <= 0 || item.Name == "" {
			continue
		}
		out = append(out, matchCandidate{
			providerID: item.ID,
			name:       item.Name,
			normalized: textmatch.Normalize(item.Name),
			country:    item.Country,
		})
	}
	return out
}

func filterByCountry(candidates []matchCandidate, country string) []matchCandidate {
	country = textmatch.Normalize(country)
	if country == "" {
		return candidates
	}
	out := candidates[:0:0]
	for _, item := range candidates {
		if item.country == "" || textmatch.Normalize(item.country) == country {
			out = append(out, item)
		}
	}
	return out
}

func bestAbove(scored []scoredCandidate, threshold float64) (scoredCandidate, bool) {
	if len(scored) == 0 || scored[0].score < threshold {
		return scoredCandidate{}, false
	}
	return scored[0], true
}

func sortScored(items []scoredCandidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].providerID < items[j].providerID
	})
}

// searchableName keeps the whole normalized name when it is long enough for
// provider search, otherwise falls back to its longest significant word.
func searchableName(normalized string) string {
	if len([]rune(normalized)) >= 3 {
		return normalized
	}
	return textmatch.SearchTerm(normalized)
}

func roundScore(value float64) float64 {
	return float64(int(value*100+0.5)) / 100
}

func formatOptionalID(value int64) string {
	if value <= 0 {
		return ""
	}
	return strconv.FormatInt(value, 10)
}

func formatOptionalInt(value int) string {
	if value <= 0 {
		return ""
	}
	return strconv.Itoa(value)
}
