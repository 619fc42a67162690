package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	qb "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/querybuilder"
)

// terminalStatuses mirrors match.IsTerminalStatus for SQL filters.
var terminalStatuses = []any{
	match.StatusFinished,
	match.StatusPostponed,
	match.StatusCancelled,
	match.StatusAbandoned,
	match.StatusAwarded,
	match.StatusWalkover,
}

const awaitingResultExpr = "(outcome IS NULL AND status NOT IN ('FINISHED', 'POSTPONED', 'CANCELLED', 'ABANDONED', 'AWARDED', 'WALKOVER'))"

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID int64) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(qb.Eq("id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match id=%d: %w", matchID, err)
	}
	return matchFromRow(row), true, nil
}

func (r *MatchRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]match.Match, error) {
	return r.list(ctx, "list upcoming matches",
		qb.Gte("kickoff_at", from.UTC()),
		qb.Lt("kickoff_at", to.UTC()),
		qb.Expr("status NOT IN (?, ?, ?, ?, ?, ?)", terminalStatuses...),
	)
}

func (r *MatchRepository) ListCompetitionsAwaitingResults(ctx context.Context, lastKickoffBefore time.Time) ([]int64, error) {
	query, args, err := qb.Select("competition_id").
		From("matches").
		GroupBy("competition_id").
		Having(
			qb.Expr("MAX(kickoff_at) < ?", lastKickoffBefore.UTC()),
			qb.Expr("COUNT(1) FILTER (WHERE "+awaitingResultExpr+") > 0"),
		).
		OrderBy("competition_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build competitions awaiting results query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list competitions awaiting results: %w", err)
	}
	return ids, nil
}

func (r *MatchRepository) ListMissingResults(ctx context.Context, competitionID int64) ([]match.Match, error) {
	return r.list(ctx, "list matches missing results",
		qb.Eq("competition_id", competitionID),
		qb.Expr(awaitingResultExpr),
	)
}

func (r *MatchRepository) ListWithResults(ctx context.Context, competitionID int64) ([]match.Match, error) {
	return r.list(ctx, "list matches with results",
		qb.Eq("competition_id", competitionID),
		qb.Expr("outcome IS NOT NULL AND home_score IS NOT NULL AND away_score IS NOT NULL"),
	)
}

func (r *MatchRepository) UpdateProviderRefs(ctx context.Context, matchID int64, refs match.ProviderRefs) error {
	query, args, err := qb.Update("matches").
		Set("provider_fixture_id", nullInt64(refs.FixtureID)).
		Set("provider_league_id", nullInt64(refs.LeagueID)).
		Set("provider_season", nullInt64(int64(refs.Season))).
		Set("provider_home_team_id", nullInt64(refs.HomeTeamID)).
		Set("provider_away_team_id", nullInt64(refs.AwayTeamID)).
		Set("mapping_confidence", optionalString(refs.MappingConfidence)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update provider refs query: %w", err)
	}
	return r.exec(ctx, query, args, "update provider refs", matchID)
}

func (r *MatchRepository) UpdateResult(ctx context.Context, matchID int64, result match.Result) error {
	query, args, err := qb.Update("matches").
		Set("home_score", result.HomeScore).
		Set("away_score", result.AwayScore).
		Set("outcome", string(result.Outcome)).
		Set("result_source", result.Source).
		Set("status", match.StatusFinished).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update result query: %w", err)
	}
	return r.exec(ctx, query, args, "update result", matchID)
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, matchID int64, status string) error {
	query, args, err := qb.Update("matches").
		Set("status", match.NormalizeStatus(status)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update status query: %w", err)
	}
	return r.exec(ctx, query, args, "update status", matchID)
}

func (r *MatchRepository) CountWithFixture(ctx context.Context) (int, error) {
	query, args, err := qb.Select("COUNT(1)").
		From("matches").
		Where(qb.Expr("provider_fixture_id IS NOT NULL")).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count matches with fixture query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count matches with fixture: %w", err)
	}
	return count, nil
}

func (r *MatchRepository) list(ctx context.Context, op string, conditions ...qb.Condition) ([]match.Match, error) {
	query, args, err := qb.Select(matchColumns...).
		From("matches").
		Where(conditions...).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) exec(ctx context.Context, query string, args []any, op string, matchID int64) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s match_id=%d: %w", op, matchID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%s match_id=%d: no such match", op, matchID)
	}
	return nil
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:            row.ID,
		CompetitionID: row.CompetitionID,
		HomeTeamID:    row.HomeTeamID,
		AwayTeamID:    row.AwayTeamID,
		HomeTeamName:  row.HomeTeamName,
		AwayTeamName:  row.AwayTeamName,
		LeagueID:      row.LeagueID,
		LeagueName:    row.LeagueName,
		Country:       row.Country,
		KickoffAt:     row.KickoffAt,
		Status:        match.NormalizeStatus(row.Status),
		HomeScore:     nullIntPtr(row.HomeScore),
		AwayScore:     nullIntPtr(row.AwayScore),
		Outcome:       match.Outcome(row.Outcome.String),
		ResultSource:  row.ResultSource.String,
		Refs: match.ProviderRefs{
			FixtureID:         row.ProviderFixtureID.Int64,
			LeagueID:          row.ProviderLeagueID.Int64,
			Season:            int(row.ProviderSeason.Int64),
			HomeTeamID:        row.ProviderHomeTeamID.Int64,
			AwayTeamID:        row.ProviderAwayTeamID.Int64,
			MappingConfidence: row.MappingConfidence.String,
		},
	}
}
