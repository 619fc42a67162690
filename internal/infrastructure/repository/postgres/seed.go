package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/memory"
	qb "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/querybuilder"
)

var seedColumns = []string{
	"id", "competition_id", "home_team_id", "away_team_id", "home_team_name", "away_team_name",
	"league_id", "league_name", "country", "kickoff_at", "status",
}

// BootstrapSeed loads the local coupon round when the matches table is empty.
// A populated table is left alone.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, now time.Time) error {
	var existing bool
	if err := db.GetContext(ctx, &existing, `SELECT EXISTS (SELECT 1 FROM matches)`); err != nil {
		return fmt.Errorf("check matches for bootstrap seed: %w", err)
	}
	if existing {
		return nil
	}

	query, args, err := seedInsert(memory.SeedMatches(now))
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert seed matches: %w", err)
	}
	// Explicit ids leave the sequence behind.
	if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('matches', 'id'), (SELECT MAX(id) FROM matches))`); err != nil {
		return fmt.Errorf("advance matches sequence: %w", err)
	}
	return tx.Commit()
}

func seedInsert(items []match.Match) (string, []any, error) {
	insert := qb.InsertInto("matches").Columns(seedColumns...).Suffix("ON CONFLICT (id) DO NOTHING")
	for _, m := range items {
		insert.Values(
			m.ID, m.CompetitionID, m.HomeTeamID, m.AwayTeamID, m.HomeTeamName, m.AwayTeamName,
			m.LeagueID, m.LeagueName, m.Country, m.KickoffAt.UTC(), m.Status,
		)
	}
	query, args, err := insert.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build seed insert: %w", err)
	}
	return query, args, nil
}
