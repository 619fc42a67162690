package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/config"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/postgres"
)

const (
	tracedQueryMaxLength = 512
	dbPingTimeout        = 5 * time.Second
)

// openDB opens a traced postgres handle and verifies it with a ping.
func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := postgres.DSN(cfg.DBURL, cfg.DBDisablePreparedBinary)
	opts := []otelsql.Option{otelsql.WithQueryFormatter(traceQuery)}
	if name := postgres.DatabaseName(dsn); name != "" {
		opts = append(opts, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open("postgres", dsn, opts...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// traceQuery collapses whitespace so span attributes stay on one line.
func traceQuery(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if len(query) <= tracedQueryMaxLength {
		return query
	}
	return query[:tracedQueryMaxLength] + "..."
}
