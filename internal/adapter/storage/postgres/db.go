package postgres

import (
	"context"
	"fmt"

	"gambling-bot/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Pool is the subset of *pgxpool.Pool the repositories use. pgxmock pools satisfy it too.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewPool creates a PostgreSQL connection pool using pgx.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("dbname", cfg.DBName).
		Int32("max_conns", cfg.MaxConns).
		Msg("PostgreSQL connection pool established")

	return pool, nil
}

// schema creates every table the bot uses. Balances carry no foreign key to
// currencies so a wallet may keep entries for unregistered currencies.
const schema = `
CREATE TABLE IF NOT EXISTS ledger_meta (
	id       SMALLINT PRIMARY KEY,
	saved_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS currencies (
	position INTEGER NOT NULL,
	id       TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS users (
	user_id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS balances (
	user_id  TEXT   NOT NULL,
	currency TEXT   NOT NULL,
	balance  BIGINT NOT NULL,
	PRIMARY KEY (user_id, currency)
);
CREATE TABLE IF NOT EXISTS withdrawals (
	user_id  TEXT    NOT NULL,
	seq      INTEGER NOT NULL,
	amount   BIGINT  NOT NULL CHECK (amount > 0),
	currency TEXT    NOT NULL,
	PRIMARY KEY (user_id, seq)
);
CREATE TABLE IF NOT EXISTS audit_logs (
	id         UUID PRIMARY KEY,
	actor_id   TEXT        NOT NULL,
	target_id  TEXT,
	action     TEXT        NOT NULL,
	currency   TEXT,
	amount     BIGINT      NOT NULL,
	balance    BIGINT,
	guild_id   TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_logs_target ON audit_logs (target_id, created_at);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
