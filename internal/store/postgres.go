package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dealhawk/deals-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store depends on, kept narrow so
// tests can substitute a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot store operations.
var preparedStatements = map[string]string{
	"insert_opportunity": `INSERT INTO opportunities (id, url, opportunity, alerted, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"list_opportunities": `SELECT id, opportunity, alerted, created_at FROM opportunities ORDER BY created_at DESC`,
	"load_memory":        `SELECT opportunity FROM opportunities ORDER BY created_at ASC`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS opportunities (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	url         TEXT NOT NULL,
	opportunity JSONB NOT NULL,
	alerted     BOOLEAN NOT NULL DEFAULT false,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_opportunities_url ON opportunities(url);
CREATE INDEX IF NOT EXISTS idx_opportunities_created_at ON opportunities(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveOpportunity(ctx context.Context, opp model.Opportunity, alerted bool) (*model.OpportunityRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	oppJSON, err := json.Marshal(opp)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal opportunity")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO opportunities (id, url, opportunity, alerted, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, opp.Deal.URL, oppJSON, alerted, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert opportunity")
	}

	return &model.OpportunityRecord{
		ID:          id,
		Opportunity: opp,
		Alerted:     alerted,
		CreatedAt:   now,
	}, nil
}

func (s *PostgresStore) ListOpportunities(ctx context.Context, limit int) ([]model.OpportunityRecord, error) {
	query := `SELECT id, opportunity, alerted, created_at FROM opportunities ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list opportunities")
	}
	defer rows.Close()

	var records []model.OpportunityRecord
	for rows.Next() {
		var rec model.OpportunityRecord
		var oppJSON []byte
		if err := rows.Scan(&rec.ID, &oppJSON, &rec.Alerted, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan opportunity")
		}
		if err := json.Unmarshal(oppJSON, &rec.Opportunity); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal opportunity %s", rec.ID)
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate opportunities")
}

func (s *PostgresStore) Memory(ctx context.Context) ([]model.Opportunity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT opportunity FROM opportunities ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load memory")
	}
	defer rows.Close()

	var memory []model.Opportunity
	for rows.Next() {
		var oppJSON []byte
		if err := rows.Scan(&oppJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan memory row")
		}
		var opp model.Opportunity
		if err := json.Unmarshal(oppJSON, &opp); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal memory row")
		}
		memory = append(memory, opp)
	}
	return memory, eris.Wrap(rows.Err(), "postgres: iterate memory")
}
