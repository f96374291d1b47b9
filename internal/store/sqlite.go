package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dealhawk/deals-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS opportunities (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	opportunity TEXT NOT NULL,
	alerted     INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_opportunities_url ON opportunities(url);
CREATE INDEX IF NOT EXISTS idx_opportunities_created_at ON opportunities(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveOpportunity(ctx context.Context, opp model.Opportunity, alerted bool) (*model.OpportunityRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	oppJSON, err := json.Marshal(opp)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal opportunity")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO opportunities (id, url, opportunity, alerted, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, opp.Deal.URL, string(oppJSON), alerted, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert opportunity")
	}

	return &model.OpportunityRecord{
		ID:          id,
		Opportunity: opp,
		Alerted:     alerted,
		CreatedAt:   now,
	}, nil
}

func (s *SQLiteStore) ListOpportunities(ctx context.Context, limit int) ([]model.OpportunityRecord, error) {
	query := `SELECT id, opportunity, alerted, created_at FROM opportunities ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close()

	var records []model.OpportunityRecord
	for rows.Next() {
		var rec model.OpportunityRecord
		var oppJSON string
		if err := rows.Scan(&rec.ID, &oppJSON, &rec.Alerted, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan opportunity")
		}
		if err := json.Unmarshal([]byte(oppJSON), &rec.Opportunity); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal opportunity %s", rec.ID)
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate opportunities")
}

func (s *SQLiteStore) Memory(ctx context.Context) ([]model.Opportunity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT opportunity FROM opportunities ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load memory")
	}
	defer rows.Close()

	var memory []model.Opportunity
	for rows.Next() {
		var oppJSON string
		if err := rows.Scan(&oppJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan memory row")
		}
		var opp model.Opportunity
		if err := json.Unmarshal([]byte(oppJSON), &opp); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal memory row")
		}
		memory = append(memory, opp)
	}
	return memory, eris.Wrap(rows.Err(), "sqlite: iterate memory")
}
