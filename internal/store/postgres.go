package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresClient is a read-only reader against the relational mirror of
// model sets, used by the scheduled auditor to enumerate which model sets to
// re-check. It never reads or writes model content directly — only IDs — the
// content still flows through Client against the workflow-definition
// service, which owns writes.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient opens a connection pool against the given Postgres DSN.
// The connection is established lazily by database/sql; call Ping to verify
// connectivity eagerly.
func NewPostgresClient(dsn string) (*PostgresClient, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	return &PostgresClient{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *PostgresClient) Close() error {
	return p.db.Close()
}

// Ping verifies the database is reachable.
func (p *PostgresClient) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging postgres: %w", err)
	}
	return nil
}

// ListModelSetIDs returns every model set ID known to the relational mirror,
// ordered by ID for deterministic audit runs.
func (p *PostgresClient) ListModelSetIDs(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id FROM workflow_model_sets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing model set ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning model set id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating model set ids: %w", err)
	}
	return ids, nil
}
