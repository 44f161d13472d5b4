package postgres

import (
	"context"
	"database/sql"
	_ "embed"

	_ "github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Salmaelayeb/sentinel-hub/pkg/domain/interfaces"
	"github.com/Salmaelayeb/sentinel-hub/pkg/utils/safe"
)

//go:embed schema.sql
var schemaSQL string

type database struct {
	db *sql.DB
}

// New opens a Postgres-backed database and applies the schema. The schema is
// idempotent (CREATE TABLE IF NOT EXISTS), so startup is safe to repeat.
func New(ctx context.Context, dsn string) (interfaces.Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open postgres connection")
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}

	r := &database{db: db}
	if err := r.migrate(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *database) migrate(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin migration transaction")
	}
	defer safe.Rollback(tx)

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return goerr.Wrap(err, "failed to apply schema")
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit schema")
	}

	return nil
}
