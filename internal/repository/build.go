package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/S1riyS/vaultfs/internal/tree"
	"github.com/S1riyS/vaultfs/pkg/database/postgresql"
	"github.com/S1riyS/vaultfs/pkg/logging"
	"github.com/S1riyS/vaultfs/pkg/logging/slogext"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// BuildRepository journals tree builds: one row per build and one per
// subtree that failed. Secret names below the failed path and secret values
// are never written.
type BuildRepository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, mountpoint string, report *tree.BuildReport) (uuid.UUID, error)
}

type buildRepository struct {
	db     postgresql.Client
	schema string
}

func NewBuildRepository(db postgresql.Client, schema string) BuildRepository {
	if schema == "" {
		schema = "public"
	}
	return &buildRepository{db: db, schema: schema}
}

func (r *buildRepository) EnsureSchema(ctx context.Context) error {
	const op = "repository.buildRepository.EnsureSchema"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pq.QuoteIdentifier(r.schema)),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id             UUID PRIMARY KEY,
				mountpoint     TEXT NOT NULL,
				started_at     TIMESTAMPTZ NOT NULL,
				finished_at    TIMESTAMPTZ NOT NULL,
				nodes          INTEGER NOT NULL,
				directories    INTEGER NOT NULL,
				secret_groups  INTEGER NOT NULL,
				secrets        INTEGER NOT NULL,
				partial_errors INTEGER NOT NULL,
				fatal          TEXT
			)`, r.table("builds")),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS fatal TEXT`, r.table("builds")),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				build_id UUID NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				path     TEXT NOT NULL,
				op       TEXT NOT NULL,
				error    TEXT NOT NULL,
				PRIMARY KEY (build_id, position)
			)`, r.table("build_errors"), r.table("builds")),
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			logger.Error("Failed to create journal schema", slogext.Err(err), slog.String("schema", r.schema))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (r *buildRepository) Save(ctx context.Context, mountpoint string, report *tree.BuildReport) (uuid.UUID, error) {
	const op = "repository.buildRepository.Save"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	id := uuid.New()

	buildQuery := fmt.Sprintf(`
		INSERT INTO %s (id, mountpoint, started_at, finished_at, nodes, directories, secret_groups, secrets, partial_errors, fatal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.table("builds"))

	errorQuery := fmt.Sprintf(`
		INSERT INTO %s (build_id, position, path, op, error)
		VALUES ($1, $2, $3, $4, $5)
	`, r.table("build_errors"))

	err := postgresql.WithTransaction(ctx, r.db, func(ctx context.Context) error {
		db := postgresql.GetDBClient(ctx, r.db)

		_, err := db.Exec(ctx, buildQuery,
			id,
			mountpoint,
			report.StartedAt,
			report.FinishedAt,
			report.Nodes,
			report.Stats.Directories,
			report.Stats.SecretGroups,
			report.Stats.Secrets,
			len(report.Errors),
			nullableText(report.Fatal),
		)
		if err != nil {
			return err
		}

		for i, e := range report.Errors {
			if _, err := db.Exec(ctx, errorQuery, id, i, e.Path, string(e.Op), e.Error); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		logger.Error("Failed to save build", slogext.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Debug("Build saved", slog.String("build_id", id.String()), slog.Int("errors", len(report.Errors)))
	return id, nil
}

// nullableText stores an empty string as NULL.
func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *buildRepository) table(name string) string {
	return pq.QuoteIdentifier(r.schema) + "." + pq.QuoteIdentifier(name)
}
