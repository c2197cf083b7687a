package catalogcache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"ecomigrate/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion changes with schema.sql. A cache on any other version holds
// nothing that cannot be parsed again, so it is dropped and rebuilt.
const schemaVersion = 2

// cacheTables lists every table schema.sql creates, children first.
var cacheTables = []string{"datasets", "flows", "snapshots", "schema_version"}

func (s *Store) initSchema(ctx context.Context) error {
	found, err := s.storedSchemaVersion(ctx)
	switch {
	case err != nil:
		return err
	case found == schemaVersion:
		return nil
	case found != 0:
		s.logger.Info("rebuilding catalog cache for a new layout",
			logging.Int("found_version", found),
			logging.Int("schema_version", schemaVersion),
			logging.String(logging.FieldPath, s.path),
		)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range cacheTables {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// storedSchemaVersion returns 0 for a database without the version table.
func (s *Store) storedSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == nil:
		return version, nil
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	}
	var n int
	if probe := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&n); probe != nil {
		return 0, fmt.Errorf("check schema_version table: %w", probe)
	}
	if n == 0 {
		return 0, nil
	}
	return 0, fmt.Errorf("read schema version: %w", err)
}
