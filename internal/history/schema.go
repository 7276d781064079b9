package history

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrSchemaMismatch reports a history database written by a newer anistrm.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// migrations returns the embedded schema steps in apply order. A database's
// PRAGMA user_version is the number of steps already applied to it.
func migrations() ([]string, error) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	steps := make([]string, 0, len(names))
	for _, name := range names {
		body, err := migrationFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		steps = append(steps, string(body))
	}
	return steps, nil
}

// initSchema brings the database up to the newest schema. Existing run and
// file rows are kept across upgrades.
func (s *Store) initSchema(ctx context.Context) error {
	steps, err := migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	var applied int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&applied); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case applied == len(steps):
		return nil
	case applied > len(steps):
		return fmt.Errorf("%w: database has version %d, this build knows %d (upgrade anistrm or move the file aside)",
			ErrSchemaMismatch, applied, len(steps))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := applied; i < len(steps); i++ {
		if _, err := tx.ExecContext(ctx, steps[i]); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", len(steps))); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}
