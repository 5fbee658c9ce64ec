package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
)

// Migrate runs every *.sql file in fsys in lexical order. Statements must be
// idempotent; there is no version table.
func Migrate(ctx context.Context, db DB, fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)
	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
