package database

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// MigrationsFS returns the on-disk migrations at dir when set, otherwise fallback
func MigrationsFS(dir string, fallback fs.FS) fs.FS {
	if strings.TrimSpace(dir) == "" {
		return fallback
	}
	return os.DirFS(dir)
}

// RunMigrations executes the SQL files under the dialect's subdirectory of fsys
// that have not run yet, in filename order. It returns the files it applied.
func (db *DB) RunMigrations(fsys fs.FS) ([]string, error) {
	if err := db.createMigrationsTable(); err != nil {
		return nil, errors.Wrap(err, "failed to create migrations table")
	}

	dir := db.Dialect.MigrationsSubdir()
	files, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration files")
	}

	// Sort files to ensure they run in order
	sort.Strings(files)

	var applied []string
	for _, file := range files {
		filename := path.Base(file)

		hasRun, err := db.hasMigrationRun(filename)
		if err != nil {
			return applied, errors.Wrap(err, "failed to check migration status")
		}
		if hasRun {
			continue
		}

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return applied, errors.Wrapf(err, "failed to read migration file %s", filename)
		}

		if err := db.executeMigration(string(content)); err != nil {
			return applied, errors.Wrapf(err, "failed to execute migration %s", filename)
		}

		if err := db.recordMigration(filename); err != nil {
			return applied, errors.Wrapf(err, "failed to record migration %s", filename)
		}

		applied = append(applied, filename)
	}

	return applied, nil
}

func (db *DB) createMigrationsTable() error {
	_, err := db.Exec(db.Dialect.CreateMigrationsTableQuery())
	return err
}

func (db *DB) hasMigrationRun(filename string) (bool, error) {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM migrations WHERE filename = ?", filename); err != nil {
		return false, err
	}
	return count > 0, nil
}

// executeMigration runs each statement separately; not every driver accepts
// several statements in one Exec
func (db *DB) executeMigration(content string) error {
	for _, stmt := range splitStatements(content) {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) recordMigration(filename string) error {
	_, err := db.Exec("INSERT INTO migrations (filename) VALUES (?)", filename)
	return err
}

// splitStatements splits a migration on semicolons, dropping blank statements
// and full-line "--" comments. Migrations must not put semicolons inside literals.
func splitStatements(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var out []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
