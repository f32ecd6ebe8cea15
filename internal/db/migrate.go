package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

type migration struct {
	name string
	stmt []byte
}

// RunMigrations applies the schema migrations in filename order. When dir is
// set and exists, its .sql files are used (deployments can patch the schema
// without rebuilding); otherwise the migrations compiled into the binary run.
func RunMigrations(conn *sql.DB, dir string) error {
	migrations, err := loadMigrations(dir)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if len(m.stmt) == 0 {
			continue
		}
		if _, err := conn.Exec(string(m.stmt)); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}
	return nil
}

func loadMigrations(dir string) ([]migration, error) {
	if dir != "" {
		migrations, err := readMigrationDir(dir)
		if err == nil {
			return migrations, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	entries, err := embeddedMigrations.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}
	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		stmt, err := embeddedMigrations.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("embedded migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, migration{name: entry.Name(), stmt: stmt})
	}
	sortMigrations(migrations)
	return migrations, nil
}

func readMigrationDir(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		stmt, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, migration{name: entry.Name(), stmt: stmt})
	}
	sortMigrations(migrations)
	return migrations, nil
}

func sortMigrations(ms []migration) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].name < ms[j].name })
}
