package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/schema/*.sql
var schemaFiles embed.FS

// migrate applies the schema files newer than the recorded version. Files
// are named "<version>_<description>.sql".
func migrate(db *sql.DB) error {
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("failed to create version table: %w", err)
	}
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}

	entries, err := schemaFiles.ReadDir("sql/schema")
	if err != nil {
		return fmt.Errorf("failed to read schema directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		prefix, _, ok := strings.Cut(file, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return fmt.Errorf("invalid migration filename %s: %w", file, err)
		}
		if version <= current {
			continue
		}
		content, err := schemaFiles.ReadFile(path.Join("sql/schema", file))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := applyMigration(db, version, string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, version int, content string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

func schemaVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}
