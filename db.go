// db.go
//
// Database helpers for the Hex Gem server.
// Responsibilities:
//   - Opening SQLite with WAL, a busy timeout and foreign keys on.
//   - Applying *.sql migrations from an fs.FS (the embedded assets by default),
//     once each, recorded in _migrations.

package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// openDB opens (and creates if missing) a SQLite database file.
func openDB(dsn string) (*sql.DB, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dsn, err)
	}
	return db, nil
}

// migrate applies every *.sql file at the root of fsys in lexical order.
// Files already listed in _migrations are skipped. Scripts that open their own
// transaction or toggle foreign keys run outside the per-file transaction.
func migrate(db *sql.DB, fsys fs.FS) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return 0, fmt.Errorf("create _migrations: %w", err)
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		var one int
		switch err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, name).Scan(&one); {
		case err == nil:
			log.Debug().Str("migration", name).Msg("already applied")
			continue
		case err != sql.ErrNoRows:
			return applied, fmt.Errorf("query _migrations: %w", err)
		}

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", name, err)
		}
		if err := applyMigration(db, name, string(body)); err != nil {
			return applied, err
		}
		applied++
		log.Info().Str("migration", name).Msg("applied")
	}
	return applied, nil
}

func applyMigration(db *sql.DB, name, text string) error {
	upper := strings.ToUpper(text)
	if strings.Contains(upper, "BEGIN TRANSACTION") || strings.Contains(upper, "PRAGMA FOREIGN_KEYS") {
		if _, err := db.Exec(text); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		_, err := db.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name)
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(text); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}
	return tx.Commit()
}
