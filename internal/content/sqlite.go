package content

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const packSchema = `
CREATE TABLE IF NOT EXISTS blocks (
  id     TEXT NOT NULL,
  kind   TEXT NOT NULL,
  name   TEXT NOT NULL,
  level  INTEGER NOT NULL DEFAULT 0,
  school TEXT NOT NULL DEFAULT '',
  class  TEXT NOT NULL DEFAULT '',
  text   TEXT NOT NULL,
  PRIMARY KEY (kind, id)
);`

func openPackDB(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("content pack path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open content pack: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping content pack: %w", err)
	}
	return db, nil
}

// LoadPack layers a SQLite content pack over the registry. Pack entries
// replace builtin blocks with the same kind and id.
func (r *Registry) LoadPack(path string) error {
	db, err := openPackDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT id, kind, name, level, school, class, text FROM blocks`)
	if err != nil {
		return fmt.Errorf("read content pack: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var b Block
		var kind string
		if err := rows.Scan(&b.ID, &kind, &b.Name, &b.Level, &b.School, &b.Class, &b.Text); err != nil {
			return fmt.Errorf("scan content pack row: %w", err)
		}
		b.Kind = Kind(kind)
		if err := r.Put(b); err != nil {
			return fmt.Errorf("register pack block %s: %w", b.Name, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate content pack: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("content pack %s contains no blocks", path)
	}
	return nil
}

// WritePack creates (or replaces the contents of) a SQLite content pack
// from the given blocks.
func WritePack(path string, blocks []Block) error {
	db, err := openPackDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(packSchema); err != nil {
		return fmt.Errorf("create pack schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin pack transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO blocks (id, kind, name, level, school, class, text)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare pack insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range blocks {
		if !validKinds[b.Kind] {
			return fmt.Errorf("invalid content kind %q for %q", b.Kind, b.Name)
		}
		id := b.ID
		if id == "" {
			id = Slugify(b.Name)
		}
		if id == "" {
			return fmt.Errorf("content block %q has no usable id", b.Name)
		}
		if _, err := stmt.Exec(id, string(b.Kind), b.Name, b.Level, b.School, b.Class, b.Text); err != nil {
			return fmt.Errorf("insert block %s: %w", b.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pack: %w", err)
	}
	return nil
}
