// Package storage is the durable client storage behind the schedule store:
// a small named-record table in a local SQLite database. Records are
// opaque JSON bodies; interpretation (and corruption recovery) belongs to
// the caller.
package storage

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const dbFileName = "dayflow.db"

// DB is a named-record store on a single SQLite file.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the record database under dataDir.
func Open(dataDir string) (*DB, error) {
	if dataDir == "" {
		return nil, errors.New("data dir is empty")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}

	db, err := sql.Open("sqlite", sqliteDSN(filepath.Join(dataDir, dbFileName)))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &DB{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *DB) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS records (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

// Get returns the body of the named record. ok is false when absent.
func (s *DB) Get(name string) ([]byte, bool, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM records WHERE name = ?;`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(body), true, nil
}

// Put writes (inserting or replacing) the named record.
func (s *DB) Put(name string, body []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO records (name, body) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body;`,
		name, string(body))
	return err
}

// Delete removes the named record. Deleting an absent record is not an
// error.
func (s *DB) Delete(name string) error {
	_, err := s.db.Exec(`DELETE FROM records WHERE name = ?;`, name)
	return err
}

// sqliteDSN builds a file: DSN for modernc.org/sqlite. mode=rwc creates
// the database file if it doesn't exist.
func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
