package settings

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT NOT NULL)`

// SQLite is a Store backed by a single 'settings' table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the sqlite database at dsn.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening settings database (%w)", err)
	}

	// ':memory:' databases are per-connection
	db.SetMaxOpenConns(1)

	s, err := NewSQLite(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// NewSQLite wraps an already open database and ensures the settings table exists.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("error creating settings table (%w)", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(key string) (string, error) {
	query, args, err := sq.Select("value").From("settings").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", err
	}

	var value string
	if err := s.db.QueryRow(query, args...).Scan(&value); errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	} else if err != nil {
		return "", err
	}

	return value, nil
}

func (s *SQLite) Set(key, value string) error {
	query, args, err := sq.Insert("settings").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("error storing setting '%s' (%w)", key, err)
	}

	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
