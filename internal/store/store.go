// Package store keeps published dictionary versions in SQLite. Each row
// holds the YAML source and the compressed snapshot of one version, so a
// version can be reloaded without recomputing its relations.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/ieml/internal/dictionary"
)

var (
	ErrNotFound      = errors.New("dictionary version not found")
	ErrVersionExists = errors.New("dictionary version already stored")
)

// Record describes one stored version.
type Record struct {
	Name        string
	PublishedAt time.Time
	Terms       int
	Size        int
	CreatedAt   time.Time
}

// Store is a dictionary version store.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Open opens the SQLite database at path and applies pending migrations.
func Open(path string, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	logger = logger.Named("store")
	logger.Debugw("opening database", "path", path)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// Every connection to :memory: is a distinct database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []struct {
		stmt string
		what string
	}{
		{"PRAGMA journal_mode = WAL", "enable WAL mode"},
		{"PRAGMA foreign_keys = ON", "enable foreign keys"},
		{"PRAGMA busy_timeout = 5000", "set busy timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, p.what)
		}
	}

	if err := Migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Infow("database opened", "path", path, "wal_mode", true)
	return New(db, logger), nil
}

// New wraps an open, migrated database.
func New(db *sql.DB, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{db: db, logger: logger}
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save stores a version. Saving a name twice fails with ErrVersionExists.
func (s *Store) Save(ctx context.Context, v *dictionary.Version) error {
	snap, err := v.Dictionary.Snapshot(v.Name())
	if err != nil {
		return err
	}
	var blob bytes.Buffer
	if err := snap.Encode(&blob); err != nil {
		return err
	}
	source, err := yaml.Marshal(v.Source)
	if err != nil {
		return errors.Wrap(err, "marshal source")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dictionary_versions (name, published_at, terms, source, snapshot) VALUES (?, ?, ?, ?, ?)`,
		v.Name(), v.Date.UTC().Format(time.RFC3339), v.Dictionary.Len(), source, blob.Bytes())
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
			return errors.Wrap(ErrVersionExists, v.Name())
		}
		return errors.Wrapf(err, "insert version %s", v.Name())
	}

	s.logger.Infow("version stored", "version", v.Name(), "terms", v.Dictionary.Len(), "bytes", blob.Len())
	return nil
}

// Load restores a stored version by name.
func (s *Store) Load(ctx context.Context, name string) (*dictionary.Version, error) {
	date, err := dictionary.ParseVersionName(name)
	if err != nil {
		return nil, err
	}

	var source, blob []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT source, snapshot FROM dictionary_versions WHERE name = ?`,
		dictionary.FormatVersionName(date)).Scan(&source, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query version %s", name)
	}

	src, err := dictionary.ParseSource(source)
	if err != nil {
		return nil, err
	}
	snap, err := dictionary.DecodeSnapshot(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	d, err := dictionary.Load(snap, s.logger)
	if err != nil {
		return nil, err
	}
	return &dictionary.Version{Date: date, Source: src, Dictionary: d}, nil
}

// Latest restores the most recent version.
func (s *Store) Latest(ctx context.Context) (*dictionary.Version, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM dictionary_versions ORDER BY published_at DESC LIMIT 1`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query latest version")
	}
	return s.Load(ctx, name)
}

// List returns the stored versions, oldest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, published_at, terms, length(snapshot), created_at FROM dictionary_versions ORDER BY published_at`)
	if err != nil {
		return nil, errors.Wrap(err, "query versions")
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var r Record
		var published string
		var created sql.NullTime
		if err := rows.Scan(&r.Name, &published, &r.Terms, &r.Size, &created); err != nil {
			return nil, errors.Wrap(err, "scan version")
		}
		if r.PublishedAt, err = time.Parse(time.RFC3339, published); err != nil {
			return nil, errors.Wrapf(err, "published_at of %s", r.Name)
		}
		r.CreatedAt = created.Time
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "iterate versions")
}
