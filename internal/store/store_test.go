package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ieml/internal/dictionary"
)

var day = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testVersion(t *testing.T, date time.Time) *dictionary.Version {
	t.Helper()
	src := &dictionary.Source{
		Roots: []string{"O:M:."},
		Terms: []string{"U:M:.", "y.", "o.", "e."},
		Translations: map[dictionary.Language]map[string]string{
			dictionary.French:  {"O:M:.": "racine"},
			dictionary.English: {"O:M:.": "root"},
		},
	}
	v, err := dictionary.NewVersionFromSource(context.Background(), date, src, nil)
	require.NoError(t, err)
	return v
}

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	v := testVersion(t, day)

	require.NoError(t, s.Save(ctx, v))

	got, err := s.Load(ctx, v.Name())
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(v.Date))
	assert.Equal(t, v.Source.Terms, got.Source.Terms)
	assert.Equal(t, v.Dictionary.Len(), got.Dictionary.Len())

	for _, term := range v.Dictionary.Terms() {
		other, err := got.Dictionary.Term(term.Key())
		require.NoError(t, err)
		assert.Equal(t, term.Rank, other.Rank)
	}
	for _, rt := range dictionary.RelationTypes {
		assert.True(t, v.Dictionary.Rel(rt).Equal(got.Dictionary.Rel(rt)))
	}

	err = s.Save(ctx, v)
	assert.True(t, errors.Is(err, ErrVersionExists), "got %v", err)
}

func TestLatestAndList(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.Latest(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))

	older := testVersion(t, day)
	newer := testVersion(t, day.Add(time.Hour))
	require.NoError(t, s.Save(ctx, newer))
	require.NoError(t, s.Save(ctx, older))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.Name(), latest.Name())

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, older.Name(), records[0].Name)
	assert.Equal(t, newer.Name(), records[1].Name)
	assert.Equal(t, 5, records[0].Terms)
	assert.True(t, records[0].Size > 0)
	assert.True(t, records[1].PublishedAt.Equal(newer.Date))
}

func TestLoadMissing(t *testing.T) {
	s := openTest(t)

	_, err := s.Load(context.Background(), dictionary.FormatVersionName(day))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Load(context.Background(), "not a version")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	require.NoError(t, Migrate(db, nil))
	require.NoError(t, Migrate(db, nil))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSave_ConstraintError_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	v := testVersion(t, day)
	mock.ExpectExec(`INSERT INTO dictionary_versions`).
		WithArgs(v.Name(), "2024-03-01T12:00:00Z", 5, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint})

	err = New(db, nil).Save(context.Background(), v)
	assert.True(t, errors.Is(err, ErrVersionExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_QueryError_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT name, published_at, terms`).WillReturnError(errors.New("disk I/O error"))

	_, err = New(db, nil).List(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_BadTimestamp_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"name", "published_at", "terms", "length(snapshot)", "created_at"}).
		AddRow("dictionary_2024-03-01_12:00:00", "yesterday", 5, 100, day)
	mock.ExpectQuery(`SELECT name, published_at, terms`).WillReturnRows(rows)

	_, err = New(db, nil).List(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatest_QueryError_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT name FROM dictionary_versions`).WillReturnError(sql.ErrConnDone)

	_, err = New(db, nil).Latest(context.Background())
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.False(t, errors.Is(err, ErrNotFound))
}
