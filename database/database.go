package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"

	"github.com/mbolis/quick-forms/config"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Store is the handle on the forms database. It is safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

// New wraps an already opened database. Migrations are not run.
func New(db *sqlx.DB) *Store {
	return &Store{db}
}

func Open(cfg config.Config) (store *Store, err error) {
	db, err := sqlx.Open("sqlite3", dsn(cfg.DBUrl))
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db.DB)
	if err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(err, "migrate")
	}

	return New(db), nil
}

// dsn turns on the connection options every pooled connection needs:
// PRAGMAs are per connection, so they travel in the DSN.
func dsn(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// inTx runs fn inside a transaction, committing only if fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if err = fn(tx); err != nil {
		return err
	}
	return pkgerrors.Wrap(tx.Commit(), "commit")
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func utcNow() time.Time {
	return time.Now().UTC()
}
