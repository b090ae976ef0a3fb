package blobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/pwbjournal/internal/dbx"
	"github.com/dmitrijs2005/pwbjournal/internal/repositories/blobs/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// SQLiteRepository implements Repository on a single SQLite table.
// Several processes may open the same database file.
type SQLiteRepository struct {
	db  *sql.DB
	rev *revisionSource
}

// NewSQLiteRepository wraps an already migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, rev: newRevisionSource()}
}

// OpenSQLite opens (or creates) the database file at path in WAL mode and
// applies migrations. Transactions take the write lock up front, so Update
// waits for other writers instead of failing on lock upgrade.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	dsn := "file:" + path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=synchronous(normal)&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewSQLiteRepository(db), nil
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (Blob, error) {
	return getBlob(ctx, r.db, key)
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) (string, error) {
	rev := r.rev.next()
	if err := putBlob(ctx, r.db, key, value, rev); err != nil {
		return "", err
	}
	return rev, nil
}

// Update runs fn inside a write transaction.
func (r *SQLiteRepository) Update(ctx context.Context, key string, fn UpdateFunc) (string, error) {
	var rev string
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := getBlob(ctx, tx, key)
		if err != nil {
			return err
		}
		value, err := fn(cur)
		if errors.Is(err, ErrNoChange) {
			rev = cur.Revision
			return nil
		}
		if err != nil {
			return err
		}
		rev = r.rev.next()
		return putBlob(ctx, tx, key, value, rev)
	})
	if err != nil {
		return "", err
	}
	return rev, nil
}

func getBlob(ctx context.Context, db dbx.DBTX, key string) (Blob, error) {
	var b Blob
	err := db.QueryRowContext(ctx, `SELECT value, revision FROM blobs WHERE key = ?`, key).
		Scan(&b.Value, &b.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Blob{}, nil
	}
	if err != nil {
		return Blob{}, fmt.Errorf("failed to get blob[%s]: %w", key, err)
	}
	if b.Value == nil {
		b.Value = []byte{}
	}
	return b, nil
}

func putBlob(ctx context.Context, db dbx.DBTX, key string, value []byte, rev string) error {
	if value == nil {
		value = []byte{}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO blobs (key, value, revision, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = excluded.revision,
			updated_at = excluded.updated_at
	`, key, value, rev, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to set blob[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete blob[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Revision(ctx context.Context, key string) (string, error) {
	var rev string
	err := r.db.QueryRowContext(ctx, `SELECT revision FROM blobs WHERE key = ?`, key).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get revision[%s]: %w", key, err)
	}
	return rev, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
