package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/reminder-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db   *sql.DB
	opts options
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, opts: buildOptions(opts)}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// Create inserts a new notification with a freshly generated id.
func (r *SQLiteRepo) Create(ctx context.Context, text string, userID int64, scheduledAt time.Time) (string, error) {
	now := r.opts.now()
	if !scheduledAt.After(now) {
		return "", fmt.Errorf("%w: %s is not in the future", domain.ErrInvalidSchedule, scheduledAt)
	}

	id := r.opts.newID()
	sec, nsec := splitTime(scheduledAt)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, text,
			scheduled_at, scheduled_nsec, original_scheduled_at, original_scheduled_nsec, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, text, sec, nsec, sec, nsec, now.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}

// Get returns a notification by id.
func (r *SQLiteRepo) Get(ctx context.Context, id string) (*domain.Notification, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, text, scheduled_at, scheduled_nsec, original_scheduled_at, original_scheduled_nsec
		FROM notifications
		WHERE id = ?`,
		id,
	)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// UpdateSchedule moves scheduled_at; original_scheduled_at is never touched.
func (r *SQLiteRepo) UpdateSchedule(ctx context.Context, id string, next time.Time) error {
	sec, nsec := splitTime(next)
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET scheduled_at = ?, scheduled_nsec = ?
		WHERE id = ?`,
		sec, nsec, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("notification %q: %w", id, ErrNotFound)
	}
	return nil
}

// SetLastActive points the user's last-active entry at id, replacing any previous one.
func (r *SQLiteRepo) SetLastActive(ctx context.Context, userID int64, id string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO last_active (user_id, notification_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			notification_id = excluded.notification_id,
			updated_at      = excluded.updated_at`,
		userID, id, r.opts.now().Unix(),
	)
	return err
}

// GetLastActive returns the id of the user's most recently delivered notification.
func (r *SQLiteRepo) GetLastActive(ctx context.Context, userID int64) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT notification_id FROM last_active WHERE user_id = ?`,
		userID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("last active for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// All returns every stored notification ordered by scheduled_at ascending.
func (r *SQLiteRepo) All(ctx context.Context) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, text, scheduled_at, scheduled_nsec, original_scheduled_at, original_scheduled_nsec
		FROM notifications
		ORDER BY scheduled_at ASC, scheduled_nsec ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(s scanner) (*domain.Notification, error) {
	var (
		n                   domain.Notification
		schedSec, schedNsec int64
		origSec, origNsec   int64
	)
	if err := s.Scan(&n.ID, &n.UserID, &n.Text, &schedSec, &schedNsec, &origSec, &origNsec); err != nil {
		return nil, err
	}
	n.ScheduledAt = joinTime(schedSec, schedNsec)
	n.OriginalScheduledAt = joinTime(origSec, origNsec)
	return &n, nil
}
