package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/fraza/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

var (
	// ErrNotFound is returned when a row does not exist or is not owned by
	// the requesting user.
	ErrNotFound = errors.New("storage: not found")

	// ErrInvalidSettings is returned when settings fall outside their
	// allowed ranges. Out-of-range values are rejected, never clamped.
	ErrInvalidSettings = errors.New("storage: invalid settings")
)

var validate = validator.New()

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; one connection avoids SQLITE_BUSY and
	// serializes concurrent grades of the same row (last write wins).
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUser inserts a new user with the given starting settings.
func (db *DB) CreateUser(ctx context.Context, username string, settings domain.Settings) (*domain.User, error) {
	if err := validate.Struct(settings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	now := time.Now().UTC()
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (username, interval_multiplier, initial_interval_minutes, created_at)
		VALUES (?, ?, ?, ?)
	`, username, settings.IntervalMultiplier, settings.InitialIntervalMinutes, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user %s: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for user %s: %w", username, err)
	}

	return &domain.User{ID: id, Username: username, CreatedAt: now, Settings: settings}, nil
}

// FindUserByID retrieves a user with their current settings.
func (db *DB) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, username, interval_multiplier, initial_interval_minutes, created_at
		FROM users WHERE id = ?
	`, id)

	err := row.Scan(&u.ID, &u.Username, &u.Settings.IntervalMultiplier, &u.Settings.InitialIntervalMinutes, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user %d: %w", id, err)
	}
	return &u, nil
}

// UserSettings retrieves just the scheduling settings for a user.
func (db *DB) UserSettings(ctx context.Context, userID int64) (domain.Settings, error) {
	var s domain.Settings
	row := db.conn.QueryRowContext(ctx, `
		SELECT interval_multiplier, initial_interval_minutes
		FROM users WHERE id = ?
	`, userID)

	err := row.Scan(&s.IntervalMultiplier, &s.InitialIntervalMinutes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Settings{}, ErrNotFound
		}
		return domain.Settings{}, fmt.Errorf("failed to find settings for user %d: %w", userID, err)
	}
	return s, nil
}

// UpdateSettings replaces a user's settings and appends an audit record, in
// one transaction. Out-of-range settings fail with ErrInvalidSettings.
func (db *DB) UpdateSettings(ctx context.Context, userID int64, settings domain.Settings) error {
	if err := validate.Struct(settings); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settings transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET interval_multiplier = ?, initial_interval_minutes = ?
		WHERE id = ?
	`, settings.IntervalMultiplier, settings.InitialIntervalMinutes, userID)
	if err != nil {
		return fmt.Errorf("failed to update settings for user %d: %w", userID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settings_history (user_id, changed_at, interval_multiplier, initial_interval_minutes)
		VALUES (?, ?, ?, ?)
	`, userID, time.Now().UTC(), settings.IntervalMultiplier, settings.InitialIntervalMinutes)
	if err != nil {
		return fmt.Errorf("failed to append settings history for user %d: %w", userID, err)
	}

	return tx.Commit()
}
