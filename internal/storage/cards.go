package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/fraza/internal/domain"
)

// NewExample carries the user-supplied fields of an example before it gets a
// schedule. The interval and next review time come from the owner's settings
// at insert time.
type NewExample struct {
	Direction   domain.Direction
	Prefix      string
	Focus       string
	Suffix      string
	Translation string
}

// CreateCard inserts a card and its initial examples in one transaction.
// Each example is born with the owner's current initial interval and is due
// immediately.
func (db *DB) CreateCard(ctx context.Context, userID int64, word string, examples []NewExample) (*domain.Card, error) {
	now := time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin card transaction: %w", err)
	}
	defer tx.Rollback()

	var initialInterval int
	err = tx.QueryRowContext(ctx, `
		SELECT initial_interval_minutes FROM users WHERE id = ?
	`, userID).Scan(&initialInterval)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read settings for user %d: %w", userID, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO cards (user_id, word, created_at)
		VALUES (?, ?, ?)
	`, userID, word, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert card %q: %w", word, err)
	}
	cardID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for card %q: %w", word, err)
	}

	for _, ex := range examples {
		if _, err := insertExample(ctx, tx, cardID, ex, initialInterval, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit card %q: %w", word, err)
	}
	return &domain.Card{ID: cardID, UserID: userID, Word: word, CreatedAt: now}, nil
}

// AddExample attaches another example to a card the user owns.
func (db *DB) AddExample(ctx context.Context, userID, cardID int64, ex NewExample) (*domain.Example, error) {
	now := time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin example transaction: %w", err)
	}
	defer tx.Rollback()

	var initialInterval int
	err = tx.QueryRowContext(ctx, `
		SELECT u.initial_interval_minutes
		FROM cards c JOIN users u ON c.user_id = u.id
		WHERE c.id = ? AND c.user_id = ?
	`, cardID, userID).Scan(&initialInterval)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to check ownership of card %d: %w", cardID, err)
	}

	exampleID, err := insertExample(ctx, tx, cardID, ex, initialInterval, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit example for card %d: %w", cardID, err)
	}

	return &domain.Example{
		ID:              exampleID,
		CardID:          cardID,
		Direction:       ex.Direction,
		Prefix:          ex.Prefix,
		Focus:           ex.Focus,
		Suffix:          ex.Suffix,
		Translation:     ex.Translation,
		IntervalMinutes: float64(initialInterval),
		NextReviewAt:    now,
		CreatedAt:       now,
	}, nil
}

func insertExample(ctx context.Context, tx *sql.Tx, cardID int64, ex NewExample, initialInterval int, now time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO examples (
			card_id, direction, prefix, focus, suffix, translation,
			interval_minutes, next_review_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		cardID,
		string(ex.Direction),
		ex.Prefix,
		ex.Focus,
		ex.Suffix,
		ex.Translation,
		float64(initialInterval),
		now, // due immediately
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert example for card %d: %w", cardID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for example on card %d: %w", cardID, err)
	}
	return id, nil
}

// ListCardsByUser returns all of a user's cards, newest last.
func (db *DB) ListCardsByUser(ctx context.Context, userID int64) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, word, created_at
		FROM cards WHERE user_id = ?
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards for user %d: %w", userID, err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.UserID, &c.Word, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// FindCardForUser retrieves a card, enforcing ownership.
func (db *DB) FindCardForUser(ctx context.Context, cardID, userID int64) (*domain.Card, error) {
	var c domain.Card
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, word, created_at
		FROM cards WHERE id = ? AND user_id = ?
	`, cardID, userID)

	err := row.Scan(&c.ID, &c.UserID, &c.Word, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find card %d: %w", cardID, err)
	}
	return &c, nil
}

// DeleteCardForUser removes a card the user owns. Its examples go with it.
func (db *DB) DeleteCardForUser(ctx context.Context, cardID, userID int64) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM cards WHERE id = ? AND user_id = ?
	`, cardID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete card %d: %w", cardID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExampleForUser removes a single example, enforcing ownership through
// the parent card.
func (db *DB) DeleteExampleForUser(ctx context.Context, exampleID, userID int64) error {
	res, err := db.conn.ExecContext(ctx, `
		DELETE FROM examples
		WHERE id = ? AND card_id IN (SELECT id FROM cards WHERE user_id = ?)
	`, exampleID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete example %d: %w", exampleID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

const exampleColumns = `
	e.id, e.card_id, e.direction, e.prefix, e.focus, e.suffix, e.translation,
	e.interval_minutes, e.next_review_at, e.created_at
`

func scanExample(row interface{ Scan(...any) error }) (domain.Example, error) {
	var e domain.Example
	var direction string
	err := row.Scan(
		&e.ID,
		&e.CardID,
		&direction,
		&e.Prefix,
		&e.Focus,
		&e.Suffix,
		&e.Translation,
		&e.IntervalMinutes,
		&e.NextReviewAt,
		&e.CreatedAt,
	)
	if err != nil {
		return domain.Example{}, err
	}
	e.Direction = domain.Direction(direction)
	return e, nil
}

// ExamplesByCard returns a card's examples ordered by creation time.
func (db *DB) ExamplesByCard(ctx context.Context, cardID int64) ([]domain.Example, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+exampleColumns+`
		FROM examples e
		WHERE e.card_id = ?
		ORDER BY e.created_at, e.id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get examples for card %d: %w", cardID, err)
	}
	defer rows.Close()

	var examples []domain.Example
	for rows.Next() {
		e, err := scanExample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan example row: %w", err)
		}
		examples = append(examples, e)
	}
	return examples, rows.Err()
}

// FindExampleForUser retrieves an example, enforcing ownership through the
// parent card. A nonexistent and a non-owned example are indistinguishable
// to the caller: both are ErrNotFound.
func (db *DB) FindExampleForUser(ctx context.Context, exampleID, userID int64) (*domain.Example, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+exampleColumns+`
		FROM examples e JOIN cards c ON e.card_id = c.id
		WHERE e.id = ? AND c.user_id = ?
	`, exampleID, userID)

	e, err := scanExample(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find example %d: %w", exampleID, err)
	}
	return &e, nil
}

// DueExamples returns every example of the user whose next review time has
// arrived, earliest due first. An empty due set is an empty slice, not an
// error.
func (db *DB) DueExamples(ctx context.Context, userID int64, now time.Time) ([]domain.Example, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+exampleColumns+`
		FROM examples e JOIN cards c ON e.card_id = c.id
		WHERE c.user_id = ? AND e.next_review_at <= ?
		ORDER BY e.next_review_at ASC
	`, userID, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get due examples for user %d: %w", userID, err)
	}
	defer rows.Close()

	var examples []domain.Example
	for rows.Next() {
		e, err := scanExample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due example row: %w", err)
		}
		examples = append(examples, e)
	}
	return examples, rows.Err()
}

// SaveExampleSchedule persists an example's interval and next review time.
// The write is a single row update; overlapping grades of the same example
// resolve as last write wins.
func (db *DB) SaveExampleSchedule(ctx context.Context, ex *domain.Example) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE examples
		SET interval_minutes = ?, next_review_at = ?
		WHERE id = ?
	`, ex.IntervalMinutes, ex.NextReviewAt.UTC(), ex.ID)
	if err != nil {
		return fmt.Errorf("failed to save schedule for example %d: %w", ex.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
