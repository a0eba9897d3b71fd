package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/example/fraza/internal/domain"
)

// Aggregates for the dashboard and statistics pages. All of them are plain
// SQL aggregations recomputed on each call; nothing is cached.

// TotalInterval sums interval_minutes over every example the user owns.
func (db *DB) TotalInterval(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(e.interval_minutes), 0)
		FROM examples e JOIN cards c ON e.card_id = c.id
		WHERE c.user_id = ?
	`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total intervals for user %d: %w", userID, err)
	}
	return total, nil
}

// AverageInterval returns the mean interval of a card's examples matching
// the direction, or 0.0 if the card has none.
func (db *DB) AverageInterval(ctx context.Context, cardID int64, direction domain.Direction) (float64, error) {
	var avg float64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(interval_minutes), 0)
		FROM examples
		WHERE card_id = ? AND direction = ?
	`, cardID, string(direction)).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average intervals for card %d: %w", cardID, err)
	}
	return avg, nil
}

// DueCount counts the user's due examples at the given time.
func (db *DB) DueCount(ctx context.Context, userID int64, now time.Time) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM examples e JOIN cards c ON e.card_id = c.id
		WHERE c.user_id = ? AND e.next_review_at <= ?
	`, userID, now.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count due examples for user %d: %w", userID, err)
	}
	return count, nil
}

// CountExamples counts every example the user owns across all cards.
func (db *DB) CountExamples(ctx context.Context, userID int64) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM examples e JOIN cards c ON e.card_id = c.id
		WHERE c.user_id = ?
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count examples for user %d: %w", userID, err)
	}
	return count, nil
}

// AverageIntervalAll returns the mean interval across every example the user
// owns, or 0.0 if they have none.
func (db *DB) AverageIntervalAll(ctx context.Context, userID int64) (float64, error) {
	var avg float64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(e.interval_minutes), 0)
		FROM examples e JOIN cards c ON e.card_id = c.id
		WHERE c.user_id = ?
	`, userID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to average intervals for user %d: %w", userID, err)
	}
	return avg, nil
}
