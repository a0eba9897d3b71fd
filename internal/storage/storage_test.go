package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/fraza/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testUser(t *testing.T, db *DB) *domain.User {
	t.Helper()
	user, err := db.CreateUser(context.Background(), "anna", domain.Settings{
		IntervalMultiplier:     2.0,
		InitialIntervalMinutes: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func twoExamples() []NewExample {
	return []NewExample{
		{
			Direction:   domain.EnRu,
			Prefix:      "I ate an",
			Focus:       "apple",
			Suffix:      "yesterday.",
			Translation: "Я съел яблоко вчера.",
		},
		{
			Direction:   domain.RuEn,
			Prefix:      "Я съел",
			Focus:       "яблоко",
			Suffix:      "вчера.",
			Translation: "I ate an apple yesterday.",
		},
	}
}

func TestCreateUserRejectsInvalidSettings(t *testing.T) {
	db := openTestDB(t)
	_, err := db.CreateUser(context.Background(), "bad", domain.Settings{
		IntervalMultiplier:     11.0,
		InitialIntervalMinutes: 5,
	})
	if !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("Expected ErrInvalidSettings, got %v", err)
	}
}

func TestUpdateSettingsAppendsHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := testUser(t, db)

	newSettings := domain.Settings{IntervalMultiplier: 3.5, InitialIntervalMinutes: 10}
	if err := db.UpdateSettings(ctx, user.ID, newSettings); err != nil {
		t.Fatalf("Failed to update settings: %v", err)
	}

	got, err := db.UserSettings(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to read settings back: %v", err)
	}
	if got != newSettings {
		t.Errorf("Settings = %+v, want %+v", got, newSettings)
	}

	// The audit trail has no read API; inspect the table directly.
	var historyCount int
	err = db.conn.QueryRow(`SELECT COUNT(*) FROM settings_history WHERE user_id = ?`, user.ID).Scan(&historyCount)
	if err != nil {
		t.Fatalf("Failed to count history rows: %v", err)
	}
	if historyCount != 1 {
		t.Errorf("Expected 1 settings_history row, got %d", historyCount)
	}
}

func TestUpdateSettingsRejectsOutOfRange(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := testUser(t, db)

	tests := []struct {
		name     string
		settings domain.Settings
	}{
		{"multiplier too small", domain.Settings{IntervalMultiplier: 0.5, InitialIntervalMinutes: 5}},
		{"multiplier too large", domain.Settings{IntervalMultiplier: 10.5, InitialIntervalMinutes: 5}},
		{"initial interval zero", domain.Settings{IntervalMultiplier: 2.0, InitialIntervalMinutes: 0}},
		{"initial interval too large", domain.Settings{IntervalMultiplier: 2.0, InitialIntervalMinutes: 1441}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.UpdateSettings(ctx, user.ID, tt.settings)
			if !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("Expected ErrInvalidSettings, got %v", err)
			}
		})
	}

	// The original settings must be untouched after rejected updates.
	got, err := db.UserSettings(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to read settings back: %v", err)
	}
	if got != user.Settings {
		t.Errorf("Settings mutated by rejected update: %+v", got)
	}
}

func TestCreateCardExamplesAreDueImmediately(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := testUser(t, db)

	card, err := db.CreateCard(ctx, user.ID, "apple", twoExamples())
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}

	examples, err := db.ExamplesByCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("Failed to get examples: %v", err)
	}
	if len(examples) != 2 {
		t.Fatalf("Expected 2 examples, got %d", len(examples))
	}
	for _, ex := range examples {
		if ex.IntervalMinutes != 5.0 {
			t.Errorf("Example interval = %v, want the user's initial interval 5.0", ex.IntervalMinutes)
		}
		if !ex.Due(time.Now()) {
			t.Errorf("Expected a fresh example to be due immediately, next review at %v", ex.NextReviewAt)
		}
	}

	due, err := db.DueExamples(ctx, user.ID, time.Now())
	if err != nil {
		t.Fatalf("Failed to get due examples: %v", err)
	}
	if len(due) != 2 {
		t.Errorf("Expected 2 due examples, got %d", len(due))
	}
}

func TestDueExamplesFiltersAndOrders(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := testUser(t, db)

	card, err := db.CreateCard(ctx, user.ID, "apple", twoExamples())
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}
	examples, err := db.ExamplesByCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("Failed to get examples: %v", err)
	}

	now := time.Now().UTC()

	// First example overdue, second not due yet.
	examples[0].NextReviewAt = now.Add(-10 * time.Minute)
	examples[1].NextReviewAt = now.Add(10 * time.Minute)
	for i := range examples {
		if err := db.SaveExampleSchedule(ctx, &examples[i]); err != nil {
			t.Fatalf("Failed to save schedule: %v", err)
		}
	}

	due, err := db.DueExamples(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("Failed to get due examples: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("Expected exactly 1 due example, got %d", len(due))
	}
	if due[0].ID != examples[0].ID {
		t.Errorf("Due example ID = %d, want %d", due[0].ID, examples[0].ID)
	}

	// Make both due with distinct times and check earliest-first ordering.
	examples[1].NextReviewAt = now.Add(-20 * time.Minute)
	if err := db.SaveExampleSchedule(ctx, &examples[1]); err != nil {
		t.Fatalf("Failed to save schedule: %v", err)
	}
	due, err = db.DueExamples(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("Failed to get due examples: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("Expected 2 due examples, got %d", len(due))
	}
	if due[0].ID != examples[1].ID {
		t.Errorf("Expected the most overdue example first, got ID %d", due[0].ID)
	}
}

func TestAddExampleReturnsUsableID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := testUser(t, db)

	card, err := db.CreateCard(ctx, user.ID, "apple", nil)
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}

	added, err := db.AddExample(ctx, user.ID, card.ID, twoExamples()[0])
	if err != nil {
		t.Fatalf("Failed to add example: %v", err)
	}
	if added.ID == 0 {
		t.Fatal("AddExample returned an example with ID 0; the caller cannot grade or delete it")
	}

	// The returned ID must resolve to the inserted row.
	found, err := db.FindExampleForUser(ctx, added.ID, user.ID)
	if err != nil {
		t.Fatalf("Failed to find example by returned ID %d: %v", added.ID, err)
	}
	if found.Focus != added.Focus || found.Translation != added.Translation {
		t.Errorf("Found example %+v does not match the one added", found)
	}

	if err := db.DeleteExampleForUser(ctx, added.ID, user.ID); err != nil {
		t.Errorf("Failed to delete example by returned ID %d: %v", added.ID, err)
	}
}

func TestDeleteCardCascadesToExamples(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := testUser(t, db)

	card, err := db.CreateCard(ctx, user.ID, "apple", twoExamples())
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}
	if err := db.DeleteCardForUser(ctx, card.ID, user.ID); err != nil {
		t.Fatalf("Failed to delete card: %v", err)
	}

	count, err := db.CountExamples(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to count examples: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected examples to be deleted with their card, %d remain", count)
	}
}

func TestOwnershipIsEnforced(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	owner := testUser(t, db)
	other, err := db.CreateUser(ctx, "boris", domain.Settings{IntervalMultiplier: 2.0, InitialIntervalMinutes: 5})
	if err != nil {
		t.Fatalf("Failed to create second user: %v", err)
	}

	card, err := db.CreateCard(ctx, owner.ID, "apple", twoExamples())
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}
	examples, err := db.ExamplesByCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("Failed to get examples: %v", err)
	}

	if _, err := db.FindExampleForUser(ctx, examples[0].ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a non-owned example, got %v", err)
	}
	if err := db.DeleteCardForUser(ctx, card.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting a non-owned card, got %v", err)
	}
	if err := db.DeleteExampleForUser(ctx, examples[0].ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting a non-owned example, got %v", err)
	}
	if _, err := db.AddExample(ctx, other.ID, card.ID, twoExamples()[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound adding to a non-owned card, got %v", err)
	}

	// The owner still sees everything.
	if _, err := db.FindExampleForUser(ctx, examples[0].ID, owner.ID); err != nil {
		t.Errorf("Owner lookup failed: %v", err)
	}
}

func TestAggregates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := testUser(t, db)

	card, err := db.CreateCard(ctx, user.ID, "apple", twoExamples())
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}
	examples, err := db.ExamplesByCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("Failed to get examples: %v", err)
	}

	// Give the two examples distinct intervals: 4 and 8 minutes.
	examples[0].IntervalMinutes = 4.0
	examples[1].IntervalMinutes = 8.0
	for i := range examples {
		if err := db.SaveExampleSchedule(ctx, &examples[i]); err != nil {
			t.Fatalf("Failed to save schedule: %v", err)
		}
	}

	total, err := db.TotalInterval(ctx, user.ID)
	if err != nil {
		t.Fatalf("TotalInterval failed: %v", err)
	}
	if total != 12.0 {
		t.Errorf("TotalInterval = %v, want 12.0", total)
	}

	avgEnRu, err := db.AverageInterval(ctx, card.ID, domain.EnRu)
	if err != nil {
		t.Fatalf("AverageInterval failed: %v", err)
	}
	if avgEnRu != 4.0 {
		t.Errorf("AverageInterval(EN_RU) = %v, want 4.0", avgEnRu)
	}

	avgAll, err := db.AverageIntervalAll(ctx, user.ID)
	if err != nil {
		t.Fatalf("AverageIntervalAll failed: %v", err)
	}
	if avgAll != 6.0 {
		t.Errorf("AverageIntervalAll = %v, want 6.0", avgAll)
	}

	count, err := db.DueCount(ctx, user.ID, time.Now())
	if err != nil {
		t.Fatalf("DueCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("DueCount = %d, want 2", count)
	}
}

func TestAggregatesEmpty(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user := testUser(t, db)

	card, err := db.CreateCard(ctx, user.ID, "empty", nil)
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}

	total, err := db.TotalInterval(ctx, user.ID)
	if err != nil {
		t.Fatalf("TotalInterval failed: %v", err)
	}
	if total != 0.0 {
		t.Errorf("TotalInterval = %v, want 0.0 for a user with no examples", total)
	}

	avg, err := db.AverageInterval(ctx, card.ID, domain.EnRu)
	if err != nil {
		t.Fatalf("AverageInterval failed: %v", err)
	}
	if avg != 0.0 {
		t.Errorf("AverageInterval = %v, want 0.0 for a card with no matching examples", avg)
	}
}
