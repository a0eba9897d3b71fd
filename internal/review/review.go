// Package review drives one review interaction end-to-end: pick a due
// example, adjudicate the submitted answer, and persist the rescheduled
// state.
package review

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/example/fraza/internal/domain"
	"github.com/example/fraza/internal/schedule"
	"github.com/example/fraza/internal/storage"
)

var (
	// ErrNothingDue means the due set is empty. This is a normal terminal
	// state ("come back later"), not a failure.
	ErrNothingDue = errors.New("review: nothing due")

	// ErrNotFound means the graded example does not exist or is not owned
	// by the user. It indicates a stale or forged reference.
	ErrNotFound = errors.New("review: example not found")
)

// Store is the persistence the controller needs. *storage.DB satisfies it.
type Store interface {
	DueExamples(ctx context.Context, userID int64, now time.Time) ([]domain.Example, error)
	FindExampleForUser(ctx context.Context, exampleID, userID int64) (*domain.Example, error)
	UserSettings(ctx context.Context, userID int64) (domain.Settings, error)
	SaveExampleSchedule(ctx context.Context, ex *domain.Example) error
}

// Controller runs review sessions against a store. The random source is
// injected so tests can seed it deterministically; *rand.Rand is not safe
// for concurrent use, so draws are serialized under the mutex.
type Controller struct {
	store Store
	mu    sync.Mutex
	rng   *rand.Rand
}

// New creates a review controller.
func New(store Store, rng *rand.Rand) *Controller {
	return &Controller{store: store, rng: rng}
}

// PickNext selects the example to present, uniformly at random among all
// due examples. Random choice over earliest-due-first is deliberate: it
// varies practice order instead of always drilling the most overdue item.
// Returns ErrNothingDue when the due set is empty.
func (c *Controller) PickNext(ctx context.Context, userID int64, now time.Time) (*domain.Example, error) {
	due, err := c.store.DueExamples(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("picking next example: %w", err)
	}
	if len(due) == 0 {
		return nil, ErrNothingDue
	}
	c.mu.Lock()
	n := c.rng.Intn(len(due))
	c.mu.Unlock()
	picked := due[n]
	return &picked, nil
}

// Result is the outcome of grading one answer. The updated example and the
// verdict are all the presentation layer needs to render a result.
type Result struct {
	Example *domain.Example
	Correct bool
}

// Grade adjudicates a submitted answer and reschedules the example. The
// answer and the stored translation are compared after trimming surrounding
// whitespace and lowercasing; there is no fuzzy matching. A correct answer
// multiplies the interval by the user's multiplier, an incorrect one resets
// it to the user's initial interval. Either way the new schedule is
// persisted before returning, so grading is not idempotent.
func (c *Controller) Grade(ctx context.Context, exampleID, userID int64, answer string, now time.Time) (*Result, error) {
	ex, err := c.store.FindExampleForUser(ctx, exampleID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading example %d: %w", exampleID, err)
	}

	settings, err := c.store.UserSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading settings for user %d: %w", userID, err)
	}

	correct := normalize(answer) == normalize(ex.Translation)
	if correct {
		ex.IntervalMinutes = schedule.OnCorrect(ex.IntervalMinutes, settings.IntervalMultiplier)
	} else {
		ex.IntervalMinutes = schedule.OnIncorrect(settings.InitialIntervalMinutes)
	}
	ex.NextReviewAt = schedule.NextReviewAt(now, ex.IntervalMinutes)

	if err := c.store.SaveExampleSchedule(ctx, ex); err != nil {
		return nil, fmt.Errorf("saving schedule for example %d: %w", exampleID, err)
	}

	return &Result{Example: ex, Correct: correct}, nil
}

// normalize prepares a string for answer comparison: case-insensitive,
// surrounding-whitespace-insensitive exact match.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
