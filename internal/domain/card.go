package domain

import (
	"fmt"
	"strings"
	"time"
)

// Direction tells which way an example is practiced.
type Direction string

const (
	EnRu Direction = "EN_RU" // English sentence shown, Russian translation expected
	RuEn Direction = "RU_EN" // Russian sentence shown, English translation expected
)

// ParseDirection validates a raw direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case EnRu, RuEn:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Card groups the two directional practice examples for one vocabulary word.
type Card struct {
	ID        int64
	UserID    int64
	Word      string
	CreatedAt time.Time
}

// Example is one gradable practice item with its own review schedule.
// IntervalMinutes never drops below 1.0; NextReviewAt is always the time of
// the last grading event plus the interval.
type Example struct {
	ID              int64
	CardID          int64
	Direction       Direction
	Prefix          string
	Focus           string
	Suffix          string
	Translation     string
	IntervalMinutes float64
	NextReviewAt    time.Time
	CreatedAt       time.Time
}

// FullSentence renders the example as "prefix focus suffix" with surrounding
// whitespace trimmed.
func (e Example) FullSentence() string {
	return strings.TrimSpace(e.Prefix + " " + e.Focus + " " + e.Suffix)
}

// Due reports whether the example is due for review at the given time.
// The due state is never stored; it is always derived from NextReviewAt.
func (e Example) Due(now time.Time) bool {
	return !e.NextReviewAt.After(now)
}
