package parser

import (
	"strings"
	"testing"

	"github.com/example/fraza/internal/domain"
)

func TestParseSingleCard(t *testing.T) {
	input := `W: apple
E: I ate an | apple | yesterday.
T: Я съел яблоко вчера.
R: Я съел | яблоко | вчера.
T: I ate an apple yesterday.
`
	cards, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(cards))
	}
	card := cards[0]
	if card.Word != "apple" {
		t.Errorf("Word = %q, want %q", card.Word, "apple")
	}
	if len(card.Examples) != 2 {
		t.Fatalf("Expected 2 examples, got %d", len(card.Examples))
	}

	en := card.Examples[0]
	if en.Direction != domain.EnRu {
		t.Errorf("First example direction = %q, want EN_RU", en.Direction)
	}
	if en.Prefix != "I ate an" || en.Focus != "apple" || en.Suffix != "yesterday." {
		t.Errorf("Unexpected sentence parts: %q | %q | %q", en.Prefix, en.Focus, en.Suffix)
	}
	if en.Translation != "Я съел яблоко вчера." {
		t.Errorf("Translation = %q", en.Translation)
	}

	ru := card.Examples[1]
	if ru.Direction != domain.RuEn {
		t.Errorf("Second example direction = %q, want RU_EN", ru.Direction)
	}
	if ru.Translation != "I ate an apple yesterday." {
		t.Errorf("Translation = %q", ru.Translation)
	}
}

func TestParseMultipleCards(t *testing.T) {
	input := `W: apple
E: An | apple | a day.
T: Яблоко.
---
W: dog
R: Это | собака | .
T: This is a dog.
`
	cards, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, got %d", len(cards))
	}
	if cards[0].Word != "apple" || cards[1].Word != "dog" {
		t.Errorf("Got words %q and %q", cards[0].Word, cards[1].Word)
	}
}

func TestParseNewWordStartsNewCard(t *testing.T) {
	input := `W: apple
E: An | apple | .
T: Яблоко.
W: dog
E: A | dog | .
T: Собака.
`
	cards, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Expected a W: line to start a new card, got %d cards", len(cards))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"example before word", "E: a | b | c\nT: t\n"},
		{"translation before example", "W: apple\nT: orphan\n"},
		{"wrong part count", "W: apple\nE: only two | parts\nT: t\n"},
		{"double translation", "W: apple\nE: a | b | c\nT: one\nT: two\n"},
		{"missing translation", "W: apple\nE: a | b | c\n"},
		{"garbage line", "W: apple\nX: what\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("Expected a parse error, got nil")
			}
		})
	}
}

func TestParseSkipsBlankLinesAndEmptyCards(t *testing.T) {
	input := "\n---\n\nW: apple\n\nE: a | b | c\nT: t\n---\n\n"
	cards, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("Expected 1 card, got %d", len(cards))
	}
}
