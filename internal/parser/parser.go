// Package parser reads card files: a plain-text bulk format for creating
// cards with their directional examples.
//
//	W: apple
//	E: I ate an | apple | yesterday.
//	T: Я съел яблоко вчера.
//	R: Я съел | яблоко | вчера.
//	T: I ate an apple yesterday.
//	---
//
// W: starts a card, E: and R: start an English-to-Russian or
// Russian-to-English example (prefix | focus | suffix), and T: gives the
// translation of the example above it. "---" separates cards.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/fraza/internal/domain"
)

const (
	wordPrefix        = "W:"
	enPrefix          = "E:"
	ruPrefix          = "R:"
	translationPrefix = "T:"
)

// Example is one parsed practice sentence.
type Example struct {
	Direction   domain.Direction
	Prefix      string
	Focus       string
	Suffix      string
	Translation string
}

// Card is one parsed vocabulary card with its examples.
type Card struct {
	Word     string
	Examples []Example
}

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards.
func Parse(r io.Reader) ([]Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []Card
	var current Card
	line := 0

	finishCard := func() {
		if current.Word != "" {
			cards = append(cards, current)
		}
		current = Card{}
	}

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		switch {
		case text == "":
			continue

		case text == "---":
			finishCard()

		case strings.HasPrefix(text, wordPrefix):
			finishCard()
			current.Word = strings.TrimSpace(text[len(wordPrefix):])

		case strings.HasPrefix(text, enPrefix), strings.HasPrefix(text, ruPrefix):
			if current.Word == "" {
				return nil, fmt.Errorf("line %d: example before any W: line", line)
			}
			direction := domain.EnRu
			if strings.HasPrefix(text, ruPrefix) {
				direction = domain.RuEn
			}
			parts := strings.Split(text[len(enPrefix):], "|")
			if len(parts) != 3 {
				return nil, fmt.Errorf("line %d: example needs prefix | focus | suffix, got %d parts", line, len(parts))
			}
			current.Examples = append(current.Examples, Example{
				Direction: direction,
				Prefix:    strings.TrimSpace(parts[0]),
				Focus:     strings.TrimSpace(parts[1]),
				Suffix:    strings.TrimSpace(parts[2]),
			})

		case strings.HasPrefix(text, translationPrefix):
			if len(current.Examples) == 0 {
				return nil, fmt.Errorf("line %d: translation before any example line", line)
			}
			last := &current.Examples[len(current.Examples)-1]
			if last.Translation != "" {
				return nil, fmt.Errorf("line %d: example already has a translation", line)
			}
			last.Translation = strings.TrimSpace(text[len(translationPrefix):])

		default:
			return nil, fmt.Errorf("line %d: unrecognized line %q", line, text)
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, card := range cards {
		for _, ex := range card.Examples {
			if ex.Translation == "" {
				return nil, fmt.Errorf("card %q: example %q has no translation", card.Word, ex.Focus)
			}
		}
	}

	return cards, nil
}
