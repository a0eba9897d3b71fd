package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/fraza/internal/domain"
	"github.com/example/fraza/internal/storage"
)

type newExampleJSON struct {
	Direction   string `json:"direction"`
	Prefix      string `json:"prefix"`
	Focus       string `json:"focus"`
	Suffix      string `json:"suffix"`
	Translation string `json:"translation"`
}

func (n newExampleJSON) toStorage() (storage.NewExample, error) {
	direction, err := domain.ParseDirection(n.Direction)
	if err != nil {
		return storage.NewExample{}, err
	}
	if n.Focus == "" || n.Translation == "" {
		return storage.NewExample{}, errors.New("focus and translation are required")
	}
	return storage.NewExample{
		Direction:   direction,
		Prefix:      n.Prefix,
		Focus:       n.Focus,
		Suffix:      n.Suffix,
		Translation: n.Translation,
	}, nil
}

type cardJSON struct {
	ID        int64         `json:"id"`
	Word      string        `json:"word"`
	CreatedAt string        `json:"created_at"`
	Examples  []exampleJSON `json:"examples"`
}

func (s *Server) renderCard(r *http.Request, card domain.Card) (cardJSON, error) {
	examples, err := s.db.ExamplesByCard(r.Context(), card.ID)
	if err != nil {
		return cardJSON{}, err
	}
	out := cardJSON{
		ID:        card.ID,
		Word:      card.Word,
		CreatedAt: card.CreatedAt.UTC().Format(time.RFC3339),
		Examples:  make([]exampleJSON, 0, len(examples)),
	}
	for _, ex := range examples {
		out.Examples = append(out.Examples, renderExample(ex, true))
	}
	return out, nil
}

// handleCards lists the user's cards or creates a new one. Creation takes
// the word plus its examples, each born due immediately with the user's
// initial interval.
func (s *Server) handleCards() http.HandlerFunc {
	type createRequest struct {
		Word     string           `json:"word"`
		Examples []newExampleJSON `json:"examples"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := userID(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			cards, err := s.db.ListCardsByUser(r.Context(), uid)
			if err != nil {
				slog.Error("Failed to list cards", "user_id", uid, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			out := make([]cardJSON, 0, len(cards))
			for _, card := range cards {
				rendered, err := s.renderCard(r, card)
				if err != nil {
					slog.Error("Failed to load examples", "card_id", card.ID, "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				out = append(out, rendered)
			}
			writeJSON(w, http.StatusOK, out)

		case http.MethodPost:
			var req createRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Word == "" {
				http.Error(w, "Word is required", http.StatusBadRequest)
				return
			}
			examples := make([]storage.NewExample, 0, len(req.Examples))
			for _, ex := range req.Examples {
				converted, err := ex.toStorage()
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				examples = append(examples, converted)
			}
			card, err := s.db.CreateCard(r.Context(), uid, req.Word, examples)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					http.Error(w, "User not found", http.StatusNotFound)
					return
				}
				slog.Error("Failed to create card", "user_id", uid, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			rendered, err := s.renderCard(r, *card)
			if err != nil {
				slog.Error("Failed to load examples", "card_id", card.ID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, rendered)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleCard serves /cards/{id} and /cards/{id}/examples.
func (s *Server) handleCard() http.HandlerFunc {
	type detailResponse struct {
		cardJSON
		AverageIntervalEnRu float64 `json:"average_interval_en_ru"`
		AverageIntervalRuEn float64 `json:"average_interval_ru_en"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := userID(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/cards/")
		idPart, sub, _ := strings.Cut(rest, "/")
		cardID, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			http.Error(w, "Invalid card ID", http.StatusBadRequest)
			return
		}

		if sub == "examples" {
			s.handleAddExample(w, r, uid, cardID)
			return
		}
		if sub != "" {
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			card, err := s.db.FindCardForUser(r.Context(), cardID, uid)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					http.Error(w, "Card not found", http.StatusNotFound)
					return
				}
				slog.Error("Failed to find card", "card_id", cardID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			rendered, err := s.renderCard(r, *card)
			if err != nil {
				slog.Error("Failed to load examples", "card_id", cardID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			resp := detailResponse{cardJSON: rendered}
			if resp.AverageIntervalEnRu, err = s.db.AverageInterval(r.Context(), cardID, domain.EnRu); err != nil {
				slog.Error("Failed to average intervals", "card_id", cardID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if resp.AverageIntervalRuEn, err = s.db.AverageInterval(r.Context(), cardID, domain.RuEn); err != nil {
				slog.Error("Failed to average intervals", "card_id", cardID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, resp)

		case http.MethodDelete:
			if err := s.db.DeleteCardForUser(r.Context(), cardID, uid); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					http.Error(w, "Card not found", http.StatusNotFound)
					return
				}
				slog.Error("Failed to delete card", "card_id", cardID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleAddExample attaches one more example to an owned card.
func (s *Server) handleAddExample(w http.ResponseWriter, r *http.Request, uid, cardID int64) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req newExampleJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Malformed example payload", http.StatusBadRequest)
		return
	}
	converted, err := req.toStorage()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ex, err := s.db.AddExample(r.Context(), uid, cardID, converted)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Card not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to add example", "card_id", cardID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, renderExample(*ex, true))
}

// handleDeleteExample serves DELETE /examples/{id}.
func (s *Server) handleDeleteExample() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		uid, err := userID(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		exampleID, err := pathID(r.URL.Path, "/examples/")
		if err != nil {
			http.Error(w, "Invalid example ID", http.StatusBadRequest)
			return
		}
		if err := s.db.DeleteExampleForUser(r.Context(), exampleID, uid); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Example not found", http.StatusNotFound)
				return
			}
			slog.Error("Failed to delete example", "example_id", exampleID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
