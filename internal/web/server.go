package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/fraza/internal/domain"
	"github.com/example/fraza/internal/review"
	"github.com/example/fraza/internal/storage"
)

// Server holds the dependencies for the HTTP server. Authentication is
// external; the authenticated user arrives as an opaque id in the X-User-ID
// header.
type Server struct {
	db              *storage.DB
	reviews         *review.Controller
	router          *http.ServeMux
	defaultSettings domain.Settings
}

// NewServer creates and configures a new server. defaultSettings seed the
// settings of newly created users.
func NewServer(db *storage.DB, reviews *review.Controller, defaultSettings domain.Settings) *Server {
	s := &Server{
		db:              db,
		reviews:         reviews,
		router:          http.NewServeMux(),
		defaultSettings: defaultSettings,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/users", s.handleUsers())
	s.router.HandleFunc("/dashboard", s.handleDashboard())
	s.router.HandleFunc("/statistics", s.handleStatistics())
	s.router.HandleFunc("/settings", s.handleSettings())

	s.router.HandleFunc("/review/next", s.handleNextReview())
	s.router.HandleFunc("/review/", s.handleGrade())

	s.router.HandleFunc("/cards", s.handleCards())
	s.router.HandleFunc("/cards/", s.handleCard())
	s.router.HandleFunc("/examples/", s.handleDeleteExample())
}

// userID reads the authenticated user id set by the auth layer in front of
// this server.
func userID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, errors.New("missing X-User-ID header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("malformed X-User-ID header")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type exampleJSON struct {
	ID              int64   `json:"id"`
	CardID          int64   `json:"card_id"`
	Direction       string  `json:"direction"`
	Sentence        string  `json:"sentence"`
	Prefix          string  `json:"prefix"`
	Focus           string  `json:"focus"`
	Suffix          string  `json:"suffix"`
	Translation     string  `json:"translation,omitempty"`
	IntervalMinutes float64 `json:"interval_minutes"`
	IntervalDisplay string  `json:"interval_display"`
	NextReviewAt    string  `json:"next_review_at"`
}

// renderExample converts an example for the wire. The translation is the
// answer, so it is withheld unless the caller says otherwise.
func renderExample(ex domain.Example, withTranslation bool) exampleJSON {
	out := exampleJSON{
		ID:              ex.ID,
		CardID:          ex.CardID,
		Direction:       string(ex.Direction),
		Sentence:        ex.FullSentence(),
		Prefix:          ex.Prefix,
		Focus:           ex.Focus,
		Suffix:          ex.Suffix,
		IntervalMinutes: ex.IntervalMinutes,
		IntervalDisplay: FormatInterval(ex.IntervalMinutes),
		NextReviewAt:    ex.NextReviewAt.UTC().Format(time.RFC3339),
	}
	if withTranslation {
		out.Translation = ex.Translation
	}
	return out
}

// handleUsers creates a user with the configured default settings.
func (s *Server) handleUsers() http.HandlerFunc {
	type request struct {
		Username string `json:"username"`
	}
	type response struct {
		ID                     int64   `json:"id"`
		Username               string  `json:"username"`
		IntervalMultiplier     float64 `json:"interval_multiplier"`
		InitialIntervalMinutes int     `json:"initial_interval_minutes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			http.Error(w, "Username is required", http.StatusBadRequest)
			return
		}
		user, err := s.db.CreateUser(r.Context(), req.Username, s.defaultSettings)
		if err != nil {
			slog.Error("Failed to create user", "username", req.Username, "error", err)
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, response{
			ID:                     user.ID,
			Username:               user.Username,
			IntervalMultiplier:     user.Settings.IntervalMultiplier,
			InitialIntervalMinutes: user.Settings.InitialIntervalMinutes,
		})
	}
}

// handleDashboard reports the due count and total accumulated interval.
func (s *Server) handleDashboard() http.HandlerFunc {
	type response struct {
		DueCount             int     `json:"due_count"`
		TotalInterval        float64 `json:"total_interval_minutes"`
		TotalIntervalDisplay string  `json:"total_interval_display"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		uid, err := userID(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		dueCount, err := s.db.DueCount(r.Context(), uid, time.Now())
		if err != nil {
			slog.Error("Failed to count due examples", "user_id", uid, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		total, err := s.db.TotalInterval(r.Context(), uid)
		if err != nil {
			slog.Error("Failed to total intervals", "user_id", uid, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, response{
			DueCount:             dueCount,
			TotalInterval:        total,
			TotalIntervalDisplay: FormatInterval(total),
		})
	}
}

// handleStatistics reports the aggregate view used by the statistics page.
func (s *Server) handleStatistics() http.HandlerFunc {
	type response struct {
		TotalExamples   int     `json:"total_examples"`
		DueExamples     int     `json:"due_examples"`
		AverageInterval float64 `json:"average_interval_minutes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		uid, err := userID(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		totalExamples, err := s.db.CountExamples(r.Context(), uid)
		if err != nil {
			slog.Error("Failed to count examples", "user_id", uid, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		dueCount, err := s.db.DueCount(r.Context(), uid, time.Now())
		if err != nil {
			slog.Error("Failed to count due examples", "user_id", uid, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		avg, err := s.db.AverageIntervalAll(r.Context(), uid)
		if err != nil {
			slog.Error("Failed to average intervals", "user_id", uid, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, response{
			TotalExamples:   totalExamples,
			DueExamples:     dueCount,
			AverageInterval: avg,
		})
	}
}

// handleSettings reads or updates the user's scheduling settings. Every
// update appends to the settings audit trail.
func (s *Server) handleSettings() http.HandlerFunc {
	type payload struct {
		IntervalMultiplier     float64 `json:"interval_multiplier"`
		InitialIntervalMinutes int     `json:"initial_interval_minutes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := userID(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			settings, err := s.db.UserSettings(r.Context(), uid)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					http.Error(w, "User not found", http.StatusNotFound)
					return
				}
				slog.Error("Failed to read settings", "user_id", uid, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, payload{
				IntervalMultiplier:     settings.IntervalMultiplier,
				InitialIntervalMinutes: settings.InitialIntervalMinutes,
			})

		case http.MethodPut:
			var req payload
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Malformed settings payload", http.StatusBadRequest)
				return
			}
			settings := domain.Settings{
				IntervalMultiplier:     req.IntervalMultiplier,
				InitialIntervalMinutes: req.InitialIntervalMinutes,
			}
			if err := s.db.UpdateSettings(r.Context(), uid, settings); err != nil {
				switch {
				case errors.Is(err, storage.ErrInvalidSettings):
					http.Error(w, "Settings out of range", http.StatusUnprocessableEntity)
				case errors.Is(err, storage.ErrNotFound):
					http.Error(w, "User not found", http.StatusNotFound)
				default:
					slog.Error("Failed to update settings", "user_id", uid, "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
				return
			}
			writeJSON(w, http.StatusOK, req)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleNextReview picks a random due example to present. An empty due set
// is a normal outcome, not an error.
func (s *Server) handleNextReview() http.HandlerFunc {
	type response struct {
		NothingDue bool         `json:"nothing_due"`
		Example    *exampleJSON `json:"example,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		uid, err := userID(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		ex, err := s.reviews.PickNext(r.Context(), uid, time.Now())
		if err != nil {
			if errors.Is(err, review.ErrNothingDue) {
				writeJSON(w, http.StatusOK, response{NothingDue: true})
				return
			}
			slog.Error("Failed to pick next example", "user_id", uid, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		rendered := renderExample(*ex, false)
		writeJSON(w, http.StatusOK, response{Example: &rendered})
	}
}

// handleGrade grades a submitted answer for /review/{id}.
func (s *Server) handleGrade() http.HandlerFunc {
	type request struct {
		Answer string `json:"answer"`
	}
	type response struct {
		Correct bool        `json:"correct"`
		Example exampleJSON `json:"example"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		uid, err := userID(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		exampleID, err := pathID(r.URL.Path, "/review/")
		if err != nil {
			http.Error(w, "Invalid example ID", http.StatusBadRequest)
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Malformed answer payload", http.StatusBadRequest)
			return
		}

		result, err := s.reviews.Grade(r.Context(), exampleID, uid, req.Answer, time.Now())
		if err != nil {
			if errors.Is(err, review.ErrNotFound) {
				http.Error(w, "Example not found", http.StatusNotFound)
				return
			}
			slog.Error("Failed to grade example", "example_id", exampleID, "user_id", uid, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, response{
			Correct: result.Correct,
			Example: renderExample(*result.Example, true),
		})
	}
}

// pathID extracts the trailing numeric id from a path like /review/42.
func pathID(path, prefix string) (int64, error) {
	raw := path[len(prefix):]
	return strconv.ParseInt(raw, 10, 64)
}
