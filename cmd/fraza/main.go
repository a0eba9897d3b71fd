package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/example/fraza/internal/config"
	"github.com/example/fraza/internal/domain"
	"github.com/example/fraza/internal/parser"
	"github.com/example/fraza/internal/review"
	"github.com/example/fraza/internal/storage"
	"github.com/example/fraza/internal/web"
)

func main() {
	// A .env file is optional; real environment variables win either way.
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("fraza", pflag.ExitOnError)
	configPath := flags.String("config", "", "Path to an optional YAML config file")
	flags.String("listen_addr", ":8080", "HTTP listen address")
	flags.String("database_path", "fraza.db", "Path to the sqlite database file")
	importFile := flags.String("import", "", "Import cards from a card file and exit")
	importUser := flags.Int64("import_user", 0, "User ID that receives imported cards")
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("Failed to parse flags", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("Failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *importFile != "" {
		if err := runImport(db, *importFile, *importUser); err != nil {
			slog.Error("Import failed", "file", *importFile, "error", err)
			os.Exit(1)
		}
		return
	}

	controller := review.New(db, rand.New(rand.NewSource(time.Now().UnixNano())))
	defaults := domain.Settings{
		IntervalMultiplier:     cfg.DefaultIntervalMultiplier,
		InitialIntervalMinutes: cfg.DefaultInitialIntervalMinutes,
	}
	server := web.NewServer(db, controller, defaults)

	slog.Info("Listening", "addr", cfg.ListenAddr, "database", cfg.DatabasePath)
	if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

// runImport bulk-creates cards for a user from a card file.
func runImport(db *storage.DB, path string, userID int64) error {
	if userID == 0 {
		return fmt.Errorf("--import_user is required with --import")
	}

	cards, err := parser.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	ctx := context.Background()
	var examples int
	for _, card := range cards {
		converted := make([]storage.NewExample, 0, len(card.Examples))
		for _, ex := range card.Examples {
			converted = append(converted, storage.NewExample{
				Direction:   ex.Direction,
				Prefix:      ex.Prefix,
				Focus:       ex.Focus,
				Suffix:      ex.Suffix,
				Translation: ex.Translation,
			})
		}
		if _, err := db.CreateCard(ctx, userID, card.Word, converted); err != nil {
			return fmt.Errorf("importing card %q: %w", card.Word, err)
		}
		examples += len(converted)
	}

	fmt.Printf("Imported %d cards with %d examples.\n", len(cards), examples)
	return nil
}
