package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"hcre_deal_engine/pkg/api/deal"
	"hcre_deal_engine/pkg/core/assumption"
	"hcre_deal_engine/pkg/core/pipeline"
	"hcre_deal_engine/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// Load the underwriting book; fall back to house defaults
	bookPath := os.Getenv("UNDERWRITING_BOOK")
	if bookPath == "" {
		bookPath = "config/underwriting.yaml"
	}
	book, err := assumption.Load(bookPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", bookPath).Msg("underwriting book not loaded, using defaults")
		book = assumption.Default()
	} else {
		logger.Info().Str("path", bookPath).Msg("underwriting book loaded")
	}

	// Database is optional; without it analysis still runs, unsaved
	var repo *store.DealRepo
	if err := store.InitDB(context.Background(), logger); err != nil {
		logger.Warn().Err(err).Msg("database unavailable, persistence disabled")
	} else {
		repo = store.NewDealRepo()
		defer store.Close()
	}

	orch := pipeline.NewOrchestrator(book, repoOrNil(repo), logger)
	handler := deal.NewHandler(orch, repo, logger)

	http.HandleFunc("/api/deal/analyze", handler.HandleAnalyze)
	http.HandleFunc("/api/deal", handler.HandleGet)
	http.HandleFunc("/api/deals", handler.HandleList)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("API server starting")
	fmt.Println("  - POST /api/deal/analyze")
	fmt.Println("  - GET  /api/deal?id=<deal_id>")
	fmt.Println("  - GET  /api/deals")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// repoOrNil avoids handing the orchestrator a typed nil interface.
func repoOrNil(repo *store.DealRepo) pipeline.Repository {
	if repo == nil {
		return nil
	}
	return repo
}
