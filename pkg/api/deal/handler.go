package deal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"hcre_deal_engine/pkg/core/intake"
	"hcre_deal_engine/pkg/core/pipeline"
	"hcre_deal_engine/pkg/core/store"
	"hcre_deal_engine/pkg/models"
)

// Handler holds dependencies for deal endpoints.
type Handler struct {
	Orchestrator *pipeline.Orchestrator
	Repo         *store.DealRepo // nil when no database is configured
	Logger       zerolog.Logger
}

// NewHandler creates a new deal handler.
func NewHandler(orch *pipeline.Orchestrator, repo *store.DealRepo, logger zerolog.Logger) *Handler {
	return &Handler{
		Orchestrator: orch,
		Repo:         repo,
		Logger:       logger,
	}
}

// HandleAnalyze runs the full analysis for a posted deal file. The body
// may be strict JSON, sloppy JSON, or Hjson.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	// CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	deal, err := intake.ParseDeal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Orchestrator.Run(r.Context(), deal)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrInvalidParameter) {
			status = http.StatusBadRequest
		}
		h.Logger.Error().Err(err).Str("deal", deal.Name).Msg("analysis failed")
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleGet returns a stored deal and its last analysis by ?id=.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if h.Repo == nil {
		http.Error(w, "persistence not configured", http.StatusServiceUnavailable)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}

	rec, err := h.Repo.Load(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// HandleList returns the stored deals, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if h.Repo == nil {
		http.Error(w, "persistence not configured", http.StatusServiceUnavailable)
		return
	}

	recs, err := h.Repo.List(r.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recs)
}
