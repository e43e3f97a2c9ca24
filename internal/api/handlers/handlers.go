package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Narayana221/FinanceApp/internal/advice"
	"github.com/Narayana221/FinanceApp/internal/api/middleware"
	"github.com/Narayana221/FinanceApp/internal/bankformat"
	"github.com/Narayana221/FinanceApp/internal/config"
	"github.com/Narayana221/FinanceApp/internal/export"
	"github.com/Narayana221/FinanceApp/internal/ingest"
	"github.com/Narayana221/FinanceApp/internal/logger"
	"github.com/Narayana221/FinanceApp/internal/pipeline"
	"github.com/Narayana221/FinanceApp/internal/session"
)

// AnalysesHandler handles statement upload and analysis endpoints.
type AnalysesHandler struct {
	cfg   *config.Config
	store session.AnalysisStore
	log   zerolog.Logger
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(cfg *config.Config, store session.AnalysisStore, log zerolog.Logger) *AnalysesHandler {
	return &AnalysesHandler{
		cfg:   cfg,
		store: store,
		log:   log,
	}
}

// Upload handles POST /api/uploads. It accepts a multipart CSV file, runs
// the analysis pipeline synchronously and returns the stored analysis.
func (h *AnalysesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithContext(r.Context(), h.log)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large. Maximum size is %d MB.", h.cfg.MaxUploadBytes>>20))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing file field in upload")
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".csv" {
		middleware.WriteError(w, http.StatusBadRequest, "Only CSV files are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	state := &pipeline.PipelineState{
		RawData:          data,
		Encodings:        h.cfg.Encodings,
		DayFirst:         h.cfg.DayFirst,
		MinViableRows:    h.cfg.MinViableRows,
		OutlierThreshold: decimal.NewFromFloat(h.cfg.OutlierThreshold),
	}

	if err := pipeline.NewAnalysisPipeline().Execute(ctx, state); err != nil {
		h.writePipelineError(w, err)
		return
	}

	analysis := &session.Analysis{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Filename:     filepath.Base(header.Filename),
		Format:       state.Mapping.Format,
		Encoding:     state.Encoding,
		Report:       state.Report,
		Transactions: state.Transactions,
		Summary:      state.Summary,
		Categories:   state.Categories,
		Monthly:      state.Monthly,
		Outliers:     state.Outliers,
	}

	if err := h.store.Save(ctx, analysis); err != nil {
		h.log.Error().Err(err).Msg("Failed to save analysis")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save analysis")
		return
	}

	h.log.Info().
		Str("analysis_id", analysis.ID).
		Str("format", analysis.Format).
		Int("valid_rows", analysis.Report.ValidRows).
		Msg("Analysis complete")

	middleware.WriteJSON(w, http.StatusCreated, analysis)
}

// writePipelineError maps pipeline failures to HTTP responses. Input
// problems surface the pipeline's own user-facing message.
func (h *AnalysesHandler) writePipelineError(w http.ResponseWriter, err error) {
	var parseErr *ingest.ParseError
	if errors.As(err, &parseErr) {
		middleware.WriteError(w, http.StatusBadRequest, parseErr.Message)
		return
	}

	var detectErr *bankformat.DetectError
	if errors.As(err, &detectErr) {
		middleware.WriteError(w, http.StatusUnprocessableEntity, detectErr.Error())
		return
	}

	var noRows *pipeline.NoValidRowsError
	if errors.As(err, &noRows) {
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "No valid transactions found in the file",
			"report": noRows.Report,
		})
		return
	}

	h.log.Error().Err(err).Msg("Pipeline failed")
	middleware.WriteError(w, http.StatusInternalServerError, "Failed to analyze file")
}

// List handles GET /api/analyses
func (h *AnalysesHandler) List(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list analyses")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}

	// Summaries only; transactions are fetched per analysis.
	type item struct {
		ID        string           `json:"id"`
		CreatedAt time.Time        `json:"created_at"`
		Filename  string           `json:"filename"`
		Format    string           `json:"format"`
		Summary   pipeline.Summary `json:"summary"`
		ValidRows int              `json:"valid_rows"`
	}
	items := make([]item, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, item{
			ID:        a.ID,
			CreatedAt: a.CreatedAt,
			Filename:  a.Filename,
			Format:    a.Format,
			Summary:   a.Summary,
			ValidRows: a.Report.ValidRows,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": items,
		"count":    len(items),
	})
}

// Get handles GET /api/analyses/{id}
func (h *AnalysesHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	analysis, err := h.store.Get(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Analysis not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, analysis)
}

// Delete handles DELETE /api/analyses/{id}
func (h *AnalysesHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Delete(r.Context(), id); err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Analysis not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Transactions handles GET /api/analyses/{id}/transactions.
// With ?format=csv the cleaned transactions are returned as a CSV download.
func (h *AnalysesHandler) Transactions(w http.ResponseWriter, r *http.Request, id string) {
	analysis, err := h.store.Get(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Analysis not found")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		if err := export.WriteCSV(w, analysis.Transactions); err != nil {
			h.log.Error().Err(err).Str("analysis_id", id).Msg("Failed to write CSV")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": analysis.Transactions,
		"count":        len(analysis.Transactions),
	})
}

// AdviceHandler handles AI coaching endpoints.
type AdviceHandler struct {
	store session.AnalysisStore
	coach *advice.Coach
	log   zerolog.Logger
}

// NewAdviceHandler creates a new advice handler.
func NewAdviceHandler(store session.AnalysisStore, coach *advice.Coach, log zerolog.Logger) *AdviceHandler {
	return &AdviceHandler{
		store: store,
		coach: coach,
		log:   log,
	}
}

// Advise handles POST /api/analyses/{id}/advice
func (h *AdviceHandler) Advise(w http.ResponseWriter, r *http.Request, id string) {
	analysis, err := h.store.Get(r.Context(), id)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Analysis not found")
		return
	}

	var req struct {
		SavingsGoal float64 `json:"savings_goal"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	ctx := logger.WithContext(r.Context(), h.log)
	payload := advice.BuildPayload(analysis.Summary, analysis.Categories, decimal.NewFromFloat(req.SavingsGoal))
	result := h.coach.Advise(ctx, payload)

	status := http.StatusOK
	if !result.OK && result.ErrorKind != advice.ErrorUnconfigured {
		status = http.StatusBadGateway
	}
	middleware.WriteJSON(w, status, result)
}

// HealthHandler handles GET /health
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
