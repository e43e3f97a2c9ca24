package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Narayana221/FinanceApp/internal/advice"
	"github.com/Narayana221/FinanceApp/internal/api/handlers"
	"github.com/Narayana221/FinanceApp/internal/api/middleware"
	"github.com/Narayana221/FinanceApp/internal/config"
	"github.com/Narayana221/FinanceApp/internal/logger"
	"github.com/Narayana221/FinanceApp/internal/session"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("No Gemini API key configured - AI coaching will be disabled")
	}

	store := session.NewStore()
	coach := advice.NewCoach(cfg.GeminiAPIKey, cfg.GeminiModel,
		advice.WithTimeout(cfg.AdviceTimeout),
		advice.WithRetries(cfg.AdviceRetries),
	)

	analysesHandler := handlers.NewAnalysesHandler(cfg, store, log)
	adviceHandler := handlers.NewAdviceHandler(store, coach, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/uploads", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			analysesHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analyses", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analysesHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analyses/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/analyses/")
		id, sub, _ := strings.Cut(rest, "/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Analysis ID is required")
			return
		}

		switch {
		case sub == "" && r.Method == http.MethodGet:
			analysesHandler.Get(w, r, id)
		case sub == "" && r.Method == http.MethodDelete:
			analysesHandler.Delete(w, r, id)
		case sub == "transactions" && r.Method == http.MethodGet:
			analysesHandler.Transactions(w, r, id)
		case sub == "advice" && r.Method == http.MethodPost:
			adviceHandler.Advise(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", handlers.HealthHandler)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
