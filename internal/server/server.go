// Package server exposes the HTTP control surface: bot status and operator
// toggles, plus health and Prometheus endpoints. It carries no decision
// logic; every action routes through the controller.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/ports"
)

// Server is the HTTP control surface.
type Server struct {
	logger     ports.Logger
	controller ports.BotController
	journal    ports.TradeRepository
	httpServer *http.Server
}

// New creates the HTTP server listening on addr.
func New(addr string, controller ports.BotController, journal ports.TradeRepository, logger ports.Logger) (*Server, error) {
	if addr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if controller == nil || journal == nil || logger == nil {
		return nil, fmt.Errorf("controller, journal and logger are required")
	}

	s := &Server{
		logger:     logger,
		controller: controller,
		journal:    journal,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/trades", s.handleTrades)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/kill", s.handleKill)
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start runs the listener in its own goroutine and returns immediately.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": s.httpServer.Addr})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error(ctx, err, "HTTP server stopped unexpectedly")
		}
	}()
}

// Stop shuts the listener down, letting in-flight requests finish.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := s.controller.Status(r.Context())
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	records, err := s.journal.FindRecent(r.Context(), limit)
	if err != nil {
		s.logger.Error(r.Context(), err, "Reading trade journal failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "trade journal unavailable"})
		return
	}
	if records == nil {
		records = []*domain.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controller.Resume(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"result": "scanning resumed"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controller.Pause(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"result": "scanning paused"})
}

func (s *Server) handleKill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.controller.Kill(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"result": "kill switch engaged"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.controller.ResetDay(r.Context()); err != nil {
		s.logger.Error(r.Context(), err, "Day reset failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "day reset"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
