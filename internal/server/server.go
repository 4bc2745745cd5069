// Package server exposes the HTTP trigger surface for ingestion batches.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pitwall/stewarding/internal/model"
	"github.com/pitwall/stewarding/internal/pipeline"
)

var yearRe = regexp.MustCompile(`^\d{4}$`)

// batchTimeout bounds one background batch. Listing plus a season of
// documents finishes well inside this.
const batchTimeout = 10 * time.Minute

// Runner starts ingestion batches. Satisfied by *pipeline.Pipeline.
type Runner interface {
	RunBatch(ctx context.Context, seriesID, year string, mode pipeline.Mode) (*pipeline.BatchReport, error)
}

// Server handles ingestion trigger requests.
type Server struct {
	runner    Runner
	authToken string
	logger    *slog.Logger
}

// New creates a trigger server. An empty authToken disables authentication,
// intended only for local runs.
func New(runner Runner, authToken string, logger *slog.Logger) *Server {
	return &Server{runner: runner, authToken: authToken, logger: logger}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ingest", s.handleIngest)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

type ingestRequest struct {
	Series string `json:"series"`
	Year   string `json:"year"`
	Mode   string `json:"mode"`
}

// handleIngest accepts a batch trigger and runs it in the background. The
// caller gets a 202 immediately; outcomes go to the log.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, ok := model.LookupSeries(req.Series); !ok {
		writeError(w, http.StatusUnprocessableEntity, "unsupported series")
		return
	}
	if !yearRe.MatchString(req.Year) {
		writeError(w, http.StatusUnprocessableEntity, "year must be a four-digit season")
		return
	}
	mode := pipeline.Mode(req.Mode)
	if mode == "" {
		mode = pipeline.ModeNewest
	}
	if mode != pipeline.ModeNewest && mode != pipeline.ModeAll {
		writeError(w, http.StatusUnprocessableEntity, "mode must be newest or all")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
		defer cancel()
		if _, err := s.runner.RunBatch(ctx, req.Series, req.Year, mode); err != nil {
			s.logger.Error("triggered batch failed",
				"series", req.Series, "year", req.Year, "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "accepted",
		"series": req.Series,
		"year":   req.Year,
		"mode":   string(mode),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	return ok && token == s.authToken
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
