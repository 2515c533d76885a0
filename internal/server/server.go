// Package server exposes the chat pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/apetrov/resume-assistant/internal/chat"
	"github.com/apetrov/resume-assistant/internal/resume"
	"github.com/apetrov/resume-assistant/internal/session"

	"go.uber.org/zap"
)

const envProduction = "production"

// Config carries the HTTP-layer settings.
type Config struct {
	// Environment selects production behavior: debug endpoints are hidden
	// and error details are withheld from response bodies.
	Environment string
	// CORSOrigins is the allowlist of origins permitted to call the API.
	CORSOrigins []string
	// RateLimitRequests is the number of requests allowed per window per IP
	// on /api/ routes. Zero disables rate limiting.
	RateLimitRequests int
	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration
}

// Server holds the handler dependencies.
type Server struct {
	chat     *chat.Service
	sessions *session.Store
	resume   *resume.Source
	logger   *zap.Logger
	cfg      Config
}

// New builds the HTTP handler with all routes and middleware attached.
func New(svc *chat.Service, sessions *session.Store, src *resume.Source, logger *zap.Logger, cfg Config) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{chat: svc, sessions: sessions, resume: src, logger: logger, cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/assess-fit", s.handleAssessFit)
	mux.HandleFunc("DELETE /api/chat/session/{id}", s.handleClearSession)
	mux.HandleFunc("GET /api/resume", s.handleResume)
	mux.HandleFunc("GET /api/resume/summary", s.handleResumeSummary)
	mux.HandleFunc("GET /health", s.handleHealth)

	if cfg.Environment != envProduction {
		mux.HandleFunc("GET /api/debug/sessions", s.handleSessionStats)
	}

	var handler http.Handler = mux
	if cfg.RateLimitRequests > 0 {
		handler = withRateLimit(handler, cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	handler = withCORS(handler, cfg.CORSOrigins)
	handler = withAccessLog(handler, logger)
	handler = withRequestID(handler)

	return handler
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type chatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type assessRequest struct {
	JobDescription string `json:"jobDescription"`
	SessionID      string `json:"sessionId"`
}

type assessResponse struct {
	Assessment string `json:"assessment"`
	FitScore   *int   `json:"fitScore,omitempty"`
	SessionID  string `json:"sessionId"`
}

type resumeSummaryResponse struct {
	Summary           string   `json:"summary"`
	KeySkills         []string `json:"keySkills"`
	YearsOfExperience int      `json:"yearsOfExperience"`
	CurrentRole       string   `json:"currentRole"`
	Languages         []string `json:"languages"`
}

type apiError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}

	result, err := s.chat.Reply(r.Context(), req.Message, req.SessionID)
	if err != nil {
		s.writeChatError(w, err, "Failed to generate response")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Message: result.Message, SessionID: result.SessionID})
}

func (s *Server) handleAssessFit(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}

	result, err := s.chat.AssessFit(r.Context(), req.JobDescription, req.SessionID)
	if err != nil {
		s.writeChatError(w, err, "Failed to generate job assessment")
		return
	}

	writeJSON(w, http.StatusOK, assessResponse{
		Assessment: result.Assessment,
		FitScore:   result.FitScore,
		SessionID:  result.SessionID,
	})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !s.sessions.Clear(id) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "session not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (s *Server) handleSessionStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Stats())
}

func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.resume.Resume())
}

func (s *Server) handleResumeSummary(w http.ResponseWriter, _ *http.Request) {
	r := s.resume.Resume()

	allSkills := make([]string, 0)
	for _, category := range sortedCategories(r.Skills) {
		allSkills = append(allSkills, r.Skills[category]...)
	}
	if len(allSkills) > 10 {
		allSkills = allSkills[:10]
	}

	currentRole := ""
	if len(r.Experience) > 0 {
		currentRole = r.Experience[0].Title
	}

	languages := make([]string, 0, len(r.Languages))
	for _, lang := range r.Languages {
		languages = append(languages, lang.Language+": "+lang.Proficiency)
	}

	writeJSON(w, http.StatusOK, resumeSummaryResponse{
		Summary:           r.Summary,
		KeySkills:         allSkills,
		YearsOfExperience: s.resume.YearsOfExperience(),
		CurrentRole:       currentRole,
		Languages:         languages,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"service":     "resume-assistant",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": s.cfg.Environment,
	})
}

// writeChatError maps pipeline errors onto the HTTP contract: 400 for
// validation, 429 for rate limiting, 500 otherwise. Error detail is only
// included outside production.
func (s *Server) writeChatError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case chat.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
	case errors.Is(err, chat.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, apiError{Error: "API rate limit reached. Please try again later."})
	default:
		resp := apiError{Error: fallback}
		if s.cfg.Environment != envProduction {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sortedCategories(skills map[string][]string) []string {
	categories := make([]string, 0, len(skills))
	for category := range skills {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
