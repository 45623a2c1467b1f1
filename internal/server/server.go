// Package server exposes the document Q&A service over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"ragserver/config"
	"ragserver/internal/adapter/ratelimit"
	"ragserver/internal/port"
	"ragserver/internal/usecase"
)

// Server wires the use cases to their HTTP routes.
type Server struct {
	cfg       *config.Config
	pipeline  *usecase.Pipeline
	answerer  *usecase.Answerer
	tracker   *usecase.Tracker
	extractor port.Extractor
	llm       port.LLM
	limiter   port.Limiter
}

func New(cfg *config.Config, pipeline *usecase.Pipeline, answerer *usecase.Answerer, tracker *usecase.Tracker, extractor port.Extractor, llm port.LLM, limiter port.Limiter) *Server {
	return &Server{
		cfg:       cfg,
		pipeline:  pipeline,
		answerer:  answerer,
		tracker:   tracker,
		extractor: extractor,
		llm:       llm,
		limiter:   limiter,
	}
}

// Handler builds the route table with CORS and rate limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /ask", s.handleAsk)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /documents/{doc_id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /index/status/{doc_id}", s.handleIndexStatus)
	mux.HandleFunc("GET /llm/models", s.handleListModels)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.cors(s.rateLimit(mux))
}

// rateLimit applies per-client admission control to the upload and ask
// endpoints. Other routes pass through untouched.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		switch {
		case r.URL.Path == "/upload":
			if !s.limiter.Allow(client, ratelimit.ClassUpload) {
				writeError(w, http.StatusTooManyRequests, "Too many upload requests, try later")
				return
			}
		case strings.HasPrefix(r.URL.Path, "/ask"):
			if !s.limiter.Allow(client, ratelimit.ClassAsk) {
				writeError(w, http.StatusTooManyRequests, "Too many requests to ask endpoint, slow down")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.Server.AllowedOrigins))
	for _, o := range s.cfg.Server.AllowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr identifies a caller by IP for rate limiting.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
