// Package api exposes the assistant over HTTP and a websocket chat endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MikeSquared-Agency/kai/internal/assistant"
	"github.com/MikeSquared-Agency/kai/internal/codegen"
	"github.com/MikeSquared-Agency/kai/internal/session"
	"github.com/MikeSquared-Agency/kai/internal/speech"
	"github.com/MikeSquared-Agency/kai/internal/store"
)

type Responder interface {
	Respond(ctx context.Context, s *session.Session, query string) assistant.Reply
}

type Microphone interface {
	Set(ctx context.Context, on bool) error
	Listening() bool
}

// ProgramArchive reads archived programs. RecentPrograms is newest first;
// GetProgram returns store.ErrProgramNotFound for an unknown ID.
type ProgramArchive interface {
	RecentPrograms(ctx context.Context, limit int) ([]codegen.Program, error)
	GetProgram(ctx context.Context, id uuid.UUID) (*codegen.Program, error)
}

// Options configure a Server. Mic and Programs may be nil.
type Options struct {
	Port      int
	Assistant Responder
	Session   *session.Session
	Mic       Microphone
	Programs  ProgramArchive
	Logger    *slog.Logger
}

type Server struct {
	router   *chi.Mux
	port     int
	kai      Responder
	sess     *session.Session
	mic      Microphone
	programs ProgramArchive
	logger   *slog.Logger
	upgrader websocket.Upgrader

	// one query at a time: the session is a single conversation
	queryMu sync.Mutex
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Reply  string `json:"reply"`
	Action string `json:"action"`
	Exit   bool   `json:"exit"`
}

type micRequest struct {
	On *bool `json:"on"`
}

func NewServer(opts Options) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     opts.Port,
		kai:      opts.Assistant,
		sess:     opts.Session,
		mic:      opts.Mic,
		programs: opts.Programs,
		logger:   opts.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/kai", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Post("/query", s.query)
		r.Get("/history", s.history)
		r.Delete("/history", s.clearHistory)
		r.Post("/speech/stop", s.stopSpeech)
		r.Get("/ws", s.chat)
		if s.mic != nil {
			r.Post("/mic", s.setMic)
		}
		if s.programs != nil {
			r.Get("/programs", s.listPrograms)
			r.Get("/programs/{id}", s.getProgram)
		}
	})

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("API server starting", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	listening := s.mic != nil && s.mic.Listening()
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":     "kai",
		"session":   s.sess.ID(),
		"speaking":  s.sess.Speaking(),
		"listening": listening,
	})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	writeJSON(w, http.StatusOK, s.respond(r.Context(), req.Query))
}

func (s *Server) respond(ctx context.Context, query string) queryResponse {
	s.queryMu.Lock()
	defer s.queryMu.Unlock()
	reply := s.kai.Respond(context.WithoutCancel(ctx), s.sess, query)
	return queryResponse{Reply: reply.Text, Action: reply.Action.String(), Exit: reply.Exit}
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s.sess.Export()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": s.sess.Log()})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	s.sess.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) stopSpeech(w http.ResponseWriter, r *http.Request) {
	s.sess.StopSpeaking()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setMic(w http.ResponseWriter, r *http.Request) {
	var req micRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.On == nil {
		writeError(w, http.StatusBadRequest, `body must be {"on": true|false}`)
		return
	}
	// the loop outlives this request
	err := s.mic.Set(context.WithoutCancel(r.Context()), *req.On)
	switch {
	case errors.Is(err, speech.ErrSpeaking):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.logger.Error("microphone toggle failed", "error", err)
		writeError(w, http.StatusInternalServerError, "microphone toggle failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"listening": s.mic.Listening()})
}

func (s *Server) listPrograms(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	progs, err := s.programs.RecentPrograms(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list programs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list programs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"programs": progs, "count": len(progs)})
}

func (s *Server) getProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid program id")
		return
	}
	prog, err := s.programs.GetProgram(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrProgramNotFound):
		writeError(w, http.StatusNotFound, "program not found")
		return
	case err != nil:
		s.logger.Error("failed to get program", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get program")
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

// chat reads websocket text frames as queries and answers each with a JSON reply.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		resp := s.respond(r.Context(), string(data))
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			return
		}
		if resp.Exit {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "goodbye"))
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
