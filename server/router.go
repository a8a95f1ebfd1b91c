package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"hu-holdem/server/engine"
	"hu-holdem/server/session"
)

type ctxKey int

const ctxSessionKey ctxKey = iota

type api struct {
	sessions *session.Manager
	log      *zap.Logger
}

// Router serves the JSON API for human-vs-agent sessions.
func Router(m *session.Manager, log *zap.Logger) http.Handler {
	a := &api{sessions: m, log: log}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.requestLog)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": m.Len()})
	})

	r.Post("/api/sessions", a.postSession)
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Use(a.sessionCtx)
		r.Get("/", a.getSession)
		r.Delete("/", a.deleteSession)
		r.Post("/actions", a.postAction)
		r.Post("/next", a.postNext)
		r.Get("/hands", a.getHands)
		r.Get("/last", a.getLast)
		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, sessionFrom(r).Stats())
		})
	})
	return r
}

func (a *api) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.log.Debug("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (a *api) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := a.sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			a.writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	return r.Context().Value(ctxSessionKey).(*session.Session)
}

type createRequest struct {
	PlayerName string `json:"player_name"`
}

func (a *api) postSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 && !decodeRequest(w, r, &req) {
		return
	}
	s, err := a.sessions.Create(strings.TrimSpace(req.PlayerName))
	if err != nil {
		a.writeError(w, err)
		return
	}
	// the agent may hold the small blind and act first
	if err := s.AdvanceAgent(r.Context()); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.View())
}

func (a *api) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).View())
}

func (a *api) deleteSession(w http.ResponseWriter, r *http.Request) {
	a.sessions.Remove(sessionFrom(r).ID())
	w.WriteHeader(http.StatusNoContent)
}

type actionRequest struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

func (a *api) postAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	act, err := parseAction(req.Action, req.Amount)
	if err != nil {
		a.writeError(w, err)
		return
	}
	s := sessionFrom(r)
	if err := s.Act(r.Context(), act); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (a *api) postNext(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if err := s.NextHand(); err != nil {
		a.writeError(w, err)
		return
	}
	if err := s.AdvanceAgent(r.Context()); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (a *api) getHands(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, fmt.Errorf("bad limit %q", v))
			return
		}
		limit = n
	}
	hands, err := sessionFrom(r).Hands(r.Context(), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hands)
}

func (a *api) getLast(w http.ResponseWriter, r *http.Request) {
	rec, ok := sessionFrom(r).LastHand()
	if !ok {
		writeJSONError(w, http.StatusNotFound, errors.New("no finished hand yet"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// parseAction maps the request verb onto an engine action.
func parseAction(verb string, amount int) (engine.Action, error) {
	switch strings.ToLower(strings.TrimSpace(verb)) {
	case "fold", "f":
		return engine.FoldAction(), nil
	case "check", "x":
		return engine.CheckAction(), nil
	case "call", "c":
		return engine.CallAction(), nil
	case "allin", "all-in", "a":
		return engine.AllInAction(), nil
	case "bet", "b":
		if amount <= 0 {
			return engine.Action{}, fmt.Errorf("%w: bet needs a positive amount", engine.ErrUnknownAction)
		}
		return engine.BetAction(amount), nil
	case "raise", "r":
		if amount <= 0 {
			return engine.Action{}, fmt.Errorf("%w: raise needs a positive amount", engine.ErrUnknownAction)
		}
		return engine.RaiseAction(amount), nil
	}
	return engine.Action{}, fmt.Errorf("%w: %q", engine.ErrUnknownAction, verb)
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnknownAction):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrOutOfTurn),
		errors.Is(err, engine.ErrHandOver),
		errors.Is(err, engine.ErrIllegalCheck),
		errors.Is(err, engine.ErrHandInProgress),
		errors.Is(err, engine.ErrGameOver):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNoHistory):
		status = http.StatusNotImplemented
	}
	if status >= 500 {
		a.log.Error("request failed", zap.Error(err))
	}
	writeJSONError(w, status, err)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, payload any) bool {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, fmt.Errorf("content type %q", ct))
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

type errorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if status < 500 && err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Message: msg, StatusCode: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
