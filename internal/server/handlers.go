package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"beautybot/internal/router"
)

const (
	maxBodyBytes           = 64 << 10
	badRequestMessage      = "Invalid request body."
	tooManyRequestsMessage = "Too many requests. Please wait a minute and try again."
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions,omitempty"`
	Warning     string   `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, map[string]any{"Title": s.title}); err != nil {
		requestLogger(r).Error("render index", zap.Error(err))
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)

	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "decode chat request"), http.StatusBadRequest, badRequestMessage)
		return
	}

	id := sessionID(r)
	reply, err := s.chat.Handle(r.Context(), router.Request{
		SessionID: id,
		Channel:   "web",
		Message:   req.Message,
	})
	if errors.Is(err, router.ErrInvalidInput) {
		writeJSON(w, http.StatusOK, errorResponse{Error: router.InvalidInputMessage})
		return
	}
	if err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "handle chat"), http.StatusInternalServerError, "Sorry, I couldn't process that request.")
		return
	}

	if s.chat.TakeDirty(id) && sessionCookieSent(r) {
		setSessionCookie(w, id, s.sessionTTL)
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:    reply.Text,
		Suggestions: reply.Suggestions,
		Warning:     reply.Warning,
	})
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.chat.Reset(sessionID(r))
	w.WriteHeader(http.StatusNoContent)
}

func renderHTTPError(log *zap.Logger, w http.ResponseWriter, err error, code int, msg string) {
	log.Warn("request error", zap.Int("status", code), zap.Error(err))
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
