package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shaharia-lab/recipechat"
	"github.com/shaharia-lab/recipechat/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type chatRequestBody struct {
	Messages []recipechat.LLMMessage `json:"messages"`
	UserID   *string                 `json:"user_id"`
}

type chatResponseBody struct {
	Messages  []recipechat.LLMMessage `json:"messages"`
	UserID    string                  `json:"user_id"`
	Persisted bool                    `json:"persisted"`
}

type historyResponseBody struct {
	Messages []recipechat.LLMMessage `json:"messages"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartSpan(r.Context(), "server.handleChat")
	defer span.End()

	if s.limiter != nil && !s.limiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	violations, err := s.validator.validate(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}
	if len(violations) > 0 {
		s.logger.WithFields(map[string]interface{}{"errors": violations}).Warn("Chat request failed schema validation")
		s.writeError(w, http.StatusUnprocessableEntity, joinViolations(violations))
		return
	}

	var payload chatRequestBody
	if err := json.Unmarshal(body, &payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	req := recipechat.ChatRequest{Messages: payload.Messages}
	if payload.UserID != nil {
		req.UserID = *payload.UserID
	}
	if cookie, err := r.Cookie(s.opts.CookieName); err == nil {
		req.IssuedUserID = cookie.Value
	}

	result, err := s.service.Chat(ctx, req)
	span.SetAttributes(
		attribute.String("user_id", result.UserID),
		attribute.Int("message_count", len(req.Messages)),
	)
	log := s.logger.WithContext(ctx).WithFields(map[string]interface{}{"user_id": result.UserID})

	var storeFailure *recipechat.StoreFailure
	switch {
	case err == nil:
	case errors.As(err, &storeFailure):
		// the reply is still returned; only persistence failed
		log.WithErr(err).Warn("Conversation not persisted")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithErr(err).Error("Chat turn failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result.NewlyIssued {
		s.setUserCookie(w, result.UserID)
	}

	log.WithFields(map[string]interface{}{
		"messages":    len(result.Messages),
		"persisted":   result.Persisted,
		"new_user_id": result.NewlyIssued,
	}).Debug("Chat turn completed")

	s.writeJSON(w, http.StatusOK, chatResponseBody{
		Messages:  result.Messages,
		UserID:    result.UserID,
		Persisted: result.Persisted,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	messages, err := s.service.History(r.Context(), userID)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{"user_id": userID}).WithErr(err).Error("Failed to load history")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, historyResponseBody{Messages: messages})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := os.ReadFile(filepath.Join(s.opts.StaticDir, "index.html"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WithErr(err).Error("Failed to read frontend")
		}
		s.writeError(w, http.StatusNotFound, "Frontend not found. Did you forget to build it?")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) setUserCookie(w http.ResponseWriter, userID string) {
	cookie := &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    userID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if s.opts.CookieMaxAge > 0 {
		cookie.MaxAge = int(s.opts.CookieMaxAge.Seconds())
	}
	http.SetCookie(w, cookie)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithErr(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorBody{Detail: detail})
}
