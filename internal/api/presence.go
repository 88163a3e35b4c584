package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/presence"
	"github.com/nerrad567/gray-logic-presence/internal/timer"
)

// setTimeoutRequest is the body of PUT /presence/timeout.
type setTimeoutRequest struct {
	Timeout string `json:"timeout"`
}

// handleGetPresence returns the controller status.
func (s *Server) handleGetPresence(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.presence.Status())
}

// handleSetTimeout changes the idle timeout from the next countdown on.
func (s *Server) handleSetTimeout(w http.ResponseWriter, r *http.Request) {
	var req setTimeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := time.ParseDuration(req.Timeout)
	if err != nil {
		writeValidationError(w, "timeout must be a duration such as \"5m\"")
		return
	}

	if err := s.presence.SetTimeout(d); err != nil {
		switch {
		case errors.Is(err, timer.ErrInvalidTimeout):
			writeValidationError(w, "timeout must be positive")
		case errors.Is(err, timer.ErrStopped):
			writeUnavailable(w, "presence controller stopped")
		default:
			s.logger.Error("failed to set presence timeout", "error", err)
			writeInternalError(w, "failed to set timeout")
		}
		return
	}

	writeJSON(w, http.StatusOK, s.presence.Status())
}

// handleStart reports activity as if motion had been seen.
func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	if err := s.presence.Start(); err != nil {
		s.logger.Warn("manual start rejected", "error", err)
		writeUnavailable(w, "presence controller stopped")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleCommand applies a manual command (start, hold, release or note).
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd presence.CommandMessage
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.presence.Execute(cmd); err != nil {
		switch {
		case errors.Is(err, presence.ErrUnknownCommand):
			writeValidationError(w, err.Error())
		case errors.Is(err, timer.ErrStopped):
			writeUnavailable(w, "presence controller stopped")
		default:
			s.logger.Error("presence command failed", "command", cmd.Command, "error", err)
			writeInternalError(w, "command failed")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"command": cmd.Command,
	})
}

// handleListEvents returns recorded presence events, newest first.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := presence.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, presence.MaxRecentLimit)
	}

	events, err := s.presence.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list presence events", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"limit":  limit,
	})
}
