package api

import (
	"net/http"

	"github.com/wallet-feed/internal/auth"
	"github.com/wallet-feed/internal/service"
)

// handleGetFeed handles GET /api/feed - the authed wallet's home feed
func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	caller := auth.WalletFromContext(r.Context())

	feed, err := s.feedService.Get(r.Context(), caller, pageParam(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, feed)
}

// handleListNotifications handles GET /api/notifications
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	caller := auth.WalletFromContext(r.Context())

	notifications, err := s.notificationService.List(r.Context(), caller, pageParam(r), service.DefaultPageSize)
	if err != nil {
		respondError(w, err)
		return
	}

	unviewed, err := s.notificationService.CountUnviewed(r.Context(), caller)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unviewed":      unviewed,
	})
}

// handleMarkNotificationsViewed handles PUT /api/notifications/viewed.
// All-or-nothing: ids belonging to another wallet reject the whole call.
func (s *Server) handleMarkNotificationsViewed(w http.ResponseWriter, r *http.Request) {
	caller := auth.WalletFromContext(r.Context())

	var input struct {
		IDs []int64 `json:"ids"`
	}
	if err := parseJSONBody(r, &input); err != nil {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	if err := s.notificationService.MarkViewed(r.Context(), caller, input.IDs); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "viewed"})
}
