package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/wallet-feed/internal/auth"
	"github.com/wallet-feed/internal/service"
	"github.com/wallet-feed/internal/types"
)

// pageParam reads the 1-based page query parameter, defaulting to 1
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// pathID reads a numeric path variable
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleGetProfile handles GET /api/{address}/profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	viewer := auth.WalletFromContext(r.Context())

	view, err := s.profileService.Get(r.Context(), address, viewer)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleUpdateProfile handles PUT /api/{address}/profile. The path
// address must be the authenticated wallet.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller := auth.WalletFromContext(r.Context())
	address := mux.Vars(r)["address"]
	if !types.SameAddress(address, caller) {
		respondErrorWith(w, http.StatusForbidden, "FORBIDDEN", "Cannot edit another wallet's profile")
		return
	}

	var input service.UpdateProfileInput
	if err := parseJSONBody(r, &input); err != nil {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	view, err := s.profileService.Update(r.Context(), caller, input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleGetUser handles GET /api/user - the authenticated wallet's own
// profile plus the unviewed notification count.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	caller := auth.WalletFromContext(r.Context())

	view, err := s.profileService.Get(r.Context(), caller, caller)
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
		"profile":               view,
		"unviewedNotifications": unviewed,
	})
}

// handleExplore handles GET /api/explore - most-followed profiles
func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	viewer := auth.WalletFromContext(r.Context())

	views, err := s.profileService.Explore(r.Context(), viewer)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, views)
}

// handleFollow handles POST /api/{address}/follow
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	caller := auth.WalletFromContext(r.Context())
	dest := mux.Vars(r)["address"]

	follow, err := s.followService.Follow(r.Context(), caller, dest)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, follow)
}

// handleUnfollow handles DELETE /api/{address}/follow
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	caller := auth.WalletFromContext(r.Context())
	dest := mux.Vars(r)["address"]

	if err := s.followService.Unfollow(r.Context(), caller, dest); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "unfollowed"})
}

// handleListFollowers handles GET /api/{address}/followers
func (s *Server) handleListFollowers(w http.ResponseWriter, r *http.Request) {
	followers, err := s.followService.ListFollowers(r.Context(), mux.Vars(r)["address"], pageParam(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, followers)
}

// handleListFollowing handles GET /api/{address}/following
func (s *Server) handleListFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := s.followService.ListFollowing(r.Context(), mux.Vars(r)["address"], pageParam(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, following)
}
