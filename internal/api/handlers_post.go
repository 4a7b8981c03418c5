package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wallet-feed/internal/auth"
	"github.com/wallet-feed/internal/service"
	"github.com/wallet-feed/internal/types"
)

// handleCreatePost handles POST /api/posts/{address}. The path address
// must be the authenticated wallet.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	caller := auth.WalletFromContext(r.Context())
	if !types.SameAddress(mux.Vars(r)["address"], caller) {
		respondErrorWith(w, http.StatusForbidden, "FORBIDDEN", "Cannot post as another wallet")
		return
	}

	var input service.CreatePostInput
	if err := parseJSONBody(r, &input); err != nil {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	post, err := s.postService.Create(r.Context(), caller, input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, post)
}

// handleListPosts handles GET /api/posts/{address}
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	viewer := auth.WalletFromContext(r.Context())

	posts, err := s.postService.ListByAuthor(r.Context(), mux.Vars(r)["address"], viewer, pageParam(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, posts)
}

// handleGetPost handles GET /api/post/{id}
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	view, err := s.postService.Get(r.Context(), id, auth.WalletFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleUpdatePost handles PUT /api/post/{id}
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	var input service.UpdatePostInput
	if err := parseJSONBody(r, &input); err != nil {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	post, err := s.postService.Update(r.Context(), id, auth.WalletFromContext(r.Context()), input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// handleDeletePost handles DELETE /api/post/{id}
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	if err := s.postService.Delete(r.Context(), id, auth.WalletFromContext(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleLikePost handles POST /api/post/{id}/like
func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	like, err := s.likeService.LikePost(r.Context(), id, auth.WalletFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, like)
}

// handleUnlikePost handles DELETE /api/post/{id}/like
func (s *Server) handleUnlikePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	if err := s.likeService.UnlikePost(r.Context(), id, auth.WalletFromContext(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "unliked"})
}

// handleListPostLikes handles GET /api/post/{id}/likes
func (s *Server) handleListPostLikes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	likes, err := s.likeService.ListPostLikes(r.Context(), id, pageParam(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, likes)
}

// handleRepost handles POST /api/post/{id}/repost. An empty body or
// empty text makes a plain share; non-empty text makes a quote.
func (s *Server) handleRepost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	var input struct {
		Text string `json:"text"`
	}
	if r.ContentLength > 0 {
		if err := parseJSONBody(r, &input); err != nil {
			respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
			return
		}
	}

	share, err := s.postService.Repost(r.Context(), id, auth.WalletFromContext(r.Context()), input.Text)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, share)
}

// handleDeleteRepost handles DELETE /api/post/{id}/repost - removes the
// caller's plain share of the post.
func (s *Server) handleDeleteRepost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	if err := s.postService.DeleteRepost(r.Context(), id, auth.WalletFromContext(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "unreposted"})
}
