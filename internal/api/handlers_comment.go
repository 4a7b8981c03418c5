package api

import (
	"net/http"

	"github.com/wallet-feed/internal/auth"
	"github.com/wallet-feed/internal/service"
)

// handleCreateComment handles POST /api/post/{id}/comments
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	var input service.CreateCommentInput
	if err := parseJSONBody(r, &input); err != nil {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	comment, err := s.commentService.Create(r.Context(), postID, auth.WalletFromContext(r.Context()), input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}

// handleListComments handles GET /api/post/{id}/comments
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid post id")
		return
	}

	comments, err := s.commentService.ListByPost(r.Context(), postID, auth.WalletFromContext(r.Context()), pageParam(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, comments)
}

// handleGetComment handles GET /api/comment/{id}
func (s *Server) handleGetComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid comment id")
		return
	}

	view, err := s.commentService.Get(r.Context(), id, auth.WalletFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// handleDeleteComment handles DELETE /api/comment/{id}
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid comment id")
		return
	}

	if err := s.commentService.Delete(r.Context(), id, auth.WalletFromContext(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleLikeComment handles POST /api/comment/{id}/like
func (s *Server) handleLikeComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid comment id")
		return
	}

	like, err := s.likeService.LikeComment(r.Context(), id, auth.WalletFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, like)
}

// handleUnlikeComment handles DELETE /api/comment/{id}/like
func (s *Server) handleUnlikeComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondErrorWith(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid comment id")
		return
	}

	if err := s.likeService.UnlikeComment(r.Context(), id, auth.WalletFromContext(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "unliked"})
}
