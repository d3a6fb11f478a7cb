package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seslikitap/seslikitap-server/internal/http/response"
)

// handleListProgress returns every stored progress record for the session.
func (s *Server) handleListProgress(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.engine.AllProgress(), s.logger)
}

// handleGetProgress returns the stored record for one book, 404 when none.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	rec, ok := s.engine.Progress(bookID)
	if !ok {
		response.NotFound(w, "no progress for book", s.logger)
		return
	}
	response.Success(w, rec, s.logger)
}

// handleClearProgress removes the stored record for one book. Clearing an
// absent record succeeds.
func (s *Server) handleClearProgress(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	if err := s.engine.ClearProgress(r.Context(), bookID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// handleListFavorites returns the session's favorite book ids.
func (s *Server) handleListFavorites(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.engine.Favorites(), s.logger)
}

// FavoriteResponse reports a book's favorite status after a toggle.
type FavoriteResponse struct {
	BookID   string `json:"bookId"`
	Favorite bool   `json:"favorite"`
}

// handleToggleFavorite flips a book's favorite status.
func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	if _, ok := s.engine.Catalog().Get(bookID); !ok {
		response.NotFound(w, "book not found", s.logger)
		return
	}

	favorite, err := s.engine.ToggleFavorite(r.Context(), bookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, FavoriteResponse{BookID: bookID, Favorite: favorite}, s.logger)
}
