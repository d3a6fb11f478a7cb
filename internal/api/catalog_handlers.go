package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seslikitap/seslikitap-server/internal/domain"
	"github.com/seslikitap/seslikitap-server/internal/http/response"
)

// CatalogResponse is the catalog snapshot payload.
type CatalogResponse struct {
	Version int64         `json:"version"`
	Books   []domain.Book `json:"books"`
}

// handleListBooks returns the current catalog snapshot.
func (s *Server) handleListBooks(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Catalog()
	response.Success(w, CatalogResponse{
		Version: snap.Version(),
		Books:   snap.Books(),
	}, s.logger)
}

// handleGetBook returns a single book by id.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "book id is required", s.logger)
		return
	}

	book, ok := s.engine.Catalog().Get(id)
	if !ok {
		response.NotFound(w, "book not found", s.logger)
		return
	}
	response.Success(w, book, s.logger)
}
