package api

import (
	"net/http"

	"github.com/lingobox/lingobox/internal/models"
)

type createBookRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	books, err := s.Books.List(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if books == nil {
		books = []models.BookWithCount{}
	}
	writeJSON(w, r, http.StatusOK, books)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req createBookRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	book, err := s.Books.Create(r.Context(), user.ID, req.Title, req.Description)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, book)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Books.Delete(r.Context(), user.ID, id); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, successResponse{Success: true})
}
