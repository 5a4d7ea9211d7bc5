package api

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
)

const (
	defaultCardPage = 50
	importFormField = "file"
)

type reviewRequest struct {
	CardID    int64 `json:"cardId" validate:"required,gt=0"`
	IsCorrect *bool `json:"isCorrect" validate:"required"`
}

type captureRequest struct {
	Word        string `json:"word" validate:"required,max=500"`
	Translation string `json:"translation" validate:"required,max=500"`
	Context     string `json:"context" validate:"max=1000"`
}

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cards, err := s.Reviews.DueCards(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.DueCard{}
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req reviewRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Debug("review card_id=%d correct=%t", req.CardID, *req.IsCorrect)
	if err := s.Reviews.SubmitReview(r.Context(), user.ID, req.CardID, *req.IsCorrect); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, successResponse{Success: true})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	progress, err := s.Reviews.Progress(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, progress)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	bookID, err := optionalIDQuery(r.URL.Query().Get("bookId"), "bookId")
	if err != nil {
		handleError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultCardPage)
	if err != nil {
		handleError(w, r, err)
		return
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	cards, err := s.Cards.List(r.Context(), models.CardFilter{
		UserID: user.ID,
		BookID: bookID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var in models.CreateCardInput
	if err := decodeAndValidate(w, r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	in.Source = models.CardSourceManual

	card, err := s.Cards.Create(r.Context(), user.ID, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req captureRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.Cards.Capture(r.Context(), user.ID, req.Word, req.Translation, req.Context)
	if err != nil {
		handleError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, res)
}

func (s *Server) handleImportCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	user, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxImportBytes)
	if err := r.ParseMultipartForm(s.MaxImportBytes); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			handleError(w, r, errors.NewBadRequestError("import file too large"))
			return
		}
		handleError(w, r, errors.NewBadRequestError("expected a multipart form with a file field"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(importFormField)
	if err != nil {
		handleError(w, r, errors.NewValidationError(importFormField, "is required"))
		return
	}
	defer file.Close()

	bookID, err := optionalIDQuery(strings.TrimSpace(r.FormValue("bookId")), "bookId")
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("importing cards from %s (%d bytes)", header.Filename, header.Size)
	res, err := s.Imports.ImportCards(r.Context(), user.ID, bookID, header.Filename, file)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
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
	if err := s.Cards.Delete(r.Context(), user, id); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, successResponse{Success: true})
}
