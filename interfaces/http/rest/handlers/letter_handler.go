package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"holdthatthought-backend/application/services"
	"holdthatthought-backend/pkg/common"
	apperrors "holdthatthought-backend/pkg/errors"
)

// LetterHandler serves the /letters routes
type LetterHandler struct {
	letters *services.LetterService
	logger  *zap.Logger
}

// NewLetterHandler creates a new letter handler
func NewLetterHandler(letters *services.LetterService, logger *zap.Logger) *LetterHandler {
	return &LetterHandler{letters: letters, logger: logger}
}

// List handles GET /letters with page/pageSize query parameters
func (h *LetterHandler) List(w http.ResponseWriter, r *http.Request) {
	letters, err := h.letters.List(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	params := common.ExtractPaginationParams(r)
	start, end := params.Bounds(len(letters))
	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(letters[start:end], params, len(letters)))
}

// Get handles GET /letters/{letterID}
func (h *LetterHandler) Get(w http.ResponseWriter, r *http.Request) {
	letter, err := h.letters.Get(r.Context(), chi.URLParam(r, "letterID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, letter)
}

// UpdateLetterRequest is the PATCH /letters/{letterID} body; omitted fields
// are left untouched
type UpdateLetterRequest struct {
	Title         *string   `json:"title"`
	Author        *string   `json:"author"`
	Recipient     *string   `json:"recipient"`
	LetterDate    *string   `json:"letterDate"`
	Description   *string   `json:"description"`
	Transcription *string   `json:"transcription"`
	Tags          *[]string `json:"tags"`
}

// Update handles PATCH /letters/{letterID}
func (h *LetterHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateLetterRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError("invalid request body"))
		return
	}

	letter, err := h.letters.Update(r.Context(), chi.URLParam(r, "letterID"), services.UpdateLetterInput{
		Title:         req.Title,
		Author:        req.Author,
		Recipient:     req.Recipient,
		LetterDate:    req.LetterDate,
		Description:   req.Description,
		Transcription: req.Transcription,
		Tags:          req.Tags,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, letter)
}
