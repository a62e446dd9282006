package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"holdthatthought-backend/application/services"
	"holdthatthought-backend/pkg/auth"
	"holdthatthought-backend/pkg/common"
	apperrors "holdthatthought-backend/pkg/errors"
	"holdthatthought-backend/pkg/utils"
)

// MediaHandler serves the /media routes. File content never passes through
// the API; clients upload and download against presigned URLs.
type MediaHandler struct {
	media  *services.MediaService
	logger *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(media *services.MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{media: media, logger: logger}
}

// CreateUploadRequest is the POST /media/uploads body
type CreateUploadRequest struct {
	Filename  string `json:"filename" validate:"required"`
	MediaType string `json:"mediaType" validate:"required"`
	UploadID  string `json:"uploadId"`
}

// CreateUpload handles POST /media/uploads. Supplying an uploadId adds a file
// to an existing staging area; otherwise a new one is opened.
func (h *MediaHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req CreateUploadRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	var ticket *services.UploadTicket
	if req.UploadID != "" {
		ticket, err = h.media.AddUploadFile(r.Context(), req.UploadID, req.Filename, req.MediaType)
	} else {
		ticket, err = h.media.CreateUpload(r.Context(), user.UserID, req.Filename, req.MediaType)
	}
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, ticket)
}

// DownloadURL handles GET /media/download?key=...
func (h *MediaHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		common.RespondAppError(w, apperrors.NewValidationError("key query parameter is required"))
		return
	}

	url, err := h.media.DownloadURL(r.Context(), key)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"url": url})
}
