package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"holdthatthought-backend/application/services"
	"holdthatthought-backend/pkg/auth"
	"holdthatthought-backend/pkg/common"
	apperrors "holdthatthought-backend/pkg/errors"
	"holdthatthought-backend/pkg/utils"
)

// AdminHandler serves the /admin routes: the draft review queue and the
// ingestion trigger. The router gates the group behind the admin role.
type AdminHandler struct {
	letters       *services.LetterService
	ingestion     *services.IngestionService
	media         *services.MediaService
	ingestLimiter auth.RateLimiter
	logger        *zap.Logger
}

// NewAdminHandler creates a new admin handler. ingestLimiter caps how often
// one admin can run the pipeline; nil disables the cap.
func NewAdminHandler(
	letters *services.LetterService,
	ingestion *services.IngestionService,
	media *services.MediaService,
	ingestLimiter auth.RateLimiter,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		letters:       letters,
		ingestion:     ingestion,
		media:         media,
		ingestLimiter: ingestLimiter,
		logger:        logger,
	}
}

// ListDrafts handles GET /admin/drafts
func (h *AdminHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.letters.ListDrafts(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, drafts)
}

// GetDraft handles GET /admin/drafts/{draftID}
func (h *AdminHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.letters.GetDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, draft)
}

// ApproveDraft handles POST /admin/drafts/{draftID}/approve
func (h *AdminHandler) ApproveDraft(w http.ResponseWriter, r *http.Request) {
	letter, err := h.letters.ApproveDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, letter)
}

// RejectDraft handles DELETE /admin/drafts/{draftID}
func (h *AdminHandler) RejectDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.letters.RejectDraft(r.Context(), chi.URLParam(r, "draftID")); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]bool{"rejected": true})
}

// IngestRequest is the POST /admin/ingest body
type IngestRequest struct {
	UploadID string `json:"uploadId" validate:"required"`
}

// Ingest handles POST /admin/ingest: runs the pipeline over the staged files
// of one upload and returns the resulting draft
func (h *AdminHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req IngestRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	if h.ingestLimiter != nil {
		if allowed, _ := h.ingestLimiter.Allow(r.Context(), user.UserID); !allowed {
			common.RespondAppError(w, apperrors.NewRateLimitError("too many ingestion runs, try again later"))
			return
		}
	}

	prefix := h.media.StagingPrefix(req.UploadID)
	draft, err := h.ingestion.Ingest(r.Context(), req.UploadID, prefix, user.UserID)
	if err != nil {
		h.logger.Warn("Ingestion failed",
			zap.String("uploadId", req.UploadID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, draft)
}

// DeleteLetter handles DELETE /admin/letters/{letterID}
func (h *AdminHandler) DeleteLetter(w http.ResponseWriter, r *http.Request) {
	if err := h.letters.Delete(r.Context(), chi.URLParam(r, "letterID")); err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
