// Package handlers implements the REST endpoints. Handlers decode and
// validate the request, resolve the caller from context, call the service and
// encode the result; business rules live in the services.
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

const maxBodyBytes = 64 << 10

// CommentHandler serves the /comments routes
type CommentHandler struct {
	comments *services.CommentService
	logger   *zap.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments *services.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// CreateCommentRequest is the POST /comments body
type CreateCommentRequest struct {
	ItemID    string `json:"itemId" validate:"required"`
	ItemTitle string `json:"itemTitle"`
	Text      string `json:"commentText" validate:"required"`
}

// Create handles POST /comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req CreateCommentRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	comment, err := h.comments.Create(r.Context(), services.CreateCommentInput{
		ItemID:     req.ItemID,
		ItemTitle:  req.ItemTitle,
		UserID:     user.UserID,
		UserName:   user.Name,
		UserAvatar: user.Avatar,
		Text:       req.Text,
	})
	if err != nil {
		h.logger.Warn("Failed to create comment", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, comment)
}

// ListByItem handles GET /comments?itemId=...
func (h *CommentHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.URL.Query().Get("itemId")
	if itemID == "" {
		common.RespondAppError(w, apperrors.NewValidationError("itemId query parameter is required"))
		return
	}

	comments, err := h.comments.ListByItem(r.Context(), itemID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, comments)
}

// ListMine handles GET /comments/mine
func (h *CommentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	comments, err := h.comments.ListByUser(r.Context(), user.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, comments)
}

// Get handles GET /comments/{itemID}/{commentID}
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	comment, err := h.comments.Get(r.Context(), chi.URLParam(r, "itemID"), chi.URLParam(r, "commentID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, comment)
}

// EditCommentRequest is the PUT body for a comment edit
type EditCommentRequest struct {
	Text string `json:"commentText" validate:"required"`
}

// Edit handles PUT /comments/{itemID}/{commentID}
func (h *CommentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req EditCommentRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	comment, err := h.comments.Edit(r.Context(),
		chi.URLParam(r, "itemID"), chi.URLParam(r, "commentID"), user.UserID, req.Text)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /comments/{itemID}/{commentID}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	err = h.comments.Delete(r.Context(),
		chi.URLParam(r, "itemID"), chi.URLParam(r, "commentID"), user.UserID, user.IsAdmin())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
