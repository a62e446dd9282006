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

// ReactionHandler serves the /reactions routes
type ReactionHandler struct {
	reactions *services.ReactionService
	logger    *zap.Logger
}

// NewReactionHandler creates a new reaction handler
func NewReactionHandler(reactions *services.ReactionService, logger *zap.Logger) *ReactionHandler {
	return &ReactionHandler{reactions: reactions, logger: logger}
}

// ToggleReactionRequest is the POST /reactions body
type ToggleReactionRequest struct {
	CommentID    string `json:"commentId" validate:"required"`
	ItemID       string `json:"itemId" validate:"required"`
	ReactionType string `json:"reactionType"`
}

// Toggle handles POST /reactions. Each call flips the caller's reaction on
// the comment.
func (h *ReactionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req ToggleReactionRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	result, err := h.reactions.Toggle(r.Context(), req.CommentID, user.UserID, req.ItemID, req.ReactionType)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ListByComment handles GET /reactions/{commentID}
func (h *ReactionHandler) ListByComment(w http.ResponseWriter, r *http.Request) {
	reactions, err := h.reactions.ListByComment(r.Context(), chi.URLParam(r, "commentID"))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, reactions)
}
