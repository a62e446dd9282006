package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"holdthatthought-backend/application/services"
	"holdthatthought-backend/pkg/auth"
	"holdthatthought-backend/pkg/common"
	apperrors "holdthatthought-backend/pkg/errors"
	"holdthatthought-backend/pkg/utils"
)

// MessageHandler serves the /messages routes
type MessageHandler struct {
	messages *services.MessageService
	logger   *zap.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *services.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

// StartConversationRequest is the POST /messages/conversations body
type StartConversationRequest struct {
	Subject        string   `json:"subject"`
	ParticipantIDs []string `json:"participantIds" validate:"required,min=1"`
}

// StartConversation handles POST /messages/conversations
func (h *MessageHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req StartConversationRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	conv, err := h.messages.StartConversation(r.Context(), user.UserID, req.Subject, req.ParticipantIDs)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, conv)
}

// ListConversations handles GET /messages/conversations
func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	conversations, err := h.messages.ListConversations(r.Context(), user.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, conversations)
}

// GetConversation handles GET /messages/conversations/{conversationID}
func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	conv, err := h.messages.GetConversation(r.Context(), chi.URLParam(r, "conversationID"), user.UserID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, conv)
}

// SendMessageRequest is the POST body for sending a message
type SendMessageRequest struct {
	Text string `json:"messageText" validate:"required"`
}

// Send handles POST /messages/conversations/{conversationID}
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	var req SendMessageRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondAppError(w, apperrors.NewValidationError(err.Error()))
		return
	}

	msg, err := h.messages.Send(r.Context(), chi.URLParam(r, "conversationID"), user.UserID, user.Name, req.Text)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, msg)
}

// ListMessages handles GET /messages/conversations/{conversationID}/messages
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			common.RespondAppError(w, apperrors.NewValidationError("limit must be a non-negative integer"))
			return
		}
	}

	messages, err := h.messages.ListMessages(r.Context(), chi.URLParam(r, "conversationID"), user.UserID, limit)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, messages)
}
