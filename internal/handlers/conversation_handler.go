package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "sofia/internal/errors"
	"sofia/internal/models"
	"sofia/internal/pagination"
	"sofia/internal/services"
	"sofia/internal/userlock"
)

// ConversationHandler exposes a web session's interaction history.
type ConversationHandler struct {
	store     services.UserDataServicer
	assistant services.AssistantServicer
	locks     *userlock.Locker
}

// NewConversationHandler creates a new ConversationHandler. locks must be
// the same Locker the assistant serializes messages with.
func NewConversationHandler(store services.UserDataServicer, assistant services.AssistantServicer, locks *userlock.Locker) *ConversationHandler {
	if locks == nil {
		locks = userlock.New()
	}
	return &ConversationHandler{store: store, assistant: assistant, locks: locks}
}

// ConversationResponse is one page of history, newest first.
type ConversationResponse struct {
	pagination.PageResponse[models.HistoryEntry]
	TotalInteractions int `json:"total_interactions"`
}

// GetConversation lists a session's history
// @Summary     Get conversation history
// @Description List the logged interactions of a web session, newest first
// @Tags        conversations
// @Produce     json
// @Param       session_id path  string true  "Session ID"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} ConversationResponse "History page"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     503 {object} ErrorResponse "Storage unavailable"
// @Router      /conversations/{session_id} [get]
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	sessionID, err := pathUserID(c, "session_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	userID := webUserID(sessionID)
	ns, err := h.store.EnsureUserNamespace(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var history *models.HistoryRecord
	err = h.locks.WithLock(c.Request.Context(), ns, func() error {
		var loadErr error
		history, loadErr = h.store.LoadHistory(c.Request.Context(), userID)
		return loadErr
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	entries := make([]models.HistoryEntry, len(history.Conversations))
	for i, e := range history.Conversations {
		entries[len(entries)-1-i] = e
	}

	c.JSON(http.StatusOK, ConversationResponse{
		PageResponse:      pagination.Slice(entries, page),
		TotalInteractions: history.TotalInteractions,
	})
}

// ClearConversation resets a session's history
// @Summary     Clear conversation history
// @Description Delete the logged interactions of a web session and drop any pending edit
// @Tags        conversations
// @Produce     json
// @Param       session_id path string true "Session ID"
// @Success     200 {object} MessageResponse "Cleared"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     503 {object} ErrorResponse "Storage unavailable"
// @Router      /conversations/{session_id} [delete]
func (h *ConversationHandler) ClearConversation(c *gin.Context) {
	sessionID, err := pathUserID(c, "session_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.assistant.ClearConversation(c.Request.Context(), webUserID(sessionID)); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Conversation cleared"})
}
