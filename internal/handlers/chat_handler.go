package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sofia/internal/clock"
	apperrors "sofia/internal/errors"
	"sofia/internal/services"
)

const (
	maxImageBytes = 10 << 20
	platformWeb   = "web"
)

// ChatHandler serves the web chat.
type ChatHandler struct {
	assistant services.AssistantServicer
	clock     clock.Clock
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(assistant services.AssistantServicer, clk clock.Clock) *ChatHandler {
	if clk == nil {
		clk = clock.Real()
	}
	return &ChatHandler{assistant: assistant, clock: clk}
}

// ChatRequest represents a text message from the web chat.
type ChatRequest struct {
	Message   string `json:"message" binding:"required,max=4000"`
	SessionID string `json:"session_id" binding:"required,max=100"`
}

// ImageChatRequest represents an image, with an optional caption, from the web chat.
type ImageChatRequest struct {
	ImageData string `json:"image_data" binding:"required"`
	MimeType  string `json:"mime_type" binding:"omitempty,max=50"`
	Message   string `json:"message" binding:"max=4000"`
	SessionID string `json:"session_id" binding:"required,max=100"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat handles a text message
// @Summary     Send a chat message
// @Description Send a message to SofIA and receive her reply. The session id identifies the web user.
// @Tags        chat
// @Accept      json
// @Produce     json
// @Param       request body ChatRequest true "Message"
// @Success     200 {object} ChatResponse "Reply"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.SessionID) == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "message and session_id are required"))
		return
	}

	reply := h.assistant.HandleMessage(c.Request.Context(), services.InboundMessage{
		UserID:   webUserID(req.SessionID),
		Text:     req.Message,
		Platform: platformWeb,
	})
	c.JSON(http.StatusOK, ChatResponse{Response: reply, Timestamp: h.clock.Now()})
}

// ChatImage handles an image message
// @Summary     Send an image
// @Description Send a base64 encoded image (receipt, bank statement, chart) with an optional caption.
// @Tags        chat
// @Accept      json
// @Produce     json
// @Param       request body ImageChatRequest true "Image"
// @Success     200 {object} ChatResponse "Reply"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /chat/image [post]
func (h *ChatHandler) ChatImage(c *gin.Context) {
	var req ImageChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "session_id is required"))
		return
	}

	image, mime, err := decodeImage(req.ImageData, req.MimeType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reply := h.assistant.HandleMessage(c.Request.Context(), services.InboundMessage{
		UserID:    webUserID(req.SessionID),
		Text:      req.Message,
		Image:     image,
		ImageMIME: mime,
		Platform:  platformWeb,
	})
	c.JSON(http.StatusOK, ChatResponse{Response: reply, Timestamp: h.clock.Now()})
}

// decodeImage accepts raw base64 or a data URL. The MIME type comes from
// the data URL, then the request, then content sniffing.
func decodeImage(data, mime string) ([]byte, string, error) {
	data = strings.TrimSpace(data)
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "malformed data URL")
		}
		if m, _, _ := strings.Cut(header, ";"); m != "" {
			mime = m
		}
		data = payload
	}

	image, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "image_data is not valid base64")
	}
	if len(image) == 0 {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "image_data is empty")
	}
	if len(image) > maxImageBytes {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "image is larger than 10MB")
	}

	if mime == "" {
		mime = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported image type "+mime)
	}
	return image, mime, nil
}
