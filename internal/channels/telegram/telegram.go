// Package telegram connects the assistant to a Telegram bot over long
// polling.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"gopkg.in/tucnak/telebot.v2"

	"sofia/internal/logger"
	"sofia/internal/services"
)

const (
	platformTelegram = "telegram"
	userPrefix       = "telegram_"
	maxPhotoBytes    = 10 << 20
	messageTimeout   = 2 * time.Minute

	msgWelcome = "¡Hola! Soy SofIA 👋 Tu asistente de finanzas. Cuéntame tus gastos e ingresos, por ejemplo \"gasté 50 en almuerzo\", y yo los registro por ti."
	msgReset   = "🧹 Listo, borré nuestra conversación. Tus transacciones siguen guardadas."
	msgNoPhoto = "😅 No pude descargar la imagen. ¿Me la envías de nuevo?"
)

// Messenger is the part of *telebot.Bot the channel uses.
type Messenger interface {
	Send(to telebot.Recipient, what interface{}, options ...interface{}) (*telebot.Message, error)
	GetFile(file *telebot.File) (io.ReadCloser, error)
}

// Channel forwards Telegram messages to the assistant and sends back its
// replies.
type Channel struct {
	messenger Messenger
	assistant services.AssistantServicer
}

// NewChannel creates a Channel around an existing messenger.
func NewChannel(messenger Messenger, assistant services.AssistantServicer) *Channel {
	return &Channel{messenger: messenger, assistant: assistant}
}

// NewBot creates a long-polling bot and registers the channel handlers on it.
func NewBot(token string, pollTimeout time.Duration, assistant services.AssistantServicer) (*telebot.Bot, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: pollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	NewChannel(b, assistant).Register(b)
	return b, nil
}

// Register installs the command, text and photo handlers.
func (ch *Channel) Register(b *telebot.Bot) {
	b.Handle("/start", ch.HandleStart)
	b.Handle("/reset", ch.HandleReset)
	b.Handle(telebot.OnText, ch.HandleText)
	b.Handle(telebot.OnPhoto, ch.HandlePhoto)
}

// UserID maps a Telegram sender onto the assistant's user id.
func UserID(u *telebot.User) string {
	return fmt.Sprintf("%s%d", userPrefix, u.ID)
}

// HandleStart greets a new chat.
func (ch *Channel) HandleStart(m *telebot.Message) {
	ch.reply(m, msgWelcome)
}

// HandleReset clears the sender's conversation history and any pending edit.
func (ch *Channel) HandleReset(m *telebot.Message) {
	if m.Sender == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	if err := ch.assistant.ClearConversation(ctx, UserID(m.Sender)); err != nil {
		logger.ForUser(UserID(m.Sender)).Errorw("Failed to clear conversation", "error", err)
		ch.reply(m, "Ay, perdón! Tuve un problemita técnico 😅 Inténtalo de nuevo.")
		return
	}
	ch.reply(m, msgReset)
}

// HandleText forwards a text message.
func (ch *Channel) HandleText(m *telebot.Message) {
	if m.Sender == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	ch.reply(m, ch.assistant.HandleMessage(ctx, services.InboundMessage{
		UserID:   UserID(m.Sender),
		Text:     m.Text,
		Platform: platformTelegram,
	}))
}

// HandlePhoto downloads the photo and forwards it with its caption.
func (ch *Channel) HandlePhoto(m *telebot.Message) {
	if m.Sender == nil || m.Photo == nil {
		return
	}
	log := logger.ForUser(UserID(m.Sender))

	data, err := ch.download(&m.Photo.File)
	if err != nil {
		log.Warnw("Failed to download photo", "file_id", m.Photo.FileID, "error", err)
		ch.reply(m, msgNoPhoto)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	ch.reply(m, ch.assistant.HandleMessage(ctx, services.InboundMessage{
		UserID:    UserID(m.Sender),
		Text:      m.Caption,
		Image:     data,
		ImageMIME: http.DetectContentType(data),
		Platform:  platformTelegram,
	}))
}

func (ch *Channel) download(file *telebot.File) ([]byte, error) {
	rc, err := ch.messenger.GetFile(file)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("photo larger than %d bytes", maxPhotoBytes)
	}
	return data, nil
}

func (ch *Channel) reply(m *telebot.Message, text string) {
	if m.Sender == nil {
		return
	}
	if _, err := ch.messenger.Send(m.Sender, text); err != nil {
		logger.ForUser(UserID(m.Sender)).Warnw("Failed to send reply", "error", err)
	}
}
