package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/snarg/voicebridge/internal/metrics"
	"github.com/snarg/voicebridge/internal/telegram"
)

// MediaHandler produces the reply text for a message carrying a media
// attachment.
type MediaHandler interface {
	HandleMedia(ctx context.Context, msg *telegram.Message) string
}

// ReplySender sends a text reply to a chat.
type ReplySender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

const usagePrompt = "Please send a voice, video, or video note for transcription."

// WebhookHandler receives Telegram bot updates, authorizes the sender, and
// relays the dispatcher's result back to the chat. It always answers the
// webhook itself with 2xx/4xx JSON; user-visible outcomes travel via
// sendMessage.
type WebhookHandler struct {
	replies   ReplySender
	media     MediaHandler
	allowList []string
}

// NewWebhookHandler creates the webhook handler. An empty allowList permits
// every sender.
func NewWebhookHandler(replies ReplySender, media MediaHandler, allowList []string) *WebhookHandler {
	return &WebhookHandler{
		replies:   replies,
		media:     media,
		allowList: allowList,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var update telegram.Update
	if err := DecodeJSON(r, &update); err != nil {
		log.Error().Err(err).Msg("received non-JSON webhook body")
		WriteError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	msg := update.Message
	if msg == nil {
		log.Warn().Int64("update_id", update.UpdateID).Msg("update has no message")
		WriteJSON(w, http.StatusOK, map[string]string{"status": "no message body"})
		return
	}

	if msg.Chat == nil || msg.Chat.ID == 0 || msg.From == nil || msg.From.Username == "" {
		log.Error().Int64("update_id", update.UpdateID).Msg("message missing chat_id or username")
		WriteError(w, http.StatusBadRequest, "missing chat_id or username")
		return
	}
	chatID := msg.Chat.ID
	username := msg.From.Username

	// A panic while handling a single update must not take the process
	// down without telling the user anything.
	defer func() {
		if rv := recover(); rv != nil {
			log.Error().Interface("panic", rv).Int64("chat_id", chatID).Msg("recovered from panic handling update")
			h.reply(r.Context(), *log, chatID, "An unexpected error occurred. The administrator has been notified.")
			WriteError(w, http.StatusInternalServerError, "internal server error")
		}
	}()

	if !h.allowed(username) {
		log.Warn().Str("username", username).Msg("unauthorized sender")
		h.reply(r.Context(), *log, chatID, "Sorry, user '"+username+"' is not authorized.")
		WriteJSON(w, http.StatusOK, map[string]string{"status": "unauthorized"})
		return
	}

	replyText := usagePrompt
	switch {
	case msg.Voice != nil, msg.Video != nil, msg.VideoNote != nil:
		replyText = h.media.HandleMedia(r.Context(), msg)
	case msg.Text != "":
		replyText = "You sent text. " + usagePrompt
	}

	h.reply(r.Context(), *log, chatID, replyText)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) reply(ctx context.Context, log zerolog.Logger, chatID int64, text string) {
	if err := h.replies.SendMessage(ctx, chatID, text); err != nil {
		metrics.TelegramRepliesTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
		return
	}
	metrics.TelegramRepliesTotal.WithLabelValues("ok").Inc()
}

func (h *WebhookHandler) allowed(username string) bool {
	if len(h.allowList) == 0 {
		return true
	}
	for _, u := range h.allowList {
		if u == username {
			return true
		}
	}
	return false
}
