package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/snarg/voicebridge/internal/soniox"
	"github.com/snarg/voicebridge/internal/telegram"
)

// Transcriber runs one transcription workflow for a media payload.
type Transcriber interface {
	Run(ctx context.Context, payload []byte, contentType string) (string, error)
}

// FileFetcher downloads a media attachment by its Telegram file id.
type FileFetcher interface {
	GetFile(ctx context.Context, fileID string) ([]byte, error)
}

// Dispatcher maps an inbound message's attachment to a payload and content
// type, runs the transcription workflow, and renders the single user-facing
// reply string. It never returns an error: every outcome is a sentence the
// caller can relay to the chat.
type Dispatcher struct {
	files      FileFetcher
	transcribe Transcriber
	log        zerolog.Logger
}

func New(files FileFetcher, transcribe Transcriber, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		files:      files,
		transcribe: transcribe,
		log:        log,
	}
}

// HandleMedia processes a voice, video, or video note message and returns
// the reply text.
func (d *Dispatcher) HandleMedia(ctx context.Context, msg *telegram.Message) string {
	fileID, contentType, ok := mediaAttachment(msg)
	if !ok {
		return "Unsupported message type."
	}
	if fileID == "" {
		return "Could not find a file_id in the message."
	}

	payload, err := d.files.GetFile(ctx, fileID)
	if err != nil {
		d.log.Error().Err(err).Str("file_id", fileID).Msg("media download failed")
		var derr *telegram.DownloadError
		if errors.As(err, &derr) {
			return fmt.Sprintf("File download failed with code %d: %s", derr.Code, soniox.Truncate(derr.Detail, soniox.MaxErrorLen))
		}
		return "File download failed"
	}

	text, err := d.transcribe.Run(ctx, payload, contentType)
	if err != nil {
		return soniox.UserMessage(err)
	}
	return "Transcription: " + text
}

// mediaAttachment returns the file id and advisory content type for the
// message's attachment. Telegram omits mime_type on some attachments, so
// each kind has a fixed fallback; video notes are always mp4.
func mediaAttachment(msg *telegram.Message) (fileID, contentType string, ok bool) {
	switch {
	case msg.Voice != nil:
		contentType = msg.Voice.MimeType
		if contentType == "" {
			contentType = "audio/ogg"
		}
		return msg.Voice.FileID, contentType, true
	case msg.Video != nil:
		contentType = msg.Video.MimeType
		if contentType == "" {
			contentType = "video/mp4"
		}
		return msg.Video.FileID, contentType, true
	case msg.VideoNote != nil:
		return msg.VideoNote.FileID, "video/mp4", true
	}
	return "", "", false
}
