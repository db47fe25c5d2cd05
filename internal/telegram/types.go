package telegram

// Update is an incoming Telegram bot webhook payload. Only the fields the
// bridge uses are declared.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is a chat message carried by an update.
type Message struct {
	Chat      *Chat      `json:"chat"`
	From      *User      `json:"from"`
	Text      string     `json:"text"`
	Voice     *Voice     `json:"voice"`
	Video     *Video     `json:"video"`
	VideoNote *VideoNote `json:"video_note"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type User struct {
	Username string `json:"username"`
}

type Voice struct {
	FileID   string `json:"file_id"`
	MimeType string `json:"mime_type"`
}

type Video struct {
	FileID   string `json:"file_id"`
	MimeType string `json:"mime_type"`
}

// VideoNote has no mime_type field; Telegram video notes are always mp4.
type VideoNote struct {
	FileID string `json:"file_id"`
}
