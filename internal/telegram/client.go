package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// DownloadError is a failed media download from Telegram. Code is the HTTP
// status when the API responded, or 500 for transport-level faults.
type DownloadError struct {
	Code   int
	Detail string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("file download failed with code %d: %s", e.Code, e.Detail)
}

// Client calls the Telegram Bot API. The http.Client is injected and shared
// with the rest of the process.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a Telegram Bot API client.
func NewClient(baseURL, token string, httpClient *http.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpClient,
		log:     log,
	}
}

// GetFile downloads a media attachment by its Telegram file id. This is a
// two-step exchange: getFile resolves the id to a server-side path, then the
// file endpoint serves the bytes. All failures come back as *DownloadError.
func (c *Client) GetFile(ctx context.Context, fileID string) ([]byte, error) {
	url := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", c.baseURL, c.token, fileID)
	body, status, err := c.get(ctx, url)
	if err != nil {
		return nil, &DownloadError{Code: 500, Detail: "an error occurred while getting the file: " + err.Error()}
	}
	if status >= 400 {
		return nil, &DownloadError{Code: status, Detail: string(body)}
	}

	var result struct {
		Result struct {
			FilePath string `json:"file_path"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &DownloadError{Code: 500, Detail: "an error occurred while getting the file: " + err.Error()}
	}
	if result.Result.FilePath == "" {
		return nil, &DownloadError{Code: 404, Detail: "file path not found in Telegram response"}
	}

	url = fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, result.Result.FilePath)
	body, status, err = c.get(ctx, url)
	if err != nil {
		return nil, &DownloadError{Code: 500, Detail: "an error occurred while getting the file: " + err.Error()}
	}
	if status >= 400 {
		return nil, &DownloadError{Code: status, Detail: string(body)}
	}
	return body, nil
}

// SendMessage sends a plain-text reply to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram sendMessage failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
