package soniox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/rs/zerolog"
)

// APIError is a non-2xx response from the Soniox API. Body is already
// truncated to MaxErrorLen.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("soniox API error (status %d): %s", e.Status, e.Body)
}

// ErrMissingID marks a 2xx response without the expected id field.
var ErrMissingID = errors.New("missing id in response")

// ErrBadResponse marks a 2xx response whose body could not be decoded.
var ErrBadResponse = errors.New("unparseable response body")

// JobStatus is one poll's view of a transcription job.
type JobStatus struct {
	Status       string `json:"status"` // "pending", "completed", "error", ...
	ErrorMessage string `json:"error_message"`
}

// Client calls the Soniox asynchronous STT API. The http.Client is injected
// and may be shared across concurrent workflow runs; Client itself holds no
// per-request state.
type Client struct {
	baseURL       string
	token         string
	model         string
	languageHints []string
	http          *http.Client
	log           zerolog.Logger
}

// NewClient creates a Soniox API client. model and languageHints are sent
// with every StartTranscription call.
func NewClient(baseURL, token, model string, languageHints []string, httpClient *http.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL:       baseURL,
		token:         token,
		model:         model,
		languageHints: languageHints,
		http:          httpClient,
		log:           log,
	}
}

// UploadFile sends the media payload as a multipart body to /v1/files and
// returns the server-assigned file id.
func (c *Client) UploadFile(ctx context.Context, payload []byte, contentType string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// CreateFormFile hardcodes application/octet-stream, so build the part
	// header by hand to forward the advisory content type.
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="file.dat"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("write payload: %w", err)
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return extractID(body)
}

// StartTranscription starts an asynchronous transcription job for an
// uploaded file and returns the job id.
func (c *Client) StartTranscription(ctx context.Context, fileID string) (string, error) {
	reqBody, err := json.Marshal(map[string]any{
		"file_id":        fileID,
		"model":          c.model,
		"language_hints": c.languageHints,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transcriptions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return extractID(body)
}

// Status fetches the current status of a transcription job.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/transcriptions/"+jobID, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	body, err := c.do(req)
	if err != nil {
		return JobStatus{}, err
	}

	var st JobStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return JobStatus{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return st, nil
}

// Transcript fetches the text of a completed transcription job.
func (c *Client) Transcript(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/transcriptions/"+jobID+"/transcript", nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return result.Text, nil
}

// DeleteTranscription deletes a transcription job on the server.
func (c *Client) DeleteTranscription(ctx context.Context, jobID string) error {
	return c.delete(ctx, "/v1/transcriptions/"+jobID)
}

// DeleteFile deletes an uploaded file on the server.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.delete(ctx, "/v1/files/"+fileID)
}

func (c *Client) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	_, err = c.do(req)
	return err
}

// do executes the request and returns the body, converting non-2xx statuses
// into *APIError with a truncated body.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("soniox request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Body: Truncate(string(body), MaxErrorLen)}
	}
	return body, nil
}

func extractID(body []byte) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if result.ID == "" {
		return "", ErrMissingID
	}
	return result.ID, nil
}
