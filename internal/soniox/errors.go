package soniox

import (
	"errors"
	"fmt"
)

// MaxErrorLen bounds response bodies and fault details embedded in
// user-visible messages.
const MaxErrorLen = 100

// ErrorKind is the closed set of workflow failure categories.
type ErrorKind int

const (
	// KindRemoteRejection is an HTTP status >= 400 from the service, or a
	// job the service itself reported as failed.
	KindRemoteRejection ErrorKind = iota
	// KindProtocolViolation is a 2xx response missing an expected field or
	// with an unparseable body.
	KindProtocolViolation
	// KindTransportFault is a network/connection-level error.
	KindTransportFault
	// KindTimedOut means the completion poll exhausted its attempt budget.
	KindTimedOut
	// KindEmptyResult means the job completed but yielded no transcript text.
	KindEmptyResult
)

func (k ErrorKind) String() string {
	switch k {
	case KindRemoteRejection:
		return "remote_rejection"
	case KindProtocolViolation:
		return "protocol_violation"
	case KindTransportFault:
		return "transport_fault"
	case KindTimedOut:
		return "timed_out"
	case KindEmptyResult:
		return "empty_result"
	}
	return "unknown"
}

// Stage identifies which workflow step produced a failure.
type Stage string

const (
	StageUpload Stage = "upload"
	StageStart  Stage = "start"
	StagePoll   Stage = "poll"
	StageFetch  Stage = "fetch"
)

// Error is the only error type Workflow.Run returns. It carries structured
// detail; the user-facing string is produced by UserMessage, never by
// letting the raw fault escape.
type Error struct {
	Kind   ErrorKind
	Stage  Stage
	Status int    // HTTP status for remote rejections, 0 otherwise
	Detail string // truncated response body, poller reason, or fault text
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s (status %d): %s", e.Stage, e.Kind, e.Status, e.Detail)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %s", e.Stage, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s %s", e.Stage, e.Kind)
}

// UserMessage renders the short diagnostic sentence shown to the user.
func (e *Error) UserMessage() string {
	switch e.Stage {
	case StageUpload:
		switch e.Kind {
		case KindRemoteRejection:
			return fmt.Sprintf("File upload failed with status %d: %s", e.Status, e.Detail)
		case KindProtocolViolation:
			if e.Detail == "" {
				return "Failed to get file_id from upload response"
			}
			return "File upload failed: " + e.Detail
		default:
			return "File upload failed: " + e.Detail
		}
	case StageStart:
		switch e.Kind {
		case KindRemoteRejection:
			return fmt.Sprintf("Transcription start failed with status %d: %s", e.Status, e.Detail)
		case KindProtocolViolation:
			if e.Detail == "" {
				return "Failed to get transcription_id from response"
			}
			return "Transcription start failed: " + e.Detail
		default:
			return "Transcription start failed: " + e.Detail
		}
	case StagePoll:
		return "Transcription failed: " + e.Detail
	case StageFetch:
		switch e.Kind {
		case KindEmptyResult:
			return "Transcription completed but no text was found"
		case KindRemoteRejection:
			return fmt.Sprintf("Transcript retrieval failed with status %d: %s", e.Status, e.Detail)
		default:
			return "Transcript retrieval failed: " + e.Detail
		}
	}
	return "Transcription failed: " + e.Detail
}

// UserMessage renders any error from Workflow.Run as a user-facing string.
// Unexpected error types get a generic sentence rather than leaking internals.
func UserMessage(err error) string {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.UserMessage()
	}
	return "Transcription failed: " + Truncate(err.Error(), MaxErrorLen)
}

// Truncate caps s at n characters for display.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// classify converts a client-layer error into a stage-tagged workflow Error.
func classify(stage Stage, err error) *Error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindRemoteRejection, Stage: stage, Status: apiErr.Status, Detail: apiErr.Body}
	}
	if errors.Is(err, ErrMissingID) {
		return &Error{Kind: KindProtocolViolation, Stage: stage}
	}
	if errors.Is(err, ErrBadResponse) {
		return &Error{Kind: KindProtocolViolation, Stage: stage, Detail: "unparseable response body"}
	}
	return &Error{Kind: KindTransportFault, Stage: stage, Detail: Truncate(err.Error(), MaxErrorLen)}
}
