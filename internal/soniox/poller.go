package soniox

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// PollState is the terminal state of a completion poll.
type PollState int

const (
	PollCompleted PollState = iota
	PollError
	PollTimedOut
	PollTransportFailure
)

// PollOutcome is the result of waiting for a transcription job to finish.
// Message carries the service-reported error detail or a transport reason.
type PollOutcome struct {
	State   PollState
	Message string
}

// Poller waits for a transcription job to reach a terminal status by
// checking it at a fixed interval, up to a fixed number of attempts.
// Intentionally a plain sleep loop rather than backoff: jobs are short and
// each workflow run polls exactly one job.
type Poller struct {
	client      *Client
	maxAttempts int
	delay       time.Duration
	log         zerolog.Logger
}

// NewPoller creates a completion poller. The effective maximum wait is
// maxAttempts × delay.
func NewPoller(client *Client, maxAttempts int, delay time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		client:      client,
		maxAttempts: maxAttempts,
		delay:       delay,
		log:         log,
	}
}

// Poll checks the job status until it is terminal, the attempt budget is
// exhausted, or the context is cancelled. A status of "completed" or "error"
// ends the loop immediately; any other value counts as not yet done. HTTP
// or transport failures on the status call are not retried.
func (p *Poller) Poll(ctx context.Context, jobID string) PollOutcome {
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		st, err := p.client.Status(ctx, jobID)
		if err != nil {
			return p.statusFailure(jobID, err)
		}

		switch st.Status {
		case "completed":
			return PollOutcome{State: PollCompleted}
		case "error":
			msg := st.ErrorMessage
			if msg == "" {
				msg = "Unknown transcription error"
			}
			p.log.Error().Str("transcription_id", jobID).Str("error_message", msg).Msg("transcription failed")
			return PollOutcome{State: PollError, Message: msg}
		}

		select {
		case <-ctx.Done():
			return PollOutcome{State: PollTransportFailure, Message: ctx.Err().Error()}
		case <-time.After(p.delay):
		}
	}
	return PollOutcome{State: PollTimedOut, Message: "Transcription timed out"}
}

func (p *Poller) statusFailure(jobID string, err error) PollOutcome {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		p.log.Error().Str("transcription_id", jobID).Int("status", apiErr.Status).Msg("polling failed")
		return PollOutcome{State: PollTransportFailure, Message: "Error polling transcription status"}
	case errors.Is(err, ErrBadResponse):
		p.log.Error().Str("transcription_id", jobID).Err(err).Msg("status response parse failed")
		return PollOutcome{State: PollTransportFailure, Message: "Failed to get transcription status"}
	default:
		p.log.Error().Str("transcription_id", jobID).Err(err).Msg("network error during polling")
		return PollOutcome{State: PollTransportFailure, Message: "Network error while polling transcription status"}
	}
}
