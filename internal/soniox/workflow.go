package soniox

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/voicebridge/internal/metrics"
)

// Workflow runs one transcription request end to end: upload the payload,
// start an asynchronous job, wait for completion, fetch the transcript, and
// delete both server-side resources. A Workflow is safe for concurrent use;
// each Run owns its own file and job handles and shares only the underlying
// HTTP client.
type Workflow struct {
	client         *Client
	poller         *Poller
	cleanupTimeout time.Duration
	log            zerolog.Logger
}

// NewWorkflow creates a transcription workflow. cleanupTimeout bounds the
// final deletion phase so it cannot hang a cancelled run.
func NewWorkflow(client *Client, poller *Poller, cleanupTimeout time.Duration, log zerolog.Logger) *Workflow {
	return &Workflow{
		client:         client,
		poller:         poller,
		cleanupTimeout: cleanupTimeout,
		log:            log,
	}
}

// Run transcribes one media payload. contentType is an advisory label
// forwarded to the service, never validated against the payload. On success
// it returns the transcript text; on failure it returns a *Error — no other
// error type and no raw fault ever crosses this boundary.
//
// Cleanup of any handle obtained along the way always runs, on every exit
// path including cancellation. Each deletion is attempted exactly once and
// its failure is logged, never surfaced.
func (w *Workflow) Run(ctx context.Context, payload []byte, contentType string) (text string, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if werr, ok := err.(*Error); ok {
			outcome = werr.Kind.String()
		} else if err != nil {
			outcome = "unknown"
		}
		metrics.TranscriptionsTotal.WithLabelValues(outcome).Inc()
		metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
	}()

	if len(payload) == 0 {
		return "", &Error{Kind: KindProtocolViolation, Stage: StageUpload, Detail: "empty payload"}
	}

	var fileID, jobID string
	defer func() { w.cleanup(ctx, jobID, fileID) }()

	// 1. Upload. No handles exist until this succeeds.
	fileID, uerr := w.client.UploadFile(ctx, payload, contentType)
	if uerr != nil {
		return "", classify(StageUpload, uerr)
	}
	w.log.Debug().Str("file_id", fileID).Int("bytes", len(payload)).Msg("file uploaded")

	// 2. Start the job. From here on the uploaded file must be deleted
	// whatever happens.
	jobID, serr := w.client.StartTranscription(ctx, fileID)
	if serr != nil {
		return "", classify(StageStart, serr)
	}
	w.log.Debug().Str("transcription_id", jobID).Msg("transcription started")

	// 3. Wait for a terminal status.
	outcome := w.poller.Poll(ctx, jobID)
	switch outcome.State {
	case PollCompleted:
	case PollError:
		return "", &Error{Kind: KindRemoteRejection, Stage: StagePoll, Detail: outcome.Message}
	case PollTimedOut:
		return "", &Error{Kind: KindTimedOut, Stage: StagePoll, Detail: outcome.Message}
	default:
		return "", &Error{Kind: KindTransportFault, Stage: StagePoll, Detail: outcome.Message}
	}

	// 4. Fetch the transcript. An empty transcript is its own failure,
	// distinct from a fetch error.
	text, ferr := w.client.Transcript(ctx, jobID)
	if ferr != nil {
		return "", classify(StageFetch, ferr)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &Error{Kind: KindEmptyResult, Stage: StageFetch}
	}

	w.log.Info().Str("transcription_id", jobID).Int("chars", len(text)).Msg("transcription complete")
	return text, nil
}

// cleanup deletes whichever handles were obtained, job first, each attempted
// independently. It runs under its own detached deadline so a cancelled or
// expired run still releases its server-side resources.
func (w *Workflow) cleanup(ctx context.Context, jobID, fileID string) {
	if jobID == "" && fileID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cleanupTimeout)
	defer cancel()

	if jobID != "" {
		if err := w.client.DeleteTranscription(ctx, jobID); err != nil {
			w.log.Error().Err(err).Str("transcription_id", jobID).Msg("failed to delete transcription")
		} else {
			w.log.Debug().Str("transcription_id", jobID).Msg("deleted transcription")
		}
	}
	if fileID != "" {
		if err := w.client.DeleteFile(ctx, fileID); err != nil {
			w.log.Error().Err(err).Str("file_id", fileID).Msg("failed to delete file")
		} else {
			w.log.Debug().Str("file_id", fileID).Msg("deleted file")
		}
	}
}
