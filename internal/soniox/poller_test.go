package soniox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// statusServer serves GET /v1/transcriptions/{id} from a canned sequence of
// responses, counting requests. The last response repeats.
func statusServer(t *testing.T, responses ...func(w http.ResponseWriter)) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var count atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(count.Add(1)) - 1
		if i >= len(responses) {
			i = len(responses) - 1
		}
		responses[i](w)
	}))
	t.Cleanup(srv.Close)
	return srv, &count
}

func jsonBody(body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.Write([]byte(body)) }
}

func httpStatus(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.WriteHeader(code) }
}

func newTestPoller(srv *httptest.Server, maxAttempts int) *Poller {
	client := NewClient(srv.URL, "tok", "stt-async-preview", []string{"en"}, srv.Client(), zerolog.Nop())
	return NewPoller(client, maxAttempts, time.Millisecond, zerolog.Nop())
}

func TestPoller_CompletedFirstPoll(t *testing.T) {
	srv, count := statusServer(t, jsonBody(`{"status":"completed"}`))
	p := newTestPoller(srv, 24)

	out := p.Poll(context.Background(), "t1")
	if out.State != PollCompleted {
		t.Errorf("state = %v, want PollCompleted", out.State)
	}
	if count.Load() != 1 {
		t.Errorf("requests = %d, want exactly 1", count.Load())
	}
}

func TestPoller_ErrorFirstPoll(t *testing.T) {
	srv, count := statusServer(t, jsonBody(`{"status":"error","error_message":"Bad audio"}`))
	p := newTestPoller(srv, 24)

	out := p.Poll(context.Background(), "t1")
	if out.State != PollError {
		t.Errorf("state = %v, want PollError", out.State)
	}
	if out.Message != "Bad audio" {
		t.Errorf("message = %q, want Bad audio", out.Message)
	}
	if count.Load() != 1 {
		t.Errorf("requests = %d, want exactly 1", count.Load())
	}
}

func TestPoller_ErrorWithoutMessage(t *testing.T) {
	srv, _ := statusServer(t, jsonBody(`{"status":"error"}`))
	p := newTestPoller(srv, 24)

	out := p.Poll(context.Background(), "t1")
	if out.Message != "Unknown transcription error" {
		t.Errorf("message = %q, want generic fallback", out.Message)
	}
}

func TestPoller_RetriesUntilTerminal(t *testing.T) {
	srv, count := statusServer(t,
		jsonBody(`{"status":"pending"}`),
		jsonBody(`{"status":"queued"}`),
		jsonBody(`{"status":"completed"}`),
	)
	p := newTestPoller(srv, 24)

	out := p.Poll(context.Background(), "t1")
	if out.State != PollCompleted {
		t.Errorf("state = %v, want PollCompleted", out.State)
	}
	if count.Load() != 3 {
		t.Errorf("requests = %d, want 3", count.Load())
	}
}

func TestPoller_UnrecognizedStatusRetries(t *testing.T) {
	srv, count := statusServer(t,
		jsonBody(`{"status":"warming_up"}`),
		jsonBody(`{"status":"completed"}`),
	)
	p := newTestPoller(srv, 24)

	out := p.Poll(context.Background(), "t1")
	if out.State != PollCompleted {
		t.Errorf("state = %v, want PollCompleted", out.State)
	}
	if count.Load() != 2 {
		t.Errorf("requests = %d, want 2", count.Load())
	}
}

func TestPoller_TimedOutAfterBudget(t *testing.T) {
	srv, count := statusServer(t, jsonBody(`{"status":"pending"}`))
	p := newTestPoller(srv, 24)

	out := p.Poll(context.Background(), "t1")
	if out.State != PollTimedOut {
		t.Errorf("state = %v, want PollTimedOut", out.State)
	}
	if out.Message != "Transcription timed out" {
		t.Errorf("message = %q", out.Message)
	}
	if count.Load() != 24 {
		t.Errorf("requests = %d, want 24 (configured maximum)", count.Load())
	}
}

func TestPoller_HTTPErrorNotRetried(t *testing.T) {
	srv, count := statusServer(t, httpStatus(http.StatusInternalServerError))
	p := newTestPoller(srv, 24)

	out := p.Poll(context.Background(), "t1")
	if out.State != PollTransportFailure {
		t.Errorf("state = %v, want PollTransportFailure", out.State)
	}
	if out.Message != "Error polling transcription status" {
		t.Errorf("message = %q", out.Message)
	}
	if count.Load() != 1 {
		t.Errorf("requests = %d, want 1 (transport failures are not retried)", count.Load())
	}
}

func TestPoller_UnparseableBody(t *testing.T) {
	srv, count := statusServer(t, jsonBody(`not json`))
	p := newTestPoller(srv, 24)

	out := p.Poll(context.Background(), "t1")
	if out.State != PollTransportFailure {
		t.Errorf("state = %v, want PollTransportFailure", out.State)
	}
	if out.Message != "Failed to get transcription status" {
		t.Errorf("message = %q", out.Message)
	}
	if count.Load() != 1 {
		t.Errorf("requests = %d, want 1", count.Load())
	}
}

func TestPoller_NetworkFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	p := newTestPoller(srv, 24)
	out := p.Poll(context.Background(), "t1")
	if out.State != PollTransportFailure {
		t.Errorf("state = %v, want PollTransportFailure", out.State)
	}
	if out.Message != "Network error while polling transcription status" {
		t.Errorf("message = %q", out.Message)
	}
}

func TestPoller_ContextCancelledDuringWait(t *testing.T) {
	srv, _ := statusServer(t, jsonBody(`{"status":"pending"}`))
	client := NewClient(srv.URL, "tok", "stt-async-preview", []string{"en"}, srv.Client(), zerolog.Nop())
	p := NewPoller(client, 24, time.Minute, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	out := p.Poll(ctx, "t1")
	if out.State != PollTransportFailure {
		t.Errorf("state = %v, want PollTransportFailure", out.State)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v, want prompt interruption of the wait", elapsed)
	}
}
