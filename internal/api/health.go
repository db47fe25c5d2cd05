package api

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

// HealthHandler reports process liveness and which collaborators are
// configured. The bridge keeps no durable state, so there is nothing
// deeper to probe without spending API quota.
type HealthHandler struct {
	version          string
	startTime        time.Time
	telegramSet      bool
	sonioxSet        bool
	allowListEntries int
}

func NewHealthHandler(version string, startTime time.Time, telegramSet, sonioxSet bool, allowListEntries int) *HealthHandler {
	return &HealthHandler{
		version:          version,
		startTime:        startTime,
		telegramSet:      telegramSet,
		sonioxSet:        sonioxSet,
		allowListEntries: allowListEntries,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if h.telegramSet {
		checks["telegram"] = "configured"
	} else {
		checks["telegram"] = "missing_token"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	if h.sonioxSet {
		checks["soniox"] = "configured"
	} else {
		checks["soniox"] = "missing_token"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	if h.allowListEntries > 0 {
		checks["allow_list"] = "restricted"
	} else {
		checks["allow_list"] = "open"
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
