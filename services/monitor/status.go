package main

import (
	"encoding/json"
	"net/http"

	"github.com/example/aviary/internal/telemetry"
)

// StatusResponse is the daemon status snapshot served by the API.
type StatusResponse struct {
	LightState        string               `json:"light_state"`
	ScheduleMode      string               `json:"schedule_mode"`
	SerialPort        string               `json:"serial_port"`
	PendingAggregates int                  `json:"pending_aggregates"`
	LastAggregate     *telemetry.Aggregate `json:"last_aggregate,omitempty"`
	RecordingEnabled  bool                 `json:"recording_enabled"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleStatus returns the current daemon status.
// @Summary Get monitor status
// @Description Current light state, scheduling mode, serial port and pending batch size
// @Tags status
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StatusResponse
// @Failure 405 {object} ErrorResponse
// @Router /api/v1/status [get]
func (ms *MonitorService) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "method not allowed"})
		return
	}

	ms.mu.Lock()
	resp := StatusResponse{
		LightState:        ms.lightState.String(),
		ScheduleMode:      ms.mode.FileSuffix(),
		SerialPort:        ms.portPath,
		PendingAggregates: ms.pendingCount,
		LastAggregate:     ms.lastAggregate,
		RecordingEnabled:  ms.config.DataReadingAndSaving,
	}
	ms.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
