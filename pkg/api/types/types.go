package types

import (
	"time"

	"github.com/urmzd/airsync/pkg/aqi"
	"github.com/urmzd/airsync/pkg/device"
	"github.com/urmzd/airsync/pkg/engine"
)

// --- Request DTOs ---

// SelectDeviceRequest is the request body for PUT /selection. An empty
// device_id clears the selection.
type SelectDeviceRequest struct {
	DeviceID *string `json:"device_id" binding:"required"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Backend   string    `json:"backend"`
	Timestamp time.Time `json:"timestamp"`
}

// StateResponse is returned from GET /state and pushed on the event stream
type StateResponse = engine.View

// ListDevicesResponse is returned from GET /devices
type ListDevicesResponse struct {
	Devices  []device.Device `json:"devices"`
	Count    int             `json:"count"`
	Selected string          `json:"selected"`
}

// ToggleFanResponse is returned from POST /fan/toggle
type ToggleFanResponse struct {
	Command device.Command `json:"command"`
	Message string         `json:"message"`
	State   StateResponse  `json:"state"`
}

// AQIResponse is returned from GET /aqi
type AQIResponse struct {
	Value    *float64     `json:"value"`
	Label    string       `json:"label"`
	Severity aqi.Severity `json:"severity"`
	Color    string       `json:"color"`
	Badge    string       `json:"badge"`
}
