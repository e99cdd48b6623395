package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/airsync/pkg/api/types"
	"github.com/urmzd/airsync/pkg/device"
	"github.com/urmzd/airsync/pkg/engine"
)

const heartbeatInterval = 30 * time.Second

// StateHandler serves the sync state
type StateHandler struct {
	monitor   engine.Monitor
	heartbeat time.Duration
}

// NewStateHandler creates a new state handler
func NewStateHandler(monitor engine.Monitor) *StateHandler {
	return &StateHandler{monitor: monitor, heartbeat: heartbeatInterval}
}

// GetState handles GET /state
// @Summary      Get sync state
// @Description  Returns devices, selection, readings, flags and derived values
// @Tags         state
// @Produce      json
// @Success      200  {object}  types.StateResponse
// @Router       /state [get]
func (h *StateHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Snapshot().View())
}

// ListDevices handles GET /devices
// @Summary      List devices
// @Description  Returns the device list from the last successful poll
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.ListDevicesResponse
// @Router       /devices [get]
func (h *StateHandler) ListDevices(c *gin.Context) {
	s := h.monitor.Snapshot()
	devices := s.Devices
	if devices == nil {
		devices = []device.Device{}
	}
	c.JSON(http.StatusOK, types.ListDevicesResponse{
		Devices:  devices,
		Count:    len(devices),
		Selected: s.Selected,
	})
}

// Events handles GET /state/events (SSE stream)
// @Summary      Subscribe to state changes
// @Description  Server-Sent Events stream pushing the full state on every change
// @Tags         state
// @Produce      text/event-stream
// @Success      200  {string}  string  "SSE event stream"
// @Router       /state/events [get]
func (h *StateHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	states := h.monitor.Subscribe()
	defer h.monitor.Unsubscribe(states)

	sendSSEEvent(c.Writer, "connected", map[string]any{
		"timestamp": time.Now(),
		"message":   "Connected to state event stream",
	})
	sendSSEEvent(c.Writer, "state", h.monitor.Snapshot().View())
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case s, ok := <-states:
			if !ok {
				return
			}
			sendSSEEvent(c.Writer, "state", s.View())
			c.Writer.Flush()

		case <-ticker.C:
			sendSSEEvent(c.Writer, "heartbeat", map[string]any{
				"timestamp": time.Now(),
			})
			c.Writer.Flush()
		}
	}
}

// sendSSEEvent writes an SSE event to the response
func sendSSEEvent(w io.Writer, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: "+string(jsonData)+"\n\n")
}
