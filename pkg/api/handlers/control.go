package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/urmzd/airsync/pkg/api/types"
	"github.com/urmzd/airsync/pkg/aqi"
	"github.com/urmzd/airsync/pkg/device"
	"github.com/urmzd/airsync/pkg/engine"
)

// ControlHandler handles selection and fan control endpoints
type ControlHandler struct {
	monitor engine.Monitor
}

// NewControlHandler creates a new control handler
func NewControlHandler(monitor engine.Monitor) *ControlHandler {
	return &ControlHandler{monitor: monitor}
}

// SelectDevice handles PUT /selection
// @Summary      Select a device
// @Description  Selects the device whose readings are polled. An empty device_id clears the selection.
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        request  body      types.SelectDeviceRequest  true  "Device to select"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request body"
// @Failure      503      {object}  types.ErrorResponse  "Engine stopped"
// @Router       /selection [put]
func (h *ControlHandler) SelectDevice(c *gin.Context) {
	var req types.SelectDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if err := h.monitor.SetSelection(strings.TrimSpace(*req.DeviceID)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.monitor.Snapshot().View())
}

// ToggleFan handles POST /fan/toggle
// @Summary      Toggle the fan
// @Description  Queues a manual command flipping the selected device's confirmed fan state
// @Tags         control
// @Produce      json
// @Success      200  {object}  types.ToggleFanResponse
// @Failure      409  {object}  types.ErrorResponse  "No selection or a command is already in flight"
// @Failure      422  {object}  types.ErrorResponse  "Command failed validation"
// @Failure      502  {object}  types.ErrorResponse  "Backend rejected or unreachable"
// @Failure      503  {object}  types.ErrorResponse  "Backend not configured or engine stopped"
// @Router       /fan/toggle [post]
func (h *ControlHandler) ToggleFan(c *gin.Context) {
	cmd, err := h.monitor.ToggleFan(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	s := h.monitor.Snapshot()
	c.JSON(http.StatusOK, types.ToggleFanResponse{
		Command: cmd,
		Message: s.Message,
		State:   s.View(),
	})
}

// ClassifyAQI handles GET /aqi
// @Summary      Classify an AQI value
// @Description  Returns the category, colour and badge for an AQI value. A missing value classifies as N/A.
// @Tags         aqi
// @Produce      json
// @Param        value  query     number  false  "AQI value"
// @Success      200    {object}  types.AQIResponse
// @Failure      400    {object}  types.ErrorResponse  "Value is not a number"
// @Router       /aqi [get]
func (h *ControlHandler) ClassifyAQI(c *gin.Context) {
	var value *float64
	if raw := strings.TrimSpace(c.Query("value")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_value",
				Message: "value must be a number",
			})
			return
		}
		value = &v
	}

	category := aqi.Classify(value)
	c.JSON(http.StatusOK, types.AQIResponse{
		Value:    value,
		Label:    category.Label,
		Severity: category.Severity,
		Color:    category.Color(),
		Badge:    aqi.Badge(value),
	})
}

// writeError maps engine and gateway errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	message := err.Error()

	switch {
	case errors.Is(err, engine.ErrNoSelection):
		status, code = http.StatusConflict, "no_selection"
	case errors.Is(err, engine.ErrCommandInFlight):
		status, code = http.StatusConflict, "command_in_flight"
	case errors.Is(err, engine.ErrClosed), errors.Is(err, engine.ErrNotStarted):
		status, code = http.StatusServiceUnavailable, "engine_stopped"
	case errors.Is(err, device.ErrNotConnected):
		status, code = http.StatusServiceUnavailable, "backend_disconnected"
	case errors.Is(err, device.ErrValidation):
		status, code = http.StatusUnprocessableEntity, "invalid_command"
	case errors.Is(err, device.ErrStatus):
		status, code = http.StatusBadGateway, "backend_rejected"
		message = engine.MsgCommandError
	case errors.Is(err, device.ErrTransport):
		status, code = http.StatusBadGateway, "backend_unreachable"
		message = engine.MsgCommandError
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status, code = http.StatusGatewayTimeout, "timeout"
		message = "Request ended before the command completed"
	}

	zerolog.Ctx(c.Request.Context()).Debug().Err(err).Str("code", code).Msg("Request failed")
	c.JSON(status, types.ErrorResponse{Error: code, Message: message})
}
