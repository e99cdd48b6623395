package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/airsync/pkg/aqi"
	"github.com/urmzd/airsync/pkg/engine"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := GetHealthOutput{
		Status:    "healthy",
		Backend:   s.backend,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.backend == "" {
		out.Status = "degraded"
		out.Backend = "offline"
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out GetStateOutput = s.monitor.Snapshot().View()
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := s.monitor.Snapshot()

	infos := make([]DeviceInfo, 0, len(state.Devices))
	for _, d := range state.Devices {
		infos = append(infos, DeviceToInfo(d, state.Selected))
	}

	out := ListDevicesOutput{
		Devices:  infos,
		Count:    len(infos),
		Selected: state.Selected,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleSelectDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, ok := request.GetArguments()["device_id"]
	if !ok || v == nil {
		return mcp.NewToolResultError(`required parameter "device_id" is missing`), nil
	}
	id, ok := v.(string)
	if !ok {
		return mcp.NewToolResultError(`parameter "device_id" must be a string`), nil
	}

	if err := s.monitor.SetSelection(strings.TrimSpace(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to select device: %s", err)), nil
	}

	state := s.monitor.Snapshot()
	out := SelectDeviceOutput{
		Selected: state.Selected,
		Loading:  state.Loading,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleToggleFan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmd, err := s.monitor.ToggleFan(ctx)
	switch {
	case errors.Is(err, engine.ErrNoSelection):
		return mcp.NewToolResultError("no device selected; call select_device first"), nil
	case errors.Is(err, engine.ErrCommandInFlight):
		return mcp.NewToolResultError("a command is already being sent; try again shortly"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", engine.MsgCommandError, err)), nil
	}

	out := ToggleFanOutput{
		Command: cmd,
		Message: s.monitor.Snapshot().Message,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleClassifyAQI(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var value *float64
	if v, ok := request.GetArguments()["value"]; ok && v != nil {
		f, ok := v.(float64)
		if !ok {
			return mcp.NewToolResultError(`parameter "value" must be a number`), nil
		}
		value = &f
	}

	category := aqi.Classify(value)
	out := ClassifyAQIOutput{
		Value:    value,
		Label:    category.Label,
		Severity: category.Severity,
		Color:    category.Color(),
		Badge:    aqi.Badge(value),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

func formatJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}
