package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check the health of the airsync client and which telemetry service it syncs with"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_state",
			mcp.WithDescription("Get the full sync state: devices, selection, latest readings, loading/sending flags, status message and AQI category"),
		),
		s.handleGetState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List air-quality monitors known from the last device poll"),
		),
		s.handleListDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("select_device",
			mcp.WithDescription("Select the device whose readings are polled. An empty device_id clears the selection."),
			mcp.WithString("device_id",
				mcp.Required(),
				mcp.Description("Device ID to select, or empty to clear"),
			),
		),
		s.handleSelectDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("toggle_fan",
			mcp.WithDescription("Queue a manual command flipping the selected device's fan"),
		),
		s.handleToggleFan,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("classify_aqi",
			mcp.WithDescription("Classify an AQI value into Good, Moderate, Unhealthy (SG) or Unhealthy+"),
			mcp.WithNumber("value",
				mcp.Description("AQI value; omit for N/A"),
			),
		),
		s.handleClassifyAQI,
	)
}
