package mcp

import (
	"github.com/urmzd/airsync/pkg/aqi"
	"github.com/urmzd/airsync/pkg/device"
	"github.com/urmzd/airsync/pkg/engine"
)

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status    string `json:"status" jsonschema:"description=Overall health status (healthy or degraded)"`
	Backend   string `json:"backend" jsonschema:"description=Telemetry service URL or offline"`
	Timestamp string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- State Tool ---

// GetStateOutput is the output for the get_state tool
type GetStateOutput = engine.View

// --- List Devices Tool ---

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices  []DeviceInfo `json:"devices" jsonschema:"description=Devices from the last successful poll"`
	Count    int          `json:"count" jsonschema:"description=Total number of devices"`
	Selected string       `json:"selected" jsonschema:"description=Currently selected device ID"`
}

// DeviceInfo represents a device in tool outputs
type DeviceInfo struct {
	ID       string `json:"id" jsonschema:"description=Stable device identifier"`
	Name     string `json:"name" jsonschema:"description=Display name"`
	Power    bool   `json:"power" jsonschema:"description=Last confirmed fan state"`
	Selected bool   `json:"selected" jsonschema:"description=Whether this device is selected"`
}

// --- Select Device Tool ---

// SelectDeviceOutput is the output for the select_device tool
type SelectDeviceOutput struct {
	Selected string `json:"selected" jsonschema:"description=Selected device ID, empty when cleared"`
	Loading  bool   `json:"loading" jsonschema:"description=Whether readings for the selection are loading"`
}

// --- Toggle Fan Tool ---

// ToggleFanOutput is the output for the toggle_fan tool
type ToggleFanOutput struct {
	Command device.Command `json:"command" jsonschema:"description=Command submitted to the service"`
	Message string         `json:"message" jsonschema:"description=Status message"`
}

// --- Classify AQI Tool ---

// ClassifyAQIOutput is the output for the classify_aqi tool
type ClassifyAQIOutput struct {
	Value    *float64     `json:"value" jsonschema:"description=Classified value, null when absent"`
	Label    string       `json:"label" jsonschema:"description=Category label"`
	Severity aqi.Severity `json:"severity" jsonschema:"description=Severity bucket"`
	Color    string       `json:"color" jsonschema:"description=Badge colour"`
	Badge    string       `json:"badge" jsonschema:"description=Label with value"`
}

// DeviceToInfo converts a device.Device to DeviceInfo
func DeviceToInfo(d device.Device, selected string) DeviceInfo {
	return DeviceInfo{
		ID:       d.DeviceID,
		Name:     d.DisplayName(),
		Power:    d.Power,
		Selected: d.DeviceID == selected,
	}
}
