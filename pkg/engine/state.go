package engine

import (
	"time"

	"github.com/urmzd/airsync/pkg/aqi"
	"github.com/urmzd/airsync/pkg/device"
)

// Status line values shown next to the device picker.
const (
	StatusUpdating = "Updating…"
	StatusLive     = "Live"
	StatusWaiting  = "Waiting for data"
)

// Assumption is a fan state the client assumes after a queued command,
// pending confirmation by the next device list snapshot.
type Assumption struct {
	Power    bool      `json:"power"`
	IssuedAt time.Time `json:"issued_at"`
}

// State is the observable sync state. Values handed out by the engine are
// copies; mutating them has no effect on the engine.
type State struct {
	Devices  []device.Device       `json:"devices"`
	Selected string                `json:"selected"`
	Readings []device.Reading      `json:"readings"`
	Loading  bool                  `json:"loading"`
	Sending  bool                  `json:"sending"`
	Message  string                `json:"message"`
	Assumed  map[string]Assumption `json:"assumed,omitempty"`
	Version  uint64                `json:"version"`
}

// SelectedDevice returns the selected device as of the last device snapshot.
// It reports false when nothing is selected or the device left the list.
func (s State) SelectedDevice() (device.Device, bool) {
	if s.Selected == "" {
		return device.Device{}, false
	}
	for _, d := range s.Devices {
		if d.DeviceID == s.Selected {
			return d, true
		}
	}
	return device.Device{}, false
}

// PowerOn is the confirmed fan state of the selected device.
func (s State) PowerOn() bool {
	d, _ := s.SelectedDevice()
	return d.Power
}

// Latest returns the newest reading, if any.
func (s State) Latest() (device.Reading, bool) {
	if len(s.Readings) == 0 {
		return device.Reading{}, false
	}
	return s.Readings[0], true
}

// Status summarises reading freshness for display.
func (s State) Status() string {
	switch {
	case s.Loading:
		return StatusUpdating
	case len(s.Readings) > 0:
		return StatusLive
	default:
		return StatusWaiting
	}
}

// View is a State with its derived values, as rendered by the surfaces.
type View struct {
	State
	Status  string          `json:"status"`
	PowerOn bool            `json:"power_on"`
	Latest  *device.Reading `json:"latest"`
	AQI     aqi.Category    `json:"aqi"`
	Badge   string          `json:"badge"`
	Color   string          `json:"color"`
}

// View derives the rendered view of s.
func (s State) View() View {
	v := View{
		State:   s,
		Status:  s.Status(),
		PowerOn: s.PowerOn(),
	}
	var value *float64
	if latest, ok := s.Latest(); ok {
		v.Latest = &latest
		value = latest.AQI
	}
	v.AQI = aqi.Classify(value)
	v.Badge = aqi.Badge(value)
	v.Color = v.AQI.Color()
	return v
}

func (s State) clone() State {
	out := s
	if s.Devices != nil {
		out.Devices = append([]device.Device(nil), s.Devices...)
	}
	if s.Readings != nil {
		out.Readings = append([]device.Reading(nil), s.Readings...)
	}
	if len(s.Assumed) > 0 {
		out.Assumed = make(map[string]Assumption, len(s.Assumed))
		for k, v := range s.Assumed {
			out.Assumed[k] = v
		}
	} else {
		out.Assumed = nil
	}
	return out
}
