package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Device is an air-quality monitor known to the remote service.
type Device struct {
	RecordID RecordID `json:"_id,omitempty"` // Opaque storage id assigned by the service
	DeviceID string   `json:"device_id"`     // Stable, unique device identifier
	Name     string   `json:"name,omitempty"`
	Power    bool     `json:"power"` // Last confirmed fan state
}

// DisplayName returns the friendly name, falling back to the device id.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.DeviceID
}

// Reading is a single telemetry sample. Absent values are nil.
type Reading struct {
	ID          RecordID  `json:"_id"`
	DeviceID    string    `json:"device_id,omitempty"`
	Timestamp   Timestamp `json:"timestamp"`
	PM25        *float64  `json:"pm2_5,omitempty"`
	PM10        *float64  `json:"pm10,omitempty"`
	CO2         *float64  `json:"co2,omitempty"`
	TVOC        *float64  `json:"tvoc,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	AQI         *float64  `json:"aqi,omitempty"`
}

// Mode is the control mode attached to a command.
type Mode string

const (
	ModeManual Mode = "manual"
)

// Command asks the service to queue a fan state change for a device.
type Command struct {
	DeviceID string `json:"device_id"`
	Power    bool   `json:"power"`
	Mode     Mode   `json:"mode"`
}

// RecordID is an opaque record identifier. Strings are kept as is; any other
// JSON value (numbers, Mongo-style {"$oid": ...} objects) is kept as its
// compact JSON text, or the $oid value when present.
type RecordID string

func (id *RecordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	case b[0] == '{':
		var oid struct {
			OID string `json:"$oid"`
		}
		if err := json.Unmarshal(b, &oid); err == nil && oid.OID != "" {
			*id = RecordID(oid.OID)
			return nil
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, b); err != nil {
		return fmt.Errorf("invalid record id: %w", err)
	}
	*id = RecordID(compact.String())
	return nil
}

// Timestamp accepts the time formats the telemetry service emits: RFC 3339,
// ISO 8601 with a colon-less offset, naive ISO 8601 (interpreted as UTC) and
// unix seconds. Anything else is kept verbatim in Raw with a zero Time.
type Timestamp struct {
	time.Time
	Raw string
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] != '"' {
		secs, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			t.Raw = string(b)
			return nil
		}
		whole := int64(secs)
		t.Time = time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range zonedLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Raw = s
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		if t.Raw != "" {
			return json.Marshal(t.Raw)
		}
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
