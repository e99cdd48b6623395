package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReading_DecodeWireFormat(t *testing.T) {
	raw := `[
		{"_id":"r2","timestamp":"2024-05-01T10:00:05Z","pm2_5":12.5,"aqi":48},
		{"_id":"r1","timestamp":"2024-05-01T10:00:00.123456","co2":612}
	]`

	var readings []Reading
	require.NoError(t, json.Unmarshal([]byte(raw), &readings))
	require.Len(t, readings, 2)

	assert.Equal(t, RecordID("r2"), readings[0].ID)
	require.NotNil(t, readings[0].PM25)
	assert.Equal(t, 12.5, *readings[0].PM25)
	assert.Nil(t, readings[0].PM10)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 5, 0, time.UTC), readings[0].Timestamp.UTC())

	assert.Nil(t, readings[1].AQI)
	assert.Equal(t, 123456000, readings[1].Timestamp.Nanosecond())
	assert.Equal(t, time.UTC, readings[1].Timestamp.Location())
}

func TestTimestamp_UnixSeconds(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`1714557600`), &ts))
	assert.Equal(t, int64(1714557600), ts.Unix())
}

func TestTimestamp_UnparseableKeptRaw(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.True(t, ts.IsZero())
	assert.Equal(t, "yesterday", ts.Raw)

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"yesterday"`, string(b))
}

func TestTimestamp_OffsetWithoutColon(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-01T12:00:00+0200"`), &ts))
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), ts.UTC())
	assert.Empty(t, ts.Raw)
}

func TestRecordID_Opaque(t *testing.T) {
	tests := []struct {
		raw  string
		want RecordID
	}{
		{`"abc"`, "abc"},
		{`42`, "42"},
		{`1.5e3`, "1.5e3"},
		{`null`, ""},
		{`{"$oid":"65f0c0ffee"}`, "65f0c0ffee"},
		{`{ "a": 1 }`, `{"a":1}`},
	}
	for _, tt := range tests {
		var id RecordID
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &id), tt.raw)
		assert.Equal(t, tt.want, id, tt.raw)
	}
}

func TestDevice_NumericRecordID(t *testing.T) {
	var devices []Device
	require.NoError(t, json.Unmarshal([]byte(`[{"_id":7,"device_id":"d1","power":true}]`), &devices))
	assert.Equal(t, []Device{{RecordID: "7", DeviceID: "d1", Power: true}}, devices)
}

func TestTimestamp_NullRoundTrip(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestDevice_DisplayName(t *testing.T) {
	assert.Equal(t, "Bedroom", Device{DeviceID: "d1", Name: "Bedroom"}.DisplayName())
	assert.Equal(t, "d1", Device{DeviceID: "d1"}.DisplayName())
}

func TestCommand_WireFormat(t *testing.T) {
	b, err := json.Marshal(Command{DeviceID: "d1", Power: true, Mode: ModeManual})
	require.NoError(t, err)
	assert.JSONEq(t, `{"device_id":"d1","power":true,"mode":"manual"}`, string(b))
}

func TestErrors(t *testing.T) {
	var err error = &StatusError{Op: "submit command", Code: 503}
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Equal(t, "submit command: unexpected status 503", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	var se *StatusError
	require.True(t, errors.As(wrapped, &se))
	assert.Equal(t, 503, se.Code)

	c := Cancelled("list readings", context.Canceled)
	assert.True(t, IsCancelled(c))
	assert.True(t, errors.Is(c, context.Canceled))
	assert.False(t, IsCancelled(ErrTransport))
}

func TestNullGateway(t *testing.T) {
	g := NewNullGateway()
	ctx := context.Background()

	devices, err := g.ListDevices(ctx)
	require.NoError(t, err)
	assert.Empty(t, devices)

	readings, err := g.ListLatestReadings(ctx, "d1", 100)
	require.NoError(t, err)
	assert.Empty(t, readings)

	assert.ErrorIs(t, g.SubmitCommand(ctx, Command{DeviceID: "d1"}), ErrNotConnected)
}
