package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/airsync/pkg/device"
	"github.com/urmzd/airsync/pkg/device/schema"
	"github.com/urmzd/airsync/pkg/metrics"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	v, err := schema.NewCommandValidator()
	require.NoError(t, err)
	m := metrics.New()

	return New(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, BreakerFailures: 2, BreakerOpenFor: time.Minute}, v, m), m
}

func TestListDevices(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/devices", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"_id":"a","device_id":"d1","name":"Bedroom","power":true},{"_id":"b","device_id":"d2","power":false}]`))
	}))

	devices, err := c.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []device.Device{
		{RecordID: "a", DeviceID: "d1", Name: "Bedroom", Power: true},
		{RecordID: "b", DeviceID: "d2"},
	}, devices)
}

func TestListDevices_StatusError(t *testing.T) {
	c, m := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.ListDevices(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, device.ErrStatus)

	var se *device.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)

	count := testutil.CollectAndCount(m.Registry(), "airsync_gateway_requests_total")
	assert.Equal(t, 1, count)
}

func TestListLatestReadings(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/readings/latest", r.URL.Path)
		assert.Equal(t, "d1", r.URL.Query().Get("device_id"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			{"_id":"r3","timestamp":"2024-05-01T10:00:10Z","aqi":42},
			{"_id":"r2","timestamp":"2024-05-01T10:00:05Z"},
			{"_id":"r1","timestamp":"2024-05-01T10:00:00Z"}
		]`))
	}))

	readings, err := c.ListLatestReadings(context.Background(), "d1", 2)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, device.RecordID("r3"), readings[0].ID)
	assert.Equal(t, "d1", readings[0].DeviceID)
	require.NotNil(t, readings[0].AQI)
	assert.Equal(t, 42.0, *readings[0].AQI)
}

func TestListDevices_NumericRecordID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":101,"device_id":"d1","power":true},{"_id":{"$oid":"65f0"},"device_id":"d2"}]`))
	}))

	devices, err := c.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []device.Device{
		{RecordID: "101", DeviceID: "d1", Power: true},
		{RecordID: "65f0", DeviceID: "d2"},
	}, devices)
}

func TestListLatestReadings_TolerantDecode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"_id":3,"timestamp":"2024-05-01T10:00:10+0000","aqi":42},
			{"_id":2,"timestamp":"May 1st, morning"},
			{"_id":"r1","timestamp":"2024-05-01T10:00:00Z"}
		]`))
	}))

	readings, err := c.ListLatestReadings(context.Background(), "d1", 100)
	require.NoError(t, err)
	require.Len(t, readings, 3)

	assert.Equal(t, device.RecordID("3"), readings[0].ID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 10, 0, time.UTC), readings[0].Timestamp.UTC())

	assert.Equal(t, device.RecordID("2"), readings[1].ID)
	assert.True(t, readings[1].Timestamp.IsZero())
	assert.Equal(t, "May 1st, morning", readings[1].Timestamp.Raw)

	assert.Equal(t, device.RecordID("r1"), readings[2].ID)
}

func TestListLatestReadings_Cancelled(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.ListLatestReadings(ctx, "d1", 100)
	require.Error(t, err)
	assert.True(t, device.IsCancelled(err), "got %v", err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListLatestReadings_DecodeError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))

	_, err := c.ListLatestReadings(context.Background(), "d1", 100)
	assert.Error(t, err)
}

func TestSubmitCommand(t *testing.T) {
	var got map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/commands", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))

	err := c.SubmitCommand(context.Background(), device.Command{DeviceID: "d1", Power: true, Mode: device.ModeManual})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"device_id": "d1", "power": true, "mode": "manual"}, got)
}

func TestSubmitCommand_Rejected(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	err := c.SubmitCommand(context.Background(), device.Command{DeviceID: "d1", Power: false, Mode: device.ModeManual})
	assert.ErrorIs(t, err, device.ErrStatus)
}

func TestSubmitCommand_InvalidNeverSent(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	err := c.SubmitCommand(context.Background(), device.Command{Power: true, Mode: device.ModeManual})
	assert.ErrorIs(t, err, device.ErrValidation)
	assert.Equal(t, int32(0), hits.Load())
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(Config{BaseURL: srv.URL, Timeout: time.Second}, nil, nil)
	_, err := c.ListDevices(context.Background())
	assert.ErrorIs(t, err, device.ErrTransport)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for i := 0; i < 2; i++ {
		_, err := c.ListDevices(context.Background())
		assert.ErrorIs(t, err, device.ErrStatus)
	}

	_, err := c.ListDevices(context.Background())
	assert.ErrorIs(t, err, device.ErrTransport)
	assert.Equal(t, int32(2), hits.Load())

	// Breakers are per operation.
	_, err = c.ListLatestReadings(context.Background(), "d1", 1)
	assert.ErrorIs(t, err, device.ErrStatus)
}

func TestCountsAsHealthy(t *testing.T) {
	assert.True(t, countsAsHealthy(nil))
	assert.True(t, countsAsHealthy(device.Cancelled("x", context.Canceled)))
	assert.True(t, countsAsHealthy(&device.StatusError{Code: 404}))
	assert.False(t, countsAsHealthy(&device.StatusError{Code: 503}))
	assert.False(t, countsAsHealthy(device.ErrTransport))
}
