package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/urmzd/airsync/pkg/device"
	"github.com/urmzd/airsync/pkg/device/schema"
	"github.com/urmzd/airsync/pkg/metrics"
)

// Remote operations, also used as breaker names and metric labels.
const (
	OpListDevices   = "list_devices"
	OpListReadings  = "list_readings"
	OpSubmitCommand = "submit_command"
)

const (
	pathDevices  = "/api/devices"
	pathReadings = "/api/readings/latest"
	pathCommands = "/api/commands"
)

// Config configures the HTTP gateway.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures int
	BreakerOpenFor  time.Duration
}

// Client implements device.Gateway against the telemetry service REST API.
type Client struct {
	http      *resty.Client
	validator *schema.Validator
	metrics   *metrics.Metrics
	breakers  map[string]*gobreaker.CircuitBreaker
}

var _ device.Gateway = (*Client)(nil)

// New creates a gateway client. validator and m may be nil.
func New(cfg Config, validator *schema.Validator, m *metrics.Metrics) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	// Retry is left to the pollers; a retried POST could queue a command twice.
	httpClient := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{}).
		SetHeader("Accept", "application/json")

	c := &Client{
		http:      httpClient,
		validator: validator,
		metrics:   m,
		breakers:  make(map[string]*gobreaker.CircuitBreaker, 3),
	}
	for _, op := range []string{OpListDevices, OpListReadings, OpSubmitCommand} {
		c.breakers[op] = newBreaker(op, cfg.BreakerFailures, cfg.BreakerOpenFor)
	}
	return c
}

func newBreaker(name string, failures int, openFor time.Duration) *gobreaker.CircuitBreaker {
	if failures < 1 {
		failures = 5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})
}

// countsAsHealthy keeps caller-side outcomes (cancellation, 4xx) from tripping
// the breaker.
func countsAsHealthy(err error) bool {
	if err == nil || device.IsCancelled(err) {
		return true
	}
	var se *device.StatusError
	if errors.As(err, &se) {
		return se.Code < http.StatusInternalServerError
	}
	return false
}

// ListDevices fetches the full device list.
func (c *Client) ListDevices(ctx context.Context) ([]device.Device, error) {
	resp, err := c.do(ctx, OpListDevices, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(pathDevices)
	})
	if err != nil {
		return nil, err
	}

	devices := []device.Device{}
	if err := decode(resp, &devices); err != nil {
		return nil, fmt.Errorf("%s: %w", OpListDevices, err)
	}
	return devices, nil
}

// ListLatestReadings fetches up to limit readings for deviceID, newest first.
func (c *Client) ListLatestReadings(ctx context.Context, deviceID string, limit int) ([]device.Reading, error) {
	resp, err := c.do(ctx, OpListReadings, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{
			"device_id": deviceID,
			"limit":     strconv.Itoa(limit),
		}).Get(pathReadings)
	})
	if err != nil {
		return nil, err
	}

	readings := []device.Reading{}
	if err := decode(resp, &readings); err != nil {
		return nil, fmt.Errorf("%s: %w", OpListReadings, err)
	}
	for i := range readings {
		if readings[i].DeviceID == "" {
			readings[i].DeviceID = deviceID
		}
	}
	if limit > 0 && len(readings) > limit {
		readings = readings[:limit]
	}
	return readings, nil
}

// SubmitCommand queues cmd on the service. The response body is ignored.
func (c *Client) SubmitCommand(ctx context.Context, cmd device.Command) error {
	if c.validator != nil {
		if err := c.validator.ValidateCommand(cmd); err != nil {
			return fmt.Errorf("%s: %w", OpSubmitCommand, err)
		}
	}

	_, err := c.do(ctx, OpSubmitCommand, func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Content-Type", "application/json").
			SetBody(cmd).
			Post(pathCommands)
	})
	return err
}

// do runs one request through the operation's breaker and maps failures onto
// the device error taxonomy.
func (c *Client) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()
	requestID := uuid.NewString()

	out, err := c.breakers[op].Execute(func() (interface{}, error) {
		req := c.http.R().
			SetContext(ctx).
			SetHeader("X-Request-ID", requestID)

		resp, err := send(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, device.Cancelled(op, ctx.Err())
			}
			return nil, fmt.Errorf("%s: %w: %v", op, device.ErrTransport, err)
		}
		if !resp.IsSuccess() {
			return nil, &device.StatusError{Op: op, Code: resp.StatusCode()}
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%s: %w: %v", op, device.ErrTransport, err)
	}

	c.metrics.ObserveRequest(op, outcomeOf(err), time.Since(start))
	if err != nil {
		log.Debug().Err(err).Str("op", op).Str("request_id", requestID).Msg("Remote request failed")
		return nil, err
	}
	return out.(*resty.Response), nil
}

func decode(resp *resty.Response, out any) error {
	body := resp.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case device.IsCancelled(err):
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeError
	}
}

// restyLogger routes resty's internal logging through zerolog.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	log.Error().Str("component", "resty").Msgf(strings.TrimSpace(format), v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	log.Warn().Str("component", "resty").Msgf(strings.TrimSpace(format), v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	log.Debug().Str("component", "resty").Msgf(strings.TrimSpace(format), v...)
}
