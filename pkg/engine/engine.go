package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/airsync/pkg/device"
	"github.com/urmzd/airsync/pkg/metrics"
)

// Transient status messages set by ToggleFan.
const (
	MsgFanOn        = "Turned fan ON (queued)"
	MsgFanOff       = "Turned fan OFF (queued)"
	MsgCommandError = "Error sending command"
)

const (
	pollDevices  = "devices"
	pollReadings = "readings"
)

var (
	ErrNoSelection     = errors.New("no device selected")
	ErrCommandInFlight = errors.New("a command is already being sent")
	ErrNotStarted      = errors.New("engine not started")
	ErrAlreadyStarted  = errors.New("engine already started")
	ErrClosed          = errors.New("engine closed")
)

// Config holds the engine timings.
type Config struct {
	DeviceInterval  time.Duration
	ReadingInterval time.Duration
	MessageTTL      time.Duration
	ReadingLimit    int
}

// DefaultConfig returns the stock timings.
func DefaultConfig() Config {
	return Config{
		DeviceInterval:  10 * time.Second,
		ReadingInterval: 5 * time.Second,
		MessageTTL:      4 * time.Second,
		ReadingLimit:    100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DeviceInterval <= 0 {
		c.DeviceInterval = d.DeviceInterval
	}
	if c.ReadingInterval <= 0 {
		c.ReadingInterval = d.ReadingInterval
	}
	if c.MessageTTL <= 0 {
		c.MessageTTL = d.MessageTTL
	}
	if c.ReadingLimit <= 0 {
		c.ReadingLimit = d.ReadingLimit
	}
	return c
}

// Monitor is the engine surface consumed by the HTTP, MCP and MQTT adapters.
type Monitor interface {
	Snapshot() State
	Subscribe() chan State
	Unsubscribe(ch chan State)
	SetSelection(deviceID string) error
	ToggleFan(ctx context.Context) (device.Command, error)
}

// Engine keeps the device list, the selected device's readings and the
// command status in sync with a device.Gateway.
//
// All state lives on a single loop goroutine. Fetches run on their own
// goroutines and post their results back to the loop, which drops anything
// that belongs to a superseded selection.
type Engine struct {
	gw      device.Gateway
	cfg     Config
	metrics *metrics.Metrics

	ops    chan func()
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	closeOnce sync.Once
	started   chan struct{}

	// Owned by the loop goroutine.
	state State
	sub   *subscription
	gen   uint64

	publishedMu sync.RWMutex
	published   State

	subscribers   []chan State
	subscribersMu sync.Mutex
}

var _ Monitor = (*Engine)(nil)

// subscription is the reading poller bound to one selection.
type subscription struct {
	deviceID string
	gen      uint64
	cancel   context.CancelFunc
}

// New creates an engine. m may be nil.
func New(gw device.Gateway, cfg Config, m *metrics.Metrics) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		gw:      gw,
		cfg:     cfg.withDefaults(),
		metrics: m,
		ops:     make(chan func(), 32),
		ctx:     ctx,
		cancel:  cancel,
		started: make(chan struct{}),
	}
}

// Start launches the loop and the device poller. The engine stops when ctx
// is cancelled or Close is called.
func (e *Engine) Start(ctx context.Context) error {
	if e.ctx.Err() != nil {
		return ErrClosed
	}
	err := ErrAlreadyStarted
	e.startOnce.Do(func() {
		err = nil
		context.AfterFunc(ctx, e.cancel)

		e.wg.Add(2)
		go e.run()
		go e.pollDevices()
		close(e.started)

		log.Info().
			Dur("device_interval", e.cfg.DeviceInterval).
			Dur("reading_interval", e.cfg.ReadingInterval).
			Msg("Sync engine started")
	})
	return err
}

// Close stops all polling, waits for in-flight work and closes every
// subscriber channel.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		e.wg.Wait()

		e.subscribersMu.Lock()
		for _, ch := range e.subscribers {
			close(ch)
		}
		e.subscribers = nil
		e.subscribersMu.Unlock()

		log.Info().Msg("Sync engine stopped")
	})
}

// Snapshot returns a copy of the latest published state.
func (e *Engine) Snapshot() State {
	e.publishedMu.RLock()
	defer e.publishedMu.RUnlock()
	return e.published.clone()
}

// Subscribe returns a channel that receives every published state. Slow
// receivers only miss intermediate states, never the latest one.
func (e *Engine) Subscribe() chan State {
	ch := make(chan State, 16)
	e.subscribersMu.Lock()
	e.subscribers = append(e.subscribers, ch)
	e.subscribersMu.Unlock()
	return ch
}

func (e *Engine) Unsubscribe(ch chan State) {
	e.subscribersMu.Lock()
	defer e.subscribersMu.Unlock()

	for i, sub := range e.subscribers {
		if sub == ch {
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// SetSelection selects deviceID, restarting the reading poller. Selecting the
// current device is a no-op; an empty id clears the selection.
func (e *Engine) SetSelection(deviceID string) error {
	return e.call(func() {
		if e.selectDevice(deviceID) {
			e.commit()
		}
	})
}

// ToggleFan submits a command flipping the selected device's confirmed power
// state. The submission is bound to the engine's lifetime; ctx only bounds
// how long the caller waits for its outcome.
func (e *Engine) ToggleFan(ctx context.Context) (device.Command, error) {
	var (
		cmd      device.Command
		startErr error
	)
	done := make(chan error, 1)
	err := e.call(func() {
		switch {
		case e.state.Selected == "":
			startErr = ErrNoSelection
			return
		case e.state.Sending:
			startErr = ErrCommandInFlight
			return
		}

		cmd = device.Command{
			DeviceID: e.state.Selected,
			Power:    !e.state.PowerOn(),
			Mode:     device.ModeManual,
		}
		e.state.Sending = true
		e.state.Message = ""
		e.commit()

		e.wg.Add(1)
		go e.submit(cmd, done)
	})
	if err != nil {
		return device.Command{}, err
	}
	if startErr != nil {
		return device.Command{}, startErr
	}

	select {
	case err := <-done:
		return cmd, err
	case <-ctx.Done():
		return cmd, ctx.Err()
	case <-e.ctx.Done():
		return cmd, ErrClosed
	}
}

func (e *Engine) submit(cmd device.Command, done chan<- error) {
	defer e.wg.Done()

	issued := time.Now()
	err := e.gw.SubmitCommand(e.ctx, cmd)

	posted := e.post(func() {
		e.state.Sending = false
		if err != nil {
			log.Warn().Err(err).Str("device_id", cmd.DeviceID).Msg("Failed to send fan command")
			e.metrics.Command(metrics.OutcomeError)
			e.state.Message = MsgCommandError
		} else {
			log.Info().Str("device_id", cmd.DeviceID).Bool("power", cmd.Power).Msg("Fan command queued")
			e.metrics.Command(metrics.OutcomeOK)
			e.state.Message = MsgFanOff
			if cmd.Power {
				e.state.Message = MsgFanOn
			}
			if e.state.Assumed == nil {
				e.state.Assumed = make(map[string]Assumption)
			}
			e.state.Assumed[cmd.DeviceID] = Assumption{Power: cmd.Power, IssuedAt: issued}

			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				e.refreshDevices()
			}()
		}
		e.commit()

		// Not cancelled by a later message; the earlier timer may clear it.
		time.AfterFunc(e.cfg.MessageTTL, func() {
			e.post(func() {
				if e.state.Message != "" {
					e.state.Message = ""
					e.commit()
				}
			})
		})
		done <- err
	})
	if !posted {
		done <- ErrClosed
	}
}

// run is the loop goroutine.
func (e *Engine) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			e.stopSubscription()
			return
		case op := <-e.ops:
			op()
		}
	}
}

// post queues op on the loop. It reports false once the engine is stopping.
func (e *Engine) post(op func()) bool {
	select {
	case e.ops <- op:
		return true
	case <-e.ctx.Done():
		return false
	}
}

// call runs op on the loop and waits for it.
func (e *Engine) call(op func()) error {
	select {
	case <-e.started:
	default:
		if e.ctx.Err() != nil {
			return ErrClosed
		}
		return ErrNotStarted
	}

	done := make(chan struct{})
	if !e.post(func() {
		defer close(done)
		op()
	}) {
		return ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-e.ctx.Done():
		return ErrClosed
	}
}

// commit publishes the loop's state to snapshot readers and subscribers.
func (e *Engine) commit() {
	e.state.Version++
	snap := e.state.clone()

	e.publishedMu.Lock()
	e.published = snap
	e.publishedMu.Unlock()

	e.subscribersMu.Lock()
	defer e.subscribersMu.Unlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- snap.clone():
		default:
			// Drop the oldest queued state so the newest one always lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap.clone():
			default:
			}
		}
	}
}

func (e *Engine) pollDevices() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.DeviceInterval)
	defer ticker.Stop()

	e.refreshDevices()
	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.refreshDevices()
		}
	}
}

// refreshDevices fetches the device list and posts it to the loop. Whichever
// fetch completes last wins.
func (e *Engine) refreshDevices() {
	requested := time.Now()
	devices, err := e.gw.ListDevices(e.ctx)
	if err != nil {
		if e.ctx.Err() != nil || device.IsCancelled(err) {
			return
		}
		log.Debug().Err(err).Msg("Device poll failed")
		e.metrics.Poll(pollDevices, metrics.OutcomeError)
		return
	}

	e.post(func() {
		e.applyDevices(devices, requested)
	})
}

func (e *Engine) applyDevices(devices []device.Device, requested time.Time) {
	e.metrics.Poll(pollDevices, metrics.OutcomeOK)
	e.state.Devices = devices

	for id, a := range e.state.Assumed {
		if a.IssuedAt.After(requested) {
			continue
		}
		for _, d := range devices {
			if d.DeviceID == id && d.Power != a.Power {
				log.Debug().Str("device_id", id).Bool("assumed", a.Power).Bool("confirmed", d.Power).Msg("Fan state not yet applied by device")
			}
		}
		delete(e.state.Assumed, id)
	}

	if e.state.Selected == "" && len(devices) > 0 {
		e.selectDevice(devices[0].DeviceID)
	}
	e.commit()
}

// selectDevice swaps the reading subscription. It reports whether the
// selection changed.
func (e *Engine) selectDevice(id string) bool {
	if id == e.state.Selected {
		return false
	}

	e.stopSubscription()
	e.state.Selected = id
	if id == "" {
		e.state.Loading = false
		log.Info().Msg("Device selection cleared")
		return true
	}

	log.Info().Str("device_id", id).Msg("Device selected")
	e.state.Loading = true

	e.gen++
	ctx, cancel := context.WithCancel(e.ctx)
	e.sub = &subscription{deviceID: id, gen: e.gen, cancel: cancel}

	e.wg.Add(1)
	go e.pollReadings(ctx, id, e.gen)
	return true
}

func (e *Engine) stopSubscription() {
	if e.sub == nil {
		return
	}
	e.sub.cancel()
	e.sub = nil
}

func (e *Engine) pollReadings(ctx context.Context, deviceID string, gen uint64) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.ReadingInterval)
	defer ticker.Stop()

	e.refreshReadings(ctx, deviceID, gen)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.refreshReadings(ctx, deviceID, gen)
		}
	}
}

func (e *Engine) refreshReadings(ctx context.Context, deviceID string, gen uint64) {
	readings, err := e.gw.ListLatestReadings(ctx, deviceID, e.cfg.ReadingLimit)
	if ctx.Err() != nil {
		e.metrics.Poll(pollReadings, metrics.OutcomeCancelled)
		return
	}

	e.post(func() {
		e.applyReadings(deviceID, gen, readings, err)
	})
}

func (e *Engine) applyReadings(deviceID string, gen uint64, readings []device.Reading, err error) {
	if e.sub == nil || e.sub.gen != gen {
		e.metrics.Poll(pollReadings, metrics.OutcomeStale)
		return
	}

	if err != nil {
		log.Debug().Err(err).Str("device_id", deviceID).Msg("Reading poll failed")
		e.metrics.Poll(pollReadings, metrics.OutcomeError)
	} else {
		e.metrics.Poll(pollReadings, metrics.OutcomeOK)
		e.state.Readings = readings
	}
	e.state.Loading = false
	e.commit()
}
