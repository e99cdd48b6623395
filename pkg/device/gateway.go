package device

import "context"

// Gateway is the boundary to the remote telemetry service. Implementations
// must honour ctx cancellation and report failures using the errors in this
// package.
type Gateway interface {
	// ListDevices returns the full, authoritative device list
	ListDevices(ctx context.Context) ([]Device, error)

	// ListLatestReadings returns up to limit readings for a device, newest first
	ListLatestReadings(ctx context.Context, deviceID string, limit int) ([]Reading, error)

	// SubmitCommand queues a command; a nil error means the service accepted it
	SubmitCommand(ctx context.Context, cmd Command) error
}

// NullGateway is a no-op gateway used when no remote service is configured.
// It lets the surfaces run with an empty device list.
type NullGateway struct{}

// NewNullGateway creates a new NullGateway.
func NewNullGateway() *NullGateway {
	return &NullGateway{}
}

func (g *NullGateway) ListDevices(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (g *NullGateway) ListLatestReadings(ctx context.Context, deviceID string, limit int) ([]Reading, error) {
	return []Reading{}, nil
}

func (g *NullGateway) SubmitCommand(ctx context.Context, cmd Command) error {
	return ErrNotConnected
}
