package sink

import "context"

// Sink durably stores sealed artifacts. Exactly one implementation is
// instantiated per process; configuration validation enforces the mutual
// exclusivity, not this interface. Store must be safe for concurrent calls.
type Sink interface {
	// Name identifies the sink in logs and status output.
	Name() string

	// Remote reports whether stored artifacts live off-host. Surfaced in the
	// daemon status output.
	Remote() bool

	// Connect performs one authenticated round trip (or local check) at
	// startup and prepares the destination.
	Connect(ctx context.Context) error

	// Store persists data as a new object named name and returns its
	// location. Existing objects are never overwritten.
	Store(ctx context.Context, name string, data []byte) (string, error)
}
