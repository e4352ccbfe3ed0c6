// Package messagequeue defines the port interface for event publishing.
package messagequeue

import "context"

// Queue is the port interface for publishing authorization events
// (membership changes, module toggles) to interested services.
type Queue interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}
