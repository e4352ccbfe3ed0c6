// Package broadcast defines the port for pushing real-time events to
// connected clients.
package broadcast

import "context"

// Broadcaster sends typed events to clients subscribed to a tenant.
type Broadcaster interface {
	// BroadcastTenant sends a typed event to every client bound to the
	// given tenant.
	BroadcastTenant(ctx context.Context, tenantID, eventType string, payload any)
}
