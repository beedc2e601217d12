package domain

import "context"

// EventPublisher delivers a typed message with routing headers to the
// products exchange. Publish returns only after the broker channel
// has accepted the write; failures propagate to the caller.
// Implementations must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, headers map[string]any, message any) error
}
