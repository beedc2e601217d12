package domain

import "github.com/google/uuid"

// Change-event names carried in the "event" message header.
// Downstream consumers bind header-matching queues on these values.
const (
	EventProductUpdate = "product.update"
	EventProductDelete = "product.delete"
)

// Header keys attached to every change event.
const (
	HeaderEvent    = "event"
	HeaderRowCount = "RowCount"
)

// ProductDeletionMessage is the minimal payload published when a
// product is removed, captured before the row is gone.
type ProductDeletionMessage struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ChangeHeaders builds the routing headers for a change event.
func ChangeHeaders(event string, rowCount int) map[string]any {
	return map[string]any{
		HeaderEvent:    event,
		HeaderRowCount: int32(rowCount),
	}
}
