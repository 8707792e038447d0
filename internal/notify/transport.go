package notify

import (
	"context"

	"pathfinder/internal/domain"
)

// Transport is the outbound push channel. The core treats it as an opaque
// best-effort sink: a returned error means this one delivery failed, nothing
// more.
type Transport interface {
	Send(ctx context.Context, topic, title string, priority domain.Priority, body string) error
}
