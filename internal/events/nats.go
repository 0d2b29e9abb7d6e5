package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATS publishes events to a NATS server, one subject per event type
// under a common prefix ("vrl.events.import.completed", ...). Consumers
// subscribe with a wildcard to see everything for the deployment.
type NATS struct {
	nc     *nats.Conn
	prefix string
}

// NewNATS connects to the given server. The connection reconnects
// indefinitely; events published while disconnected are buffered by the
// client up to its default pending limits.
func NewNATS(url, prefix string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("vrl-server"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATS{nc: nc, prefix: prefix}, nil
}

func (n *NATS) Publish(ctx context.Context, e Event) error {
	e = stamp(e)
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.nc.Publish(n.prefix+"."+e.Type, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close flushes pending messages before closing the connection.
func (n *NATS) Close() {
	if n.nc != nil {
		_ = n.nc.Drain()
	}
}
