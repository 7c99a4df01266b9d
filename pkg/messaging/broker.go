package messaging

import (
	"context"
)

// Channels used by the QR service.
const (
	ChannelPrint = "qr.print"
	ChannelScans = "qr.scans"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publisher
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Ping(ctx context.Context) error
	Close() error
}

// Publisher defines the interface for publishing messages
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}
