package messaging

import "context"

// Broker publishes appointment events to downstream consumers.
// Delivery to patients (email, SMS) is a consumer concern; this API
// only emits.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
