// Package stream carries EMG chunks over NATS: a connection helper with
// the retry policy both commands share, and a compact binary chunk codec.
package stream

import (
	"time"

	"github.com/nats-io/nats.go"
)

// Connect dials a NATS server with the reconnect policy used by both the
// simulator and the consumer.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}
