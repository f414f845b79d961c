// Package pubsub carries game mutation events between backend processes.
// Every process publishes the mutations it performs and subscribes to the
// same channels, so sockets connected anywhere see every change.
package pubsub

import "context"

// Channel names shared by all processes.
const (
	ChannelGameUpdates  = "game_updates"
	ChannelPlayerScores = "player_scores"
)

// Broker is the shared fan-out channel. Publish is fire-and-forget from
// the caller's perspective: delivery to subscribers is best effort and
// never blocks on them. Subscribe blocks, invoking fn for every message
// on the given channels, until ctx is cancelled or the connection drops.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels []string, fn func(channel string, payload []byte)) error
}
