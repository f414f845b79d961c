// Package bridge turns shared-channel messages into local socket
// deliveries. One bridge runs per process, regardless of how many
// connections it serves.
package bridge

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"codeheist/internal/pubsub"
	"codeheist/internal/registry"
)

type Bridge struct {
	broker  pubsub.Broker
	players *registry.Players
	admins  *registry.Admins
}

func New(broker pubsub.Broker, players *registry.Players, admins *registry.Admins) *Bridge {
	return &Bridge{broker: broker, players: players, admins: admins}
}

// Run subscribes to the game and score channels and fans every event out
// to all locally connected sockets. It blocks until ctx is cancelled or
// the subscription dies; main starts it once as a background goroutine.
func (b *Bridge) Run(ctx context.Context) error {
	channels := []string{pubsub.ChannelGameUpdates, pubsub.ChannelPlayerScores}
	log.Info().Strs("channels", channels).Msg("broadcast bridge started")
	return b.broker.Subscribe(ctx, channels, b.dispatch)
}

func (b *Bridge) dispatch(channel string, payload []byte) {
	var ev ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("drop undecodable change event")
		return
	}
	log.Debug().Str("type", ev.Type).Str("action", ev.Action).Str("game_key", ev.GameKey).Msg("fan out change event")

	// Delivery is best effort per socket: one dead or slow client must
	// not cost any other client its event, or stop the loop.
	for _, conn := range b.players.Snapshot() {
		b.send(conn, payload)
	}
	for _, conn := range b.admins.Snapshot() {
		b.send(conn, payload)
	}
}

func (b *Bridge) send(conn registry.Conn, payload []byte) {
	if err := conn.Send(payload); err != nil {
		log.Warn().Err(err).Msg("drop event for unreachable socket")
	}
}
