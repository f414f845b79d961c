package pubsub

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// ValkeyBroker implements Broker on a Valkey (or Redis-compatible) server.
type ValkeyBroker struct {
	client valkey.Client
}

// NewValkey connects and verifies the server is reachable. Callers treat a
// failure here as fatal: the process must not serve traffic without its
// broadcast channel.
func NewValkey(addr string) (*ValkeyBroker, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("connect valkey %s: %w", addr, err)
	}
	if err := client.Do(context.Background(), client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey %s: %w", addr, err)
	}
	return &ValkeyBroker{client: client}, nil
}

func (b *ValkeyBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Do(ctx, b.client.B().Publish().Channel(channel).Message(string(payload)).Build()).Error()
}

func (b *ValkeyBroker) Subscribe(ctx context.Context, channels []string, fn func(channel string, payload []byte)) error {
	return b.client.Receive(ctx, b.client.B().Subscribe().Channel(channels...).Build(),
		func(msg valkey.PubSubMessage) {
			fn(msg.Channel, []byte(msg.Message))
		})
}

// Cache exposes the same connection for small key/value caching, such as
// level codes keyed by join key.
func (b *ValkeyBroker) Cache() Cache {
	return valkeyCache{client: b.client}
}

func (b *ValkeyBroker) Close() {
	b.client.Close()
}

// Cache is a minimal get/set surface for hot lookups.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

type valkeyCache struct {
	client valkey.Client
}

func (c valkeyCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (c valkeyCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(value)).Build()).Error()
}

func (c valkeyCache) Del(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
}
