package pubsub

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process Broker for tests and single-process runs.
type MemoryBroker struct {
	mu   sync.Mutex
	subs []*memorySub
}

type memorySub struct {
	channels map[string]bool
	ch       chan memoryMsg
}

type memoryMsg struct {
	channel string
	payload []byte
}

func NewMemory() *MemoryBroker {
	return &MemoryBroker{}
}

func (b *MemoryBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.channels[channel] {
			sub.ch <- memoryMsg{channel: channel, payload: payload}
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channels []string, fn func(channel string, payload []byte)) error {
	sub := &memorySub{channels: map[string]bool{}, ch: make(chan memoryMsg, 64)}
	for _, c := range channels {
		sub.channels[c] = true
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		for i, s := range b.subs {
			if s == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-sub.ch:
			fn(msg.channel, msg.payload)
		}
	}
}

// MemoryCache is the Cache counterpart to MemoryBroker.
type MemoryCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: map[string][]byte{}}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = append([]byte(nil), value...)
	return nil
}

func (c *MemoryCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}
