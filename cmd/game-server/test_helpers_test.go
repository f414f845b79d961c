package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"codeheist/internal/assistant"
	"codeheist/internal/auth"
	"codeheist/internal/bridge"
	"codeheist/internal/config"
	"codeheist/internal/game"
	"codeheist/internal/pubsub"
	"codeheist/internal/registry"
	"codeheist/internal/store"
	"codeheist/internal/ws"
)

// fakeDocs keeps documents in memory. Mutate serializes on one lock the
// way the real store serializes on a row lock.
type fakeDocs struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string][]byte{}}
}

func (f *fakeDocs) key(collection, key string) string { return collection + "/" + key }

func (f *fakeDocs) Get(_ context.Context, collection, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[f.key(collection, key)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocs) Set(_ context.Context, collection, key string, doc []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[f.key(collection, key)] = doc
	return nil
}

func (f *fakeDocs) Update(_ context.Context, collection, key string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[f.key(collection, key)]
	if !ok {
		return store.ErrNotFound
	}
	var decoded map[string]any
	if err := json.Unmarshal(doc, &decoded); err != nil {
		return err
	}
	for k, v := range fields {
		decoded[k] = v
	}
	next, err := json.Marshal(decoded)
	if err != nil {
		return err
	}
	f.docs[f.key(collection, key)] = next
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, collection, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[f.key(collection, key)]; !ok {
		return store.ErrNotFound
	}
	delete(f.docs, f.key(collection, key))
	return nil
}

func (f *fakeDocs) Exists(_ context.Context, collection, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[f.key(collection, key)]
	return ok, nil
}

func (f *fakeDocs) StreamAll(_ context.Context, collection string) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	prefix := collection + "/"
	for k, doc := range f.docs {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocs) Mutate(_ context.Context, collection, key string, fn func(doc []byte) ([]byte, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[f.key(collection, key)]
	if !ok {
		return store.ErrNotFound
	}
	next, err := fn(doc)
	if err != nil {
		return err
	}
	f.docs[f.key(collection, key)] = next
	return nil
}

const testAdminPassword = "letmein"

type testEnv struct {
	server *httptest.Server
	ctrl   *game.Controller
	broker *pubsub.MemoryBroker
	auth   *auth.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	broker := pubsub.NewMemory()
	ctrl := game.NewController(newFakeDocs(), pubsub.NewMemoryCache())
	sum := sha256.Sum256([]byte(testAdminPassword))
	authMgr := auth.NewManager(hex.EncodeToString(sum[:]), "test-secret")
	chat := assistant.New(assistant.Config{BaseURL: "http://unreachable.invalid"}, ctrl)
	gateway := ws.NewGateway(ctrl, registry.NewPlayers(), registry.NewAdmins(), broker)

	cfg := config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}}
	r := newRouter(cfg, nil, ctrl, authMgr, chat, gateway, broker)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, ctrl: ctrl, broker: broker, auth: authMgr}
}

// collectEvents subscribes to channels on the memory broker and returns a
// channel of decoded events. The subscription stops at test cleanup.
func (e *testEnv) collectEvents(t *testing.T, channels ...string) <-chan bridge.ChangeEvent {
	t.Helper()
	out := make(chan bridge.ChangeEvent, 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = e.broker.Subscribe(ctx, channels, func(_ string, payload []byte) {
			var ev bridge.ChangeEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				return
			}
			out <- ev
		})
	}()
	// Give the subscriber a beat to register before the test publishes.
	time.Sleep(10 * time.Millisecond)
	return out
}

func waitEvent(t *testing.T, events <-chan bridge.ChangeEvent) bridge.ChangeEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return bridge.ChangeEvent{}
	}
}

func (e *testEnv) postJSON(t *testing.T, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp, decodeBody(t, resp)
}

func (e *testEnv) getJSON(t *testing.T, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.auth.Login(testAdminPassword)
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	return token
}

func (e *testEnv) createGame(t *testing.T) (gameID, joinKey string) {
	t.Helper()
	gameID, joinKey, err := e.ctrl.CreateGame(context.Background())
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return gameID, joinKey
}
