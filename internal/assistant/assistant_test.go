package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeheist/internal/game"
)

type fakeCodes struct {
	code string
	err  error
}

func (f fakeCodes) LevelCode(context.Context, string, string) (string, error) {
	return f.code, f.err
}

func TestStreamChatRelaysUpstream(t *testing.T) {
	var got chatRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer upstream.Close()

	a := New(Config{BaseURL: upstream.URL, APIKey: "test-key"}, fakeCodes{code: "qwertyuiop"})
	rec := httptest.NewRecorder()
	err := a.StreamChat(context.Background(), rec, "1234", 1, []Message{{Role: "user", Content: "hello"}})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "[DONE]") {
		t.Fatalf("stream not relayed verbatim: %q", body)
	}

	if !got.Stream {
		t.Fatal("upstream request not marked streaming")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v, want system prompt prepended", got.Messages)
	}
	if !strings.Contains(got.Messages[0].Content, "qwertyuiop") {
		t.Fatal("system prompt missing level code")
	}
}

func TestStreamChatLevelOverrides(t *testing.T) {
	var got chatRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer upstream.Close()

	a := New(Config{BaseURL: upstream.URL}, fakeCodes{code: "banana"})
	if err := a.StreamChat(context.Background(), httptest.NewRecorder(), "1234", 9, nil); err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	lvl, _ := game.LevelByID("9")
	if got.Model != lvl.Model {
		t.Fatalf("model = %q, want level override %q", got.Model, lvl.Model)
	}
	if got.Temperature == nil || *got.Temperature != lvl.Temperature {
		t.Fatalf("temperature = %v, want %v", got.Temperature, lvl.Temperature)
	}
}

func TestStreamChatUnknownLevel(t *testing.T) {
	a := New(Config{BaseURL: "http://unused"}, fakeCodes{code: "x"})
	err := a.StreamChat(context.Background(), httptest.NewRecorder(), "1234", 42, nil)
	if !errors.Is(err, game.ErrLevelNotFound) {
		t.Fatalf("err = %v, want ErrLevelNotFound", err)
	}
}

func TestStreamChatCodeLookupError(t *testing.T) {
	a := New(Config{BaseURL: "http://unused"}, fakeCodes{err: game.ErrGameNotFound})
	err := a.StreamChat(context.Background(), httptest.NewRecorder(), "9999", 1, nil)
	if !errors.Is(err, game.ErrGameNotFound) {
		t.Fatalf("err = %v, want ErrGameNotFound", err)
	}
}

func TestStreamChatUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	a := New(Config{BaseURL: upstream.URL}, fakeCodes{code: "x"})
	err := a.StreamChat(context.Background(), httptest.NewRecorder(), "1234", 1, nil)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want upstream status error", err)
	}
}
