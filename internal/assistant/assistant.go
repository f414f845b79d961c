// Package assistant proxies player chat to an OpenAI-compatible
// completions endpoint, injecting the sphinx prompt for the player's
// current level so the secret code never leaves the server unprompted.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"codeheist/internal/game"
)

// Message is one turn of the chat transcript, OpenAI wire shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CodeResolver looks up the secret code for a level of a running game.
type CodeResolver interface {
	LevelCode(ctx context.Context, joinKey, level string) (string, error)
}

// Config configures the upstream completions endpoint.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

type Assistant struct {
	cfg   Config
	codes CodeResolver
}

func New(cfg Config, codes CodeResolver) *Assistant {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	return &Assistant{cfg: cfg, codes: codes}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// StreamChat forwards the transcript to the upstream model with the
// level's system prompt prepended and copies the SSE stream back to w
// verbatim. The level's model and temperature overrides are honored.
func (a *Assistant) StreamChat(ctx context.Context, w http.ResponseWriter, gameKey string, playerLevel int, messages []Message) error {
	levelID := strconv.Itoa(playerLevel)
	level, ok := game.LevelByID(levelID)
	if !ok {
		return game.ErrLevelNotFound
	}
	code, err := a.codes.LevelCode(ctx, gameKey, levelID)
	if err != nil {
		return err
	}

	payload := chatRequest{
		Model:    a.cfg.Model,
		Stream:   true,
		Messages: append([]Message{{Role: "system", Content: level.SystemPrompt(code)}}, messages...),
	}
	if level.Model != "" {
		payload.Model = level.Model
	}
	if level.Temperature != 0 {
		t := level.Temperature
		payload.Temperature = &t
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("call chat upstream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("chat upstream status %d: %s", resp.StatusCode, detail)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	_, err = io.Copy(flushWriter{w}, resp.Body)
	if err != nil {
		return fmt.Errorf("relay chat stream: %w", err)
	}
	return nil
}

// flushWriter pushes each upstream chunk to the client immediately
// instead of waiting for the response buffer to fill.
type flushWriter struct {
	w http.ResponseWriter
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if f, ok := fw.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}
