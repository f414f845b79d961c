package ws

import (
	"codeheist/internal/game"
)

// Inbound player messages carry a type discriminator; connect is the only
// request type today.
type ConnectMessage struct {
	Type     string `json:"type"`
	GameKey  string `json:"game_key"`
	PlayerID string `json:"player_id"`
}

type ConnectResult struct {
	Type   string          `json:"type"`
	Player game.PlayerView `json:"player"`
}

// ErrorFrame reports a failed request to the client. Most errors leave the
// connection open; identity resolution failures close it.
type ErrorFrame struct {
	Type       string `json:"type"`
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

func errorFrame(status int, msg string) ErrorFrame {
	return ErrorFrame{Type: "error", Error: msg, StatusCode: status}
}
