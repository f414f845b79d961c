package main

import (
	"context"
	"encoding/json"
	"net/http"

	"codeheist/internal/assistant"
	"codeheist/internal/bridge"
	"codeheist/internal/game"
	"codeheist/internal/pubsub"

	"github.com/rs/zerolog/log"
)

// publishEvent is fire and forget: the mutation already committed, so a
// broadcast failure is logged and the HTTP response is unaffected.
func publishEvent(ctx context.Context, broker pubsub.Broker, channel string, ev bridge.ChangeEvent) {
	payload, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("action", ev.Action).Msg("encode change event failed")
		return
	}
	if err := broker.Publish(ctx, channel, payload); err != nil {
		log.Error().Err(err).Str("channel", channel).Str("action", ev.Action).Msg("publish change event failed")
	}
}

func joinGameHandler(ctrl *game.Controller, broker pubsub.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameKey    string `json:"game_key"`
			PlayerName string `json:"player_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.GameKey == "" || body.PlayerName == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		gameID, playerID, err := ctrl.Join(r.Context(), body.GameKey, body.PlayerName, true)
		if err != nil {
			writeGameError(w, err)
			return
		}

		if player, err := ctrl.PlayerInfo(r.Context(), body.GameKey, playerID, true); err == nil {
			raw, _ := json.Marshal(player)
			publishEvent(r.Context(), broker, pubsub.ChannelGameUpdates, bridge.ChangeEvent{
				Type:     bridge.TypePlayerUpdate,
				Action:   bridge.ActionJoin,
				GameKey:  body.GameKey,
				PlayerID: playerID,
				Player:   raw,
			})
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"game_id":   gameID,
			"player_id": playerID,
		})
	}
}

func gameInfoHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameKey := r.URL.Query().Get("game_key")
		playerID := r.URL.Query().Get("player_id")
		if gameKey == "" || playerID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		player, err := ctrl.PlayerInfo(r.Context(), gameKey, playerID, true)
		if err != nil {
			writeGameError(w, err)
			return
		}
		info, err := ctrl.GameInfo(r.Context(), gameKey)
		if err != nil {
			writeGameError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"player": player,
			"game":   info,
		})
	}
}

func guessHandler(ctrl *game.Controller, broker pubsub.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameKey  string `json:"game_key"`
			PlayerID string `json:"player_id"`
			Guess    string `json:"guess"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.GameKey == "" || body.PlayerID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		res, err := ctrl.Guess(r.Context(), body.GameKey, body.PlayerID, body.Guess)
		if err != nil {
			writeGameError(w, err)
			return
		}

		if res.Correct {
			publishEvent(r.Context(), broker, pubsub.ChannelPlayerScores, bridge.ChangeEvent{
				Type:     bridge.TypePlayerUpdate,
				Action:   bridge.ActionLevelComplete,
				GameKey:  body.GameKey,
				PlayerID: body.PlayerID,
				Level:    res.CompletedLevel,
				Score:    res.Score,
			})
			_ = json.NewEncoder(w).Encode(map[string]any{
				"message": "Correct guess",
				"correct": true,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "Incorrect guess",
			"correct": false,
		})
	}
}

func streamChatHandler(ctrl *game.Controller, chat *assistant.Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameKey  string              `json:"game_key"`
			PlayerID string              `json:"player_id"`
			Messages []chatClientMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.GameKey == "" || body.PlayerID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		player, err := ctrl.PlayerInfo(r.Context(), body.GameKey, body.PlayerID, true)
		if err != nil {
			writeGameError(w, err)
			return
		}

		messages := make([]assistant.Message, 0, len(body.Messages))
		for _, m := range body.Messages {
			messages = append(messages, m.toMessage())
		}
		if err := chat.StreamChat(r.Context(), w, body.GameKey, player.Level, messages); err != nil {
			log.Error().Err(err).Str("game_key", body.GameKey).Int("level", player.Level).Msg("stream chat failed")
			writeGameError(w, err)
		}
	}
}

// chatClientMessage is the transcript entry shape the frontend sends:
// a numbered message flagged as user or assistant.
type chatClientMessage struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
	User    bool   `json:"user"`
}

func (m chatClientMessage) toMessage() assistant.Message {
	role := "assistant"
	if m.User {
		role = "user"
	}
	return assistant.Message{Role: role, Content: m.Message}
}

