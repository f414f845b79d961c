package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"codeheist/internal/auth"
	"codeheist/internal/bridge"
	"codeheist/internal/game"
	"codeheist/internal/pubsub"

	"github.com/rs/zerolog/log"
)

func adminLoginHandler(authMgr *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		token, err := authMgr.Login(body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeHTTPError(w, http.StatusUnauthorized, "invalid_credentials")
				return
			}
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		log.Info().Msg("admin logged in")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": token,
			"token_type":   "bearer",
		})
	}
}

func adminPingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "You are authenticated"})
	}
}

func adminListGamesHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := ctrl.AllGames(r.Context())
		if err != nil {
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(games)
	}
}

func adminCreateGameHandler(ctrl *game.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, joinKey, err := ctrl.CreateGame(r.Context())
		if err != nil {
			if errors.Is(err, game.ErrJoinKeyExhausted) {
				log.Error().Err(err).Msg("join key space exhausted")
			}
			writeHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"game_id":  gameID,
			"join_key": joinKey,
		})
	}
}

func adminStartGameHandler(ctrl *game.Controller, broker pubsub.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameKey string `json:"game_key"`
			Level   string `json:"level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if body.GameKey == "" || body.Level == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		startedAt, err := ctrl.StartLevel(r.Context(), body.GameKey, body.Level)
		if err != nil {
			writeGameError(w, err)
			return
		}

		publishEvent(r.Context(), broker, pubsub.ChannelGameUpdates, bridge.ChangeEvent{
			Type:      bridge.TypeGameUpdate,
			Action:    bridge.ActionStart,
			GameKey:   body.GameKey,
			Level:     body.Level,
			StartedAt: startedAt.Format(time.RFC3339),
		})
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "started_at": startedAt})
	}
}

func adminDeactivateGameHandler(ctrl *game.Controller, broker pubsub.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameKey, ok := decodeGameKey(w, r)
		if !ok {
			return
		}
		if err := ctrl.Deactivate(r.Context(), gameKey); err != nil {
			writeGameError(w, err)
			return
		}
		publishEvent(r.Context(), broker, pubsub.ChannelGameUpdates, bridge.ChangeEvent{
			Type:    bridge.TypeGameUpdate,
			Action:  bridge.ActionDeactivate,
			GameKey: gameKey,
		})
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func adminDeleteGameHandler(ctrl *game.Controller, broker pubsub.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameKey, ok := decodeGameKey(w, r)
		if !ok {
			return
		}
		if err := ctrl.DeleteGame(r.Context(), gameKey); err != nil {
			writeGameError(w, err)
			return
		}
		publishEvent(r.Context(), broker, pubsub.ChannelGameUpdates, bridge.ChangeEvent{
			Type:    bridge.TypeGameUpdate,
			Action:  bridge.ActionDelete,
			GameKey: gameKey,
		})
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func decodeGameKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		GameKey string `json:"game_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeHTTPError(w, http.StatusBadRequest, "invalid_json")
		return "", false
	}
	if body.GameKey == "" {
		writeHTTPError(w, http.StatusBadRequest, "invalid_request")
		return "", false
	}
	return body.GameKey, true
}
