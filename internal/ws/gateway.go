// Package ws is the socket half of the session gateway: it accepts player
// and admin connections, runs the player request protocol, and keeps the
// connection registries in sync with socket lifecycles.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"codeheist/internal/bridge"
	"codeheist/internal/game"
	"codeheist/internal/pubsub"
	"codeheist/internal/registry"
)

// PlayerResolver is the slice of the game controller the gateway needs.
type PlayerResolver interface {
	PlayerInfo(ctx context.Context, joinKey, playerID string, activeOnly bool) (game.PlayerView, error)
}

type Gateway struct {
	games    PlayerResolver
	players  *registry.Players
	admins   *registry.Admins
	broker   pubsub.Broker
	upgrader websocket.Upgrader
}

func NewGateway(games PlayerResolver, players *registry.Players, admins *registry.Admins, broker pubsub.Broker) *Gateway {
	return &Gateway{
		games:    games,
		players:  players,
		admins:   admins,
		broker:   broker,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// HandlePlayer upgrades a player socket and runs its read loop until the
// peer disconnects or a resolution failure terminates the session.
func (g *Gateway) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient(conn)
	go c.writeLoop()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("player connected")

	defer func() {
		c.close()
		// Cleanup keys off the socket, not the player id: a failed
		// connect never learned one.
		if id, ok := g.players.RemoveConn(c); ok {
			log.Info().Str("player_id", id).Msg("player disconnected")
		} else {
			log.Info().Msg("player disconnected before registering")
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if terminate := g.handlePlayerMessage(r.Context(), c, msg); terminate {
			return
		}
	}
}

// handlePlayerMessage dispatches one inbound frame. It reports whether the
// connection must terminate: lookup failures close the socket after the
// error frame, anything else leaves it open.
func (g *Gateway) handlePlayerMessage(ctx context.Context, c *client, msg []byte) bool {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		_ = c.sendJSON(errorFrame(http.StatusBadRequest, "malformed request"))
		return false
	}

	switch base.Type {
	case "connect":
		var req ConnectMessage
		if err := json.Unmarshal(msg, &req); err != nil || req.PlayerID == "" {
			_ = c.sendJSON(errorFrame(http.StatusNotFound, "player not found"))
			return true
		}
		return g.handleConnect(ctx, c, req)
	default:
		_ = c.sendJSON(errorFrame(http.StatusBadRequest, "invalid request type"))
		return false
	}
}

func (g *Gateway) handleConnect(ctx context.Context, c *client, req ConnectMessage) bool {
	player, err := g.games.PlayerInfo(ctx, req.GameKey, req.PlayerID, true)
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error"
		switch {
		case errors.Is(err, game.ErrGameNotFound):
			status, message = http.StatusNotFound, "game not found"
		case errors.Is(err, game.ErrPlayerNotFound):
			status, message = http.StatusNotFound, "player not found"
		}
		_ = c.sendJSON(errorFrame(status, message))
		return true
	}

	g.players.Add(req.PlayerID, c)
	g.publishJoin(ctx, req.GameKey, req.PlayerID, player)
	_ = c.sendJSON(ConnectResult{Type: "connect", Player: player})
	return false
}

func (g *Gateway) publishJoin(ctx context.Context, gameKey, playerID string, player game.PlayerView) {
	raw, err := json.Marshal(player)
	if err != nil {
		return
	}
	ev := bridge.ChangeEvent{
		Type:     bridge.TypePlayerUpdate,
		Action:   bridge.ActionJoin,
		GameKey:  gameKey,
		PlayerID: playerID,
		Player:   raw,
	}
	payload, err := ev.Encode()
	if err != nil {
		return
	}
	if err := g.broker.Publish(ctx, pubsub.ChannelGameUpdates, payload); err != nil {
		log.Error().Err(err).Str("game_key", gameKey).Msg("publish join event failed")
	}
}

// HandleAdmin upgrades an admin dashboard socket. Admins only listen; the
// read loop exists to notice the disconnect.
func (g *Gateway) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient(conn)
	go c.writeLoop()
	g.admins.Add(c)
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("admin connected")

	defer func() {
		c.close()
		g.admins.Remove(c)
		log.Info().Msg("admin disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
