// Package game holds the session state machine: games keyed by join key,
// players inside them, and level progression driven by code guesses.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeheist/internal/pubsub"
	"codeheist/internal/store"
)

const gamesCollection = "games"

// joinKeyRetries bounds unique join key generation. Running out means the
// key space is effectively full, which is a deployment problem, not a
// per-request one.
const joinKeyRetries = 10

// DocStore is the slice of the document store the controller uses.
type DocStore interface {
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Set(ctx context.Context, collection, key string, doc []byte) error
	Update(ctx context.Context, collection, key string, fields map[string]any) error
	Delete(ctx context.Context, collection, key string) error
	Exists(ctx context.Context, collection, key string) (bool, error)
	StreamAll(ctx context.Context, collection string) ([][]byte, error)
	Mutate(ctx context.Context, collection, key string, fn func(doc []byte) ([]byte, error)) error
}

type Controller struct {
	docs  DocStore
	cache pubsub.Cache
	now   func() time.Time
}

func NewController(docs DocStore, cache pubsub.Cache) *Controller {
	return &Controller{docs: docs, cache: cache, now: time.Now}
}

// CreateGame initializes a new game with fresh level codes and a unique
// join key. Nothing is broadcast here; that is the caller's job.
func (c *Controller) CreateGame(ctx context.Context) (gameID, joinKey string, err error) {
	joinKey, err = c.uniqueJoinKey(ctx)
	if err != nil {
		return "", "", err
	}

	levels := make(map[string]LevelState, len(Levels))
	for _, lvl := range Levels {
		levels[lvl.ID] = LevelState{Code: GenerateCode(lvl.CodeKind)}
	}
	g := Game{
		GameID:    store.NewID(),
		JoinKey:   joinKey,
		Status:    StatusActive,
		CreatedAt: c.now().UTC(),
		Levels:    levels,
		Players:   map[string]Player{},
	}
	doc, err := json.Marshal(g)
	if err != nil {
		return "", "", err
	}
	if err := c.docs.Set(ctx, gamesCollection, joinKey, doc); err != nil {
		return "", "", err
	}
	c.cacheLevels(ctx, joinKey, levels)
	log.Info().Str("game_id", g.GameID).Str("join_key", joinKey).Msg("game created")
	return g.GameID, joinKey, nil
}

func (c *Controller) uniqueJoinKey(ctx context.Context) (string, error) {
	for attempt := 0; attempt <= joinKeyRetries; attempt++ {
		key := strconv.Itoa(rand.Intn(9000) + 1000)
		exists, err := c.docs.Exists(ctx, gamesCollection, key)
		if err != nil {
			return "", err
		}
		if !exists {
			return key, nil
		}
	}
	return "", ErrJoinKeyExhausted
}

// Join adds a named player to the game behind joinKey. Names are unique
// per game, compared case-sensitively. With activeOnly set, deactivated
// games are indistinguishable from missing ones.
func (c *Controller) Join(ctx context.Context, joinKey, name string, activeOnly bool) (gameID, playerID string, err error) {
	playerID = uuid.New().String()
	err = c.docs.Mutate(ctx, gamesCollection, joinKey, func(doc []byte) ([]byte, error) {
		var g Game
		if err := json.Unmarshal(doc, &g); err != nil {
			return nil, fmt.Errorf("decode game %s: %w", joinKey, err)
		}
		if activeOnly && g.Status != StatusActive {
			return nil, ErrGameNotFound
		}
		for _, p := range g.Players {
			if p.Name == name {
				return nil, ErrPlayerExists
			}
		}
		gameID = g.GameID
		if g.Players == nil {
			g.Players = map[string]Player{}
		}
		g.Players[playerID] = Player{
			Name:      name,
			Level:     1,
			Status:    StatusActive,
			Score:     map[string]float64{},
			CreatedAt: c.now().UTC(),
		}
		return json.Marshal(g)
	})
	if errors.Is(err, store.ErrNotFound) {
		return "", "", ErrGameNotFound
	}
	if err != nil {
		return "", "", err
	}
	log.Info().Str("join_key", joinKey).Str("player_id", playerID).Str("name", name).Msg("player joined")
	return gameID, playerID, nil
}

// StartLevel marks a level started and stamps the start time. Calling it
// again restarts the clock; started_at is overwritten on purpose.
func (c *Controller) StartLevel(ctx context.Context, joinKey, level string) (time.Time, error) {
	startedAt := c.now().UTC()
	err := c.docs.Mutate(ctx, gamesCollection, joinKey, func(doc []byte) ([]byte, error) {
		var g Game
		if err := json.Unmarshal(doc, &g); err != nil {
			return nil, fmt.Errorf("decode game %s: %w", joinKey, err)
		}
		state, ok := g.Levels[level]
		if !ok {
			return nil, ErrLevelNotFound
		}
		state.Started = true
		state.StartedAt = &startedAt
		g.Levels[level] = state
		return json.Marshal(g)
	})
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, ErrGameNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	log.Info().Str("join_key", joinKey).Str("level", level).Time("started_at", startedAt).Msg("level started")
	return startedAt, nil
}

// Guess checks a submitted code against the player's current level. A
// correct code advances the player exactly one level and records the
// elapsed seconds since the level started. The whole read-modify-write
// runs under the store's row lock so concurrent guesses for one player
// cannot double-advance.
func (c *Controller) Guess(ctx context.Context, joinKey, playerID, code string) (GuessResult, error) {
	var result GuessResult
	err := c.docs.Mutate(ctx, gamesCollection, joinKey, func(doc []byte) ([]byte, error) {
		var g Game
		if err := json.Unmarshal(doc, &g); err != nil {
			return nil, fmt.Errorf("decode game %s: %w", joinKey, err)
		}
		p, ok := g.Players[playerID]
		if !ok {
			return nil, ErrPlayerNotFound
		}
		levelID := strconv.Itoa(p.Level)
		state, ok := g.Levels[levelID]
		if !ok {
			return nil, ErrInvalidLevel
		}
		if !state.Started || state.StartedAt == nil {
			return nil, ErrLevelNotStarted
		}

		if code != state.Code {
			result = GuessResult{Correct: false, Level: p.Level}
			return doc, nil
		}

		elapsed := c.now().UTC().Sub(*state.StartedAt).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		p.Level++
		if p.Score == nil {
			p.Score = map[string]float64{}
		}
		p.Score[levelID] = elapsed
		g.Players[playerID] = p
		result = GuessResult{Correct: true, Level: p.Level, CompletedLevel: levelID, Score: elapsed}
		return json.Marshal(g)
	})
	if errors.Is(err, store.ErrNotFound) {
		return GuessResult{}, ErrGameNotFound
	}
	if err != nil {
		return GuessResult{}, err
	}
	if result.Correct {
		log.Info().Str("join_key", joinKey).Str("player_id", playerID).
			Str("level", result.CompletedLevel).Float64("score", result.Score).Msg("level complete")
	}
	return result, nil
}

// Deactivate closes a game to new joins without deleting its history.
func (c *Controller) Deactivate(ctx context.Context, joinKey string) error {
	err := c.docs.Update(ctx, gamesCollection, joinKey, map[string]any{"status": StatusDeactive})
	if errors.Is(err, store.ErrNotFound) {
		return ErrGameNotFound
	}
	return err
}

// DeleteGame removes the game document and its cached level codes.
func (c *Controller) DeleteGame(ctx context.Context, joinKey string) error {
	err := c.docs.Delete(ctx, gamesCollection, joinKey)
	if errors.Is(err, store.ErrNotFound) {
		return ErrGameNotFound
	}
	if err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Del(ctx, levelCacheKey(joinKey))
	}
	return nil
}

// PlayerInfo resolves a player inside a game. With activeOnly set, a
// deactivated game reads as missing.
func (c *Controller) PlayerInfo(ctx context.Context, joinKey, playerID string, activeOnly bool) (PlayerView, error) {
	g, err := c.load(ctx, joinKey)
	if err != nil {
		return PlayerView{}, err
	}
	if activeOnly && g.Status != StatusActive {
		return PlayerView{}, ErrGameNotFound
	}
	p, ok := g.Players[playerID]
	if !ok {
		return PlayerView{}, ErrPlayerNotFound
	}
	return PlayerView{Player: p, PlayerID: playerID}, nil
}

// GameInfo returns the code-stripped view of one game.
func (c *Controller) GameInfo(ctx context.Context, joinKey string) (GameView, error) {
	g, err := c.load(ctx, joinKey)
	if err != nil {
		return GameView{}, err
	}
	return g.View(), nil
}

// AllGames lists every game for the admin dashboard, codes stripped.
func (c *Controller) AllGames(ctx context.Context) ([]GameView, error) {
	docs, err := c.docs.StreamAll(ctx, gamesCollection)
	if err != nil {
		return nil, err
	}
	out := make([]GameView, 0, len(docs))
	for _, doc := range docs {
		var g Game
		if err := json.Unmarshal(doc, &g); err != nil {
			log.Warn().Err(err).Msg("skip undecodable game document")
			continue
		}
		out = append(out, g.View())
	}
	return out, nil
}

// LevelCode returns the secret for one level of one game, preferring the
// cache and refreshing it from the store on a miss.
func (c *Controller) LevelCode(ctx context.Context, joinKey, level string) (string, error) {
	if c.cache != nil {
		if raw, ok := c.cache.Get(ctx, levelCacheKey(joinKey)); ok {
			var levels map[string]LevelState
			if err := json.Unmarshal(raw, &levels); err == nil {
				if state, ok := levels[level]; ok {
					return state.Code, nil
				}
				return "", ErrLevelNotFound
			}
		}
	}

	g, err := c.load(ctx, joinKey)
	if err != nil {
		return "", err
	}
	c.cacheLevels(ctx, joinKey, g.Levels)
	state, ok := g.Levels[level]
	if !ok {
		return "", ErrLevelNotFound
	}
	return state.Code, nil
}

func (c *Controller) load(ctx context.Context, joinKey string) (Game, error) {
	doc, err := c.docs.Get(ctx, gamesCollection, joinKey)
	if errors.Is(err, store.ErrNotFound) {
		return Game{}, ErrGameNotFound
	}
	if err != nil {
		return Game{}, err
	}
	var g Game
	if err := json.Unmarshal(doc, &g); err != nil {
		return Game{}, fmt.Errorf("decode game %s: %w", joinKey, err)
	}
	return g, nil
}

func (c *Controller) cacheLevels(ctx context.Context, joinKey string, levels map[string]LevelState) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(levels)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, levelCacheKey(joinKey), raw); err != nil {
		log.Warn().Err(err).Str("join_key", joinKey).Msg("level code cache write failed")
	}
}

func levelCacheKey(joinKey string) string {
	return "levels:" + joinKey
}
