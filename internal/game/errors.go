package game

import "errors"

var (
	ErrGameNotFound     = errors.New("game_not_found")
	ErrPlayerNotFound   = errors.New("player_not_found")
	ErrPlayerExists     = errors.New("player_already_exists")
	ErrLevelNotFound    = errors.New("level_not_found")
	ErrInvalidLevel     = errors.New("invalid_level")
	ErrLevelNotStarted  = errors.New("level_not_started")
	ErrJoinKeyExhausted = errors.New("join_key_generation_exhausted")
)
