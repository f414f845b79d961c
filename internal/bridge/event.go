package bridge

import "encoding/json"

// Event types.
const (
	TypeGameUpdate   = "game_update"
	TypePlayerUpdate = "player_update"
)

// Event actions.
const (
	ActionJoin          = "join"
	ActionDelete        = "delete"
	ActionDeactivate    = "deactivate"
	ActionStart         = "start"
	ActionLevelComplete = "level_complete"
)

// ChangeEvent is the minimal delta describing one game or player mutation.
// It is produced once by whichever process handled the mutating request
// and consumed by the bridge of every process, including the producer's.
type ChangeEvent struct {
	Type      string          `json:"type"`
	Action    string          `json:"action"`
	GameKey   string          `json:"game_key,omitempty"`
	PlayerID  string          `json:"player_id,omitempty"`
	Player    json.RawMessage `json:"player,omitempty"`
	Level     string          `json:"level,omitempty"`
	StartedAt string          `json:"started_at,omitempty"`
	Score     float64         `json:"score,omitempty"`
}

func (e ChangeEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}
