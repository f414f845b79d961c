package game

import "time"

// Game and player statuses.
const (
	StatusActive   = "active"
	StatusDeactive = "deactive"
	StatusBanned   = "banned"
)

// Game is the aggregate document stored per join key. Everything about a
// running session lives here; there are no separate player documents.
type Game struct {
	GameID    string                `json:"game_id"`
	JoinKey   string                `json:"join_key"`
	Status    string                `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	Levels    map[string]LevelState `json:"levels"`
	Players   map[string]Player     `json:"players"`
}

// LevelState is the per-game runtime portion of a level. started/started_at
// flip once when an admin starts the level; overwriting started_at on a
// second start restarts the clock (see StartLevel).
type LevelState struct {
	Code      string     `json:"code"`
	Started   bool       `json:"started"`
	StartedAt *time.Time `json:"started_at"`
}

type Player struct {
	Name      string             `json:"name"`
	Level     int                `json:"level"`
	Status    string             `json:"status"`
	Score     map[string]float64 `json:"score"`
	CreatedAt time.Time          `json:"created_at"`
}

// PlayerView is a Player plus its id, the shape sent to clients.
type PlayerView struct {
	Player
	PlayerID string `json:"player_id"`
}

// GameView is the game as players and the dashboard see it: level secrets
// are stripped, runtime level state stays.
type GameView struct {
	GameID    string                    `json:"game_id"`
	JoinKey   string                    `json:"join_key"`
	Status    string                    `json:"status"`
	CreatedAt time.Time                 `json:"created_at"`
	Levels    map[string]LevelProgress  `json:"levels"`
	Players   map[string]Player         `json:"players"`
}

type LevelProgress struct {
	Started   bool       `json:"started"`
	StartedAt *time.Time `json:"started_at"`
}

// View strips secret codes from the game document.
func (g *Game) View() GameView {
	levels := make(map[string]LevelProgress, len(g.Levels))
	for id, state := range g.Levels {
		levels[id] = LevelProgress{Started: state.Started, StartedAt: state.StartedAt}
	}
	return GameView{
		GameID:    g.GameID,
		JoinKey:   g.JoinKey,
		Status:    g.Status,
		CreatedAt: g.CreatedAt,
		Levels:    levels,
		Players:   g.Players,
	}
}

// GuessResult reports the outcome of a code submission. Incorrect guesses
// are a normal outcome, not an error.
type GuessResult struct {
	Correct        bool
	Level          int
	CompletedLevel string
	Score          float64
}
