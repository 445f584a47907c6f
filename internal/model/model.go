package model

import (
	"encoding/json"
	"time"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game represents a CoTuLenh game between two players.
type Game struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	CreatorID     string       `json:"creator_id"`
	Status        string       `json:"status"` // waiting, active, finished
	Winner        string       `json:"winner,omitempty"`
	TurnDuration  string       `json:"turn_duration"`
	CreatedAt     time.Time    `json:"created_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
	Players       []GamePlayer `json:"players,omitempty"`
	ReadyCount    int          `json:"ready_count,omitempty"`
	DrawVoteCount int          `json:"draw_vote_count,omitempty"`
}

// GamePlayer represents a player's membership in a game, bound to one of the
// two colors.
type GamePlayer struct {
	GameID   string    `json:"game_id"`
	UserID   string    `json:"user_id"`
	Color    string    `json:"color,omitempty"` // "red" or "blue"
	JoinedAt time.Time `json:"joined_at"`
}

// Turn represents one ply: either a single committed move, or a deploy
// session spanning several deploy steps before it commits. StateBefore and
// StateAfter are full position FEN strings, not opaque JSON blobs,
// since the core's entire persisted state is a FEN plus a SAN history.
type Turn struct {
	ID           string     `json:"id"`
	GameID       string     `json:"game_id"`
	MoveNumber   int        `json:"move_number"`
	Color        string     `json:"color"`
	StateBefore  string     `json:"state_before"`
	StateAfter   string     `json:"state_after,omitempty"`
	Deadline     time.Time  `json:"deadline"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeployActive bool       `json:"deploy_active"`
}

// Move represents one committed move or deploy step submitted during a turn.
type Move struct {
	ID        string    `json:"id"`
	TurnID    string    `json:"turn_id"`
	Color     string    `json:"color"`
	SAN       string    `json:"san"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	PieceKind string    `json:"piece_kind"`
	MoveKind  string    `json:"move_kind"` // normal, capture, stay_capture, suicide_capture, combination
	Deploy    bool      `json:"deploy"`
	Captured  string    `json:"captured,omitempty"`
	Check     bool      `json:"check,omitempty"`
	Checkmate bool      `json:"checkmate,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message represents an in-game chat message.
type Message struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	SenderID    string          `json:"sender_id"`
	RecipientID string          `json:"recipient_id,omitempty"` // empty = public broadcast
	Content     string          `json:"content"`
	TurnID      string          `json:"turn_id,omitempty"`
	Extra       json.RawMessage `json:"extra,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
