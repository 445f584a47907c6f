package repository

import (
	"context"
	"time"

	"github.com/mnoyd/cotulenh/api/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// GameRepository defines game and player data operations.
type GameRepository interface {
	Create(ctx context.Context, name, creatorID, turnDur string) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListFinished(ctx context.Context) ([]model.Game, error)
	SearchFinished(ctx context.Context, search string) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID string) error
	PlayerCount(ctx context.Context, gameID string) (int, error)
	AssignColors(ctx context.Context, gameID string, assignments map[string]string) error
	ListActive(ctx context.Context) ([]model.Game, error)
	SetFinished(ctx context.Context, gameID, winner string) error
	Delete(ctx context.Context, gameID string) error
	UpdatePlayerColor(ctx context.Context, gameID, userID, color string) error
}

// TurnRepository defines turn and move data operations.
type TurnRepository interface {
	CreateTurn(ctx context.Context, gameID string, moveNumber int, color, stateBefore string, deadline time.Time) (*model.Turn, error)
	CurrentTurn(ctx context.Context, gameID string) (*model.Turn, error)
	ListTurns(ctx context.Context, gameID string) ([]model.Turn, error)
	ResolveTurn(ctx context.Context, turnID, stateAfter string) error
	SaveMoves(ctx context.Context, moves []model.Move) error
	MovesByTurn(ctx context.Context, turnID string) ([]model.Move, error)
	ListExpired(ctx context.Context) ([]model.Turn, error)
}

// MessageRepository defines message data operations.
type MessageRepository interface {
	Create(ctx context.Context, gameID, senderID, recipientID, content, turnID string) (*model.Message, error)
	ListByGame(ctx context.Context, gameID, userID string) ([]model.Message, error)
}

// GameCache defines live game state operations (Redis). The cached state is
// the engine's own FEN string plus the active deploy session's pending
// steps, not an opaque JSON blob.
type GameCache interface {
	SetPosition(ctx context.Context, gameID, fen string) error
	GetPosition(ctx context.Context, gameID string) (string, error)
	SetDeployDraft(ctx context.Context, gameID, color string, steps []string) error
	GetDeployDraft(ctx context.Context, gameID, color string) ([]string, error)
	MarkReady(ctx context.Context, gameID, color string) error
	UnmarkReady(ctx context.Context, gameID, color string) error
	ReadyCount(ctx context.Context, gameID string) (int64, error)
	ReadyColors(ctx context.Context, gameID string) ([]string, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	AddDrawVote(ctx context.Context, gameID, color string) error
	RemoveDrawVote(ctx context.Context, gameID, color string) error
	DrawVoteCount(ctx context.Context, gameID string) (int64, error)
	DrawVoteColors(ctx context.Context, gameID string) ([]string, error)
	ClearTurnData(ctx context.Context, gameID string, colors []string) error
	DeleteGameData(ctx context.Context, gameID string, colors []string) error
}
