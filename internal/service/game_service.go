package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mnoyd/cotulenh/api/internal/model"
	"github.com/mnoyd/cotulenh/api/internal/repository"
	"github.com/mnoyd/cotulenh/api/pkg/cotulenh"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameNotWaiting = errors.New("game is not in waiting status")
	ErrGameFull       = errors.New("game already has 2 players")
	ErrNotEnough      = errors.New("need exactly 2 players to start")
	ErrNotCreator     = errors.New("only the creator can start the game")
	ErrGameNotActive  = errors.New("game is not active")
	ErrAlreadyJoined  = errors.New("already joined this game")
	ErrNotInGame      = errors.New("you are not in this game")
	ErrColorTaken     = errors.New("color already assigned to another player")
	ErrInvalidColor   = errors.New("invalid color")
)

// GameService handles game lobby and lifecycle operations: creation, joining,
// starting, and termination of a two-player match.
type GameService struct {
	gameRepo repository.GameRepository
	turnRepo repository.TurnRepository
	userRepo repository.UserRepository
}

// NewGameService creates a GameService.
func NewGameService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, userRepo repository.UserRepository) *GameService {
	return &GameService{gameRepo: gameRepo, turnRepo: turnRepo, userRepo: userRepo}
}

// CreateGame creates a new game in "waiting" status. The creator auto-joins.
func (s *GameService) CreateGame(ctx context.Context, name, creatorID, turnDur string) (*model.Game, error) {
	turnDur = toPgInterval(turnDur, "24 hours")

	game, err := s.gameRepo.Create(ctx, name, creatorID, turnDur)
	if err != nil {
		return nil, err
	}
	if err := s.gameRepo.JoinGame(ctx, game.ID, creatorID); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, game.ID)
}

// JoinGame adds the second player to a waiting game.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	for _, p := range game.Players {
		if p.UserID == userID {
			return ErrAlreadyJoined
		}
	}

	count, err := s.gameRepo.PlayerCount(ctx, gameID)
	if err != nil {
		return err
	}
	if count >= 2 {
		return ErrGameFull
	}
	return s.gameRepo.JoinGame(ctx, gameID, userID)
}

// StartGame assigns colors (creator keeps any color already chosen, the
// opponent takes the remaining one; unset colors default red-to-creator)
// and creates the opening turn at DefaultPosition.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "waiting" {
		return nil, ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if len(game.Players) != 2 {
		return nil, ErrNotEnough
	}

	assignments := make(map[string]string)
	used := map[string]bool{}
	for _, p := range game.Players {
		if p.Color != "" {
			assignments[p.UserID] = p.Color
			used[p.Color] = true
		}
	}
	colors := []string{"red", "blue"}
	for _, p := range game.Players {
		if p.Color != "" {
			continue
		}
		for _, c := range colors {
			if !used[c] {
				assignments[p.UserID] = c
				used[c] = true
				break
			}
		}
	}
	if err := s.gameRepo.AssignColors(ctx, gameID, assignments); err != nil {
		return nil, err
	}

	g, err := cotulenh.New("")
	if err != nil {
		return nil, fmt.Errorf("init board: %w", err)
	}

	deadline := parseDeadline(game.TurnDuration)
	if _, err := s.turnRepo.CreateTurn(ctx, gameID, 1, cotulenh.Red.String(), g.FEN(), deadline); err != nil {
		return nil, fmt.Errorf("create opening turn: %w", err)
	}

	return s.gameRepo.FindByID(ctx, gameID)
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// UpdatePlayerColor sets the calling player's own color before the game starts.
func (s *GameService) UpdatePlayerColor(ctx context.Context, gameID, requestingUserID, color string) error {
	if color != "red" && color != "blue" {
		return ErrInvalidColor
	}

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}

	var target *model.GamePlayer
	for i := range game.Players {
		if game.Players[i].UserID == requestingUserID {
			target = &game.Players[i]
			break
		}
	}
	if target == nil {
		return ErrNotInGame
	}

	for _, p := range game.Players {
		if p.UserID != requestingUserID && p.Color == color {
			return ErrColorTaken
		}
	}

	return s.gameRepo.UpdatePlayerColor(ctx, gameID, requestingUserID, color)
}

// DeleteGame removes a waiting game. Only the game creator can delete a game.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	return s.gameRepo.Delete(ctx, gameID)
}

// StopGame ends an active game as a draw. Only the game creator can stop a game.
func (s *GameService) StopGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, ErrGameNotActive
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if err := s.gameRepo.SetFinished(ctx, gameID, ""); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, gameID)
}

// ListGames returns open games, the user's games, or finished games.
func (s *GameService) ListGames(ctx context.Context, userID string, filter, search string) ([]model.Game, error) {
	switch filter {
	case "my":
		return s.gameRepo.ListByUser(ctx, userID)
	case "finished":
		if search != "" {
			return s.gameRepo.SearchFinished(ctx, search)
		}
		return s.gameRepo.ListFinished(ctx)
	default:
		return s.gameRepo.ListOpen(ctx)
	}
}

// toPgInterval converts Go-style duration strings (e.g. "5m", "1h") to
// PostgreSQL interval format (e.g. "5 minutes", "60 minutes"; under a
// minute, "N seconds"). Returns defaultVal if input is empty or unparseable.
func toPgInterval(s, defaultVal string) string {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%d seconds", totalSeconds)
	}
	return fmt.Sprintf("%d minutes", totalSeconds/60)
}

// parseDuration converts Postgres interval strings like "24:00:00" or Go
// duration strings like "5m" to time.Duration.
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		h, e1 := strconv.Atoi(parts[0])
		m, e2 := strconv.Atoi(parts[1])
		sec, e3 := strconv.Atoi(parts[2])
		if e1 == nil && e2 == nil && e3 == nil {
			return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
		}
	}
	return 24 * time.Hour
}

// parseDeadline computes the deadline for a turn starting now, given the
// game's configured turn duration.
func parseDeadline(turnDuration string) time.Time {
	return time.Now().Add(parseDuration(turnDuration))
}
