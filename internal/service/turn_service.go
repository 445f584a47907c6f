package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mnoyd/cotulenh/api/internal/model"
	"github.com/mnoyd/cotulenh/api/internal/repository"
	"github.com/mnoyd/cotulenh/api/pkg/cotulenh"
)

// TurnService handles everything around a game's turn clock and lobby
// readiness that sits outside a single move's application: startup recovery,
// draw voting, and forfeiting a turn whose deadline has passed. CoTuLenh has
// no simultaneous-order phase to resolve, so there is no order collection or
// phase-advance pipeline here; MoveService already advances the turn the
// instant a move is legal.
type TurnService struct {
	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	cache       repository.GameCache
	broadcaster Broadcaster

	// gameLocks serializes ForfeitTurn per game: the keyspace listener and the
	// expiry poller can both fire for the same deadline. MoveService does not
	// take these locks.
	gameLocks sync.Map
}

// NewTurnService creates a TurnService.
func NewTurnService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, cache repository.GameCache, broadcaster Broadcaster) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &TurnService{gameRepo: gameRepo, turnRepo: turnRepo, cache: cache, broadcaster: broadcaster}
}

func (s *TurnService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// RecoverActiveGames rehydrates Redis state for all active games from
// Postgres. Called on server startup to restore timers and the live position
// cache lost during a restart.
func (s *TurnService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, game := range games {
		turn, err := s.turnRepo.CurrentTurn(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to get current turn during recovery")
			continue
		}
		if turn == nil {
			log.Warn().Str("gameId", game.ID).Msg("Active game has no current turn, skipping")
			continue
		}

		if err := s.cache.SetPosition(ctx, game.ID, turn.StateBefore); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore position cache")
			continue
		}

		if time.Now().Before(turn.Deadline) {
			if err := s.cache.SetTimer(ctx, game.ID, turn.Deadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore timer")
			}
		}

		log.Info().Str("gameId", game.ID).Int("moveNumber", turn.MoveNumber).
			Str("color", turn.Color).Time("deadline", turn.Deadline).
			Msg("Recovered game state")
	}

	return nil
}

// ReadyCount returns how many seated players have marked themselves ready to
// start the game.
func (s *TurnService) ReadyCount(ctx context.Context, gameID string) (int, error) {
	count, err := s.cache.ReadyCount(ctx, gameID)
	return int(count), err
}

// MarkReady marks a player ready to start a waiting game and broadcasts the
// new ready count. StartGame does not consult the ready state.
func (s *TurnService) MarkReady(ctx context.Context, gameID, color string) error {
	if err := s.cache.MarkReady(ctx, gameID, color); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}
	count, err := s.cache.ReadyCount(ctx, gameID)
	if err != nil {
		return fmt.Errorf("ready count: %w", err)
	}
	s.broadcaster.BroadcastGameEvent(gameID, "player_ready", map[string]any{
		"color":       color,
		"ready_count": count,
	})
	return nil
}

// UnmarkReady withdraws a player's readiness to start.
func (s *TurnService) UnmarkReady(ctx context.Context, gameID, color string) error {
	if err := s.cache.UnmarkReady(ctx, gameID, color); err != nil {
		return fmt.Errorf("unmark ready: %w", err)
	}
	count, err := s.cache.ReadyCount(ctx, gameID)
	if err != nil {
		return fmt.Errorf("ready count: %w", err)
	}
	s.broadcaster.BroadcastGameEvent(gameID, "player_ready", map[string]any{
		"color":       color,
		"ready_count": count,
	})
	return nil
}

// DrawVoteCount returns the current number of draw votes for a game.
func (s *TurnService) DrawVoteCount(ctx context.Context, gameID string) (int, error) {
	count, err := s.cache.DrawVoteCount(ctx, gameID)
	return int(count), err
}

// VoteForDraw records a color's draw vote. Since both seats are always
// occupied by a live player for the game's whole active lifetime (there is no
// elimination the way a 7-power Diplomacy board has), the game ends as a
// draw as soon as both colors have voted.
func (s *TurnService) VoteForDraw(ctx context.Context, gameID, color string) error {
	if err := s.cache.AddDrawVote(ctx, gameID, color); err != nil {
		return fmt.Errorf("add draw vote: %w", err)
	}

	voteCount, err := s.cache.DrawVoteCount(ctx, gameID)
	if err != nil {
		return fmt.Errorf("draw vote count: %w", err)
	}

	s.broadcaster.BroadcastGameEvent(gameID, "draw_vote", map[string]any{
		"color":           color,
		"draw_vote_count": voteCount,
	})

	if voteCount >= 2 {
		log.Info().Str("gameId", gameID).Msg("Both colors voted for draw, ending game")
		if err := s.gameRepo.SetFinished(ctx, gameID, ""); err != nil {
			return fmt.Errorf("set finished (draw): %w", err)
		}
		s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{"winner": "draw"})
		return s.cache.DeleteGameData(ctx, gameID, []string{"red", "blue"})
	}

	return nil
}

// RemoveDrawVote withdraws a color's draw vote and broadcasts the update.
func (s *TurnService) RemoveDrawVote(ctx context.Context, gameID, color string) error {
	if err := s.cache.RemoveDrawVote(ctx, gameID, color); err != nil {
		return fmt.Errorf("remove draw vote: %w", err)
	}
	voteCount, err := s.cache.DrawVoteCount(ctx, gameID)
	if err != nil {
		return fmt.Errorf("draw vote count: %w", err)
	}
	s.broadcaster.BroadcastGameEvent(gameID, "draw_vote", map[string]any{
		"color":           color,
		"draw_vote_count": voteCount,
	})
	return nil
}

// ForfeitExpiredTurns finds every active turn whose deadline has passed and
// ends that game as a loss for the player on the clock. A deploy session left
// open past the deadline forfeits too: there is no partial credit for an
// undeployed stack.
func (s *TurnService) ForfeitExpiredTurns(ctx context.Context) {
	turns, err := s.turnRepo.ListExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list expired turns")
		return
	}
	for _, turn := range turns {
		if err := s.ForfeitTurn(ctx, turn.GameID); err != nil {
			log.Error().Err(err).Str("gameId", turn.GameID).Msg("Turn forfeiture failed")
		}
	}
}

// ForfeitTurn ends gameID as a loss for whichever color's turn is expired,
// the opponent winning by timeout.
func (s *TurnService) ForfeitTurn(ctx context.Context, gameID string) error {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game.Status != "active" {
		return nil
	}

	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil {
		return fmt.Errorf("current turn: %w", err)
	}
	if turn == nil {
		return nil
	}
	if time.Now().Before(turn.Deadline) {
		return nil
	}

	winner := cotulenh.Color(turn.Color).Opponent().String()
	log.Info().Str("gameId", gameID).Str("forfeitedBy", turn.Color).Str("winner", winner).
		Msg("Turn deadline passed, forfeiting")

	if err := s.gameRepo.SetFinished(ctx, gameID, winner); err != nil {
		return fmt.Errorf("set finished (timeout): %w", err)
	}
	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"winner": winner,
		"reason": "timeout",
	})
	return s.cache.DeleteGameData(ctx, gameID, []string{"red", "blue"})
}

// CleanupStoppedGame broadcasts the game_ended event and clears cached game
// data for a game that was manually stopped.
func (s *TurnService) CleanupStoppedGame(ctx context.Context, gameID string) error {
	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"winner": "draw",
		"reason": "stopped",
	})
	return s.cache.DeleteGameData(ctx, gameID, []string{"red", "blue"})
}

// GetTurn returns the game's current turn, or nil if the game has no open
// turn (waiting or finished).
func (s *TurnService) GetTurn(ctx context.Context, gameID string) (*model.Turn, error) {
	return s.turnRepo.CurrentTurn(ctx, gameID)
}

// ListTurns returns every turn played in a game, oldest first.
func (s *TurnService) ListTurns(ctx context.Context, gameID string) ([]model.Turn, error) {
	return s.turnRepo.ListTurns(ctx, gameID)
}

// TurnMoves returns the moves recorded for one turn (more than one when the
// turn closed a multi-step deploy session).
func (s *TurnService) TurnMoves(ctx context.Context, turnID string) ([]model.Move, error) {
	return s.turnRepo.MovesByTurn(ctx, turnID)
}
