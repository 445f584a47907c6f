package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mnoyd/cotulenh/api/internal/model"
	"github.com/mnoyd/cotulenh/api/internal/repository"
	"github.com/mnoyd/cotulenh/api/pkg/cotulenh"
)

var (
	ErrNoActiveTurn  = errors.New("no active turn")
	ErrNotYourTurn   = errors.New("it is not your turn")
	ErrInvalidMove   = errors.New("invalid move")
	ErrNoDeploy      = errors.New("no deploy session in progress")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// MoveInput is the request payload for one move or deploy step, accepting
// either a SAN string or the structured from/to/piece/stay/deploy fields.
type MoveInput struct {
	SAN    string `json:"san,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Piece  string `json:"piece,omitempty"`
	Stay   *bool  `json:"stay,omitempty"`
	Deploy *bool  `json:"deploy,omitempty"`
}

func (in MoveInput) toRequest() (cotulenh.MoveRequest, error) {
	req := cotulenh.MoveRequest{SAN: in.SAN, Stay: in.Stay, Deploy: in.Deploy}
	if in.SAN != "" {
		return req, nil
	}
	if in.From != "" {
		sq, ok := cotulenh.ParseSquare(in.From)
		if !ok {
			return req, fmt.Errorf("%w: bad from square %q", ErrInvalidMove, in.From)
		}
		req.From = &sq
	}
	if in.To != "" {
		sq, ok := cotulenh.ParseSquare(in.To)
		if !ok {
			return req, fmt.Errorf("%w: bad to square %q", ErrInvalidMove, in.To)
		}
		req.To = &sq
	}
	if in.Piece != "" {
		k, ok := cotulenh.ParsePieceKind(in.Piece)
		if !ok {
			return req, fmt.Errorf("%w: bad piece kind %q", ErrInvalidMove, in.Piece)
		}
		req.Piece = &k
	}
	return req, nil
}

// TurnOutcome reports the result of a mutating call against a turn: the
// engine move(s) applied, whether a deploy session is still open, and, if
// the game ended, the winner (empty for a draw).
type TurnOutcome struct {
	Moves        []model.Move
	FEN          string
	DeployActive bool
	Check        bool
	Checkmate    bool
	Draw         bool
	GameOver     bool
	Winner       string
}

// MoveService applies moves and deploy steps against the engine, persisting
// resolved turns and advancing the game through a resolve-then-advance
// pipeline driven by a single player's move instead of simultaneous order
// resolution. It takes no lock of its own.
type MoveService struct {
	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	cache       repository.GameCache
	broadcaster Broadcaster
}

// NewMoveService creates a MoveService.
func NewMoveService(gameRepo repository.GameRepository, turnRepo repository.TurnRepository, cache repository.GameCache, broadcaster Broadcaster) *MoveService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &MoveService{gameRepo: gameRepo, turnRepo: turnRepo, cache: cache, broadcaster: broadcaster}
}

// playerColor resolves userID's color in game, or "" if they are not seated.
func playerColor(game *model.Game, userID string) string {
	for _, p := range game.Players {
		if p.UserID == userID {
			return p.Color
		}
	}
	return ""
}

// loadTurnGame loads the game's active turn and reconstructs the in-memory
// engine state, replaying any draft deploy steps cached for this turn. It
// also returns the model.Move row for each replayed step, since the engine
// itself only keeps the session's compiled actions, not a row-shaped record.
func (s *MoveService) loadTurnGame(ctx context.Context, gameID string) (*model.Turn, *cotulenh.Game, []model.Move, error) {
	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil {
		return nil, nil, nil, err
	}
	if turn == nil {
		return nil, nil, nil, ErrNoActiveTurn
	}
	g, err := cotulenh.New(turn.StateBefore)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reconstruct position: %w", err)
	}
	draft, err := s.cache.GetDeployDraft(ctx, gameID, turn.Color)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load deploy draft: %w", err)
	}
	rows := make([]model.Move, 0, len(draft))
	for _, step := range draft {
		mv, err := g.Move(cotulenh.MoveRequest{SAN: step})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("replay deploy draft: %w", err)
		}
		rows = append(rows, moveToModel(turn.ID, turn.Color, *mv))
	}
	return turn, g, rows, nil
}

// SubmitMove applies one move (a plain move, or a single deploy step) on
// behalf of userID. A plain move, or a deploy step that empties the stack,
// resolves the turn immediately; a partial deploy step leaves the turn open
// and records the draft for the next call.
func (s *MoveService) SubmitMove(ctx context.Context, gameID, userID string, in MoveInput) (*TurnOutcome, error) {
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
	color := playerColor(game, userID)
	if color == "" {
		return nil, ErrNotInGame
	}

	turn, g, priorRows, err := s.loadTurnGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if turn.Color != color {
		return nil, ErrNotYourTurn
	}

	req, err := in.toRequest()
	if err != nil {
		return nil, err
	}
	mv, err := g.Move(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMove, err.Error())
	}

	row := moveToModel(turn.ID, color, *mv)

	if g.InDeploySession() {
		draft, err := s.cache.GetDeployDraft(ctx, gameID, color)
		if err != nil {
			return nil, err
		}
		draft = append(draft, cotulenh.LAN(*mv))
		if err := s.cache.SetDeployDraft(ctx, gameID, color, draft); err != nil {
			return nil, err
		}
		if err := s.cache.SetPosition(ctx, gameID, g.FEN()); err != nil {
			return nil, err
		}
		outcome := &TurnOutcome{Moves: append(priorRows, row), FEN: g.FEN(), DeployActive: true}
		s.broadcaster.BroadcastGameEvent(gameID, "move_applied", outcome)
		return outcome, nil
	}

	return s.finalizeTurn(ctx, game, turn, g, append(priorRows, row))
}

// CommitDeploy finalizes the active deploy session, forcing switchTurn so the
// partially-deployed stack's turn ends even if pieces remain undeployed.
func (s *MoveService) CommitDeploy(ctx context.Context, gameID, userID string) (*TurnOutcome, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	color := playerColor(game, userID)
	if color == "" {
		return nil, ErrNotInGame
	}

	turn, g, rows, err := s.loadTurnGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if turn.Color != color {
		return nil, ErrNotYourTurn
	}
	if !g.InDeploySession() {
		return nil, ErrNoDeploy
	}

	if err := g.CommitDeploy(true); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMove, err.Error())
	}

	return s.finalizeTurn(ctx, game, turn, g, rows)
}

// CancelDeploy discards the in-progress deploy session's draft without
// touching the persisted turn, letting the player start over.
func (s *MoveService) CancelDeploy(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	color := playerColor(game, userID)
	if color == "" {
		return ErrNotInGame
	}
	turn, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil {
		return err
	}
	if turn == nil {
		return ErrNoActiveTurn
	}
	if err := s.cache.SetDeployDraft(ctx, gameID, color, nil); err != nil {
		return err
	}
	return s.cache.SetPosition(ctx, gameID, turn.StateBefore)
}

// Undo reverts the last deploy step of an in-progress session. Undoing a
// move after its turn has already been resolved and persisted is out of
// scope: the opponent's turn has already begun by then.
func (s *MoveService) Undo(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	color := playerColor(game, userID)
	if color == "" {
		return ErrNotInGame
	}

	turn, g, _, err := s.loadTurnGame(ctx, gameID)
	if err != nil {
		return err
	}
	if turn.Color != color {
		return ErrNotYourTurn
	}
	if !g.InDeploySession() {
		return ErrNothingToUndo
	}
	if err := g.Undo(); err != nil {
		return err
	}

	draft, err := s.cache.GetDeployDraft(ctx, gameID, color)
	if err != nil {
		return err
	}
	if len(draft) > 0 {
		draft = draft[:len(draft)-1]
	}
	if err := s.cache.SetDeployDraft(ctx, gameID, color, draft); err != nil {
		return err
	}
	return s.cache.SetPosition(ctx, gameID, g.FEN())
}

// finalizeTurn persists the resolved turn's moves and final position, ends
// the game on checkmate/draw, or opens the next turn for the opponent.
func (s *MoveService) finalizeTurn(ctx context.Context, game *model.Game, turn *model.Turn, g *cotulenh.Game, rows []model.Move) (*TurnOutcome, error) {
	fen := g.FEN()
	if err := s.turnRepo.ResolveTurn(ctx, turn.ID, fen); err != nil {
		return nil, fmt.Errorf("resolve turn: %w", err)
	}
	if len(rows) > 0 {
		if err := s.turnRepo.SaveMoves(ctx, rows); err != nil {
			return nil, fmt.Errorf("save moves: %w", err)
		}
	}
	if err := s.cache.SetDeployDraft(ctx, game.ID, turn.Color, nil); err != nil {
		return nil, err
	}
	if err := s.cache.SetPosition(ctx, game.ID, fen); err != nil {
		return nil, err
	}

	outcome := &TurnOutcome{Moves: rows, FEN: fen}
	last := rows[len(rows)-1]
	outcome.Check = last.Check
	outcome.Checkmate = last.Checkmate

	if g.IsCheckmate() {
		outcome.GameOver = true
		outcome.Winner = turn.Color
		if err := s.gameRepo.SetFinished(ctx, game.ID, turn.Color); err != nil {
			return nil, err
		}
		if err := s.cache.DeleteGameData(ctx, game.ID, []string{"red", "blue"}); err != nil {
			return nil, err
		}
		s.broadcaster.BroadcastGameEvent(game.ID, "game_ended", outcome)
		return outcome, nil
	}
	if g.IsDraw() {
		outcome.GameOver = true
		outcome.Draw = true
		if err := s.gameRepo.SetFinished(ctx, game.ID, ""); err != nil {
			return nil, err
		}
		if err := s.cache.DeleteGameData(ctx, game.ID, []string{"red", "blue"}); err != nil {
			return nil, err
		}
		s.broadcaster.BroadcastGameEvent(game.ID, "game_ended", outcome)
		return outcome, nil
	}

	next := cotulenh.Color(turn.Color).Opponent()
	deadline := parseDeadline(game.TurnDuration)
	if err := s.cache.SetTimer(ctx, game.ID, deadline); err != nil {
		return nil, err
	}
	if _, err := s.turnRepo.CreateTurn(ctx, game.ID, nextMoveNumber(turn, next), next.String(), fen, deadline); err != nil {
		return nil, fmt.Errorf("create next turn: %w", err)
	}

	s.broadcaster.BroadcastGameEvent(game.ID, "move_applied", outcome)
	return outcome, nil
}

// nextMoveNumber increments the full-move counter each time Red is to move
// again, matching the engine's own move-number bookkeeping.
func nextMoveNumber(prev *model.Turn, next cotulenh.Color) int {
	if next == cotulenh.Red {
		return prev.MoveNumber + 1
	}
	return prev.MoveNumber
}

// moveToModel converts an engine move into the persisted row shape.
func moveToModel(turnID, color string, m cotulenh.Move) model.Move {
	captured := ""
	if m.Captured != nil {
		captured = m.Captured.Kind.String()
	}
	return model.Move{
		TurnID:    turnID,
		Color:     color,
		SAN:       cotulenh.LAN(m),
		From:      m.From.String(),
		To:        m.To.String(),
		PieceKind: m.Piece.Kind.String(),
		MoveKind:  m.Kind.String(),
		Deploy:    m.Deploy,
		Captured:  captured,
		Check:     m.Check,
		Checkmate: m.Checkmate,
		CreatedAt: time.Now(),
	}
}
