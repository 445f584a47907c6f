package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mnoyd/cotulenh/api/internal/model"
)

// TurnRepo handles turn and move database operations.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// CreateTurn inserts a new turn awaiting resolution.
func (r *TurnRepo) CreateTurn(ctx context.Context, gameID string, moveNumber int, color, stateBefore string, deadline time.Time) (*model.Turn, error) {
	var t model.Turn
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO turns (game_id, move_number, color, state_before, deadline)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, game_id, move_number, color, state_before, deadline, created_at`,
		gameID, moveNumber, color, stateBefore, deadline,
	).Scan(&t.ID, &t.GameID, &t.MoveNumber, &t.Color, &t.StateBefore, &t.Deadline, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return &t, nil
}

// CurrentTurn returns the most recent unresolved turn for a game.
func (r *TurnRepo) CurrentTurn(ctx context.Context, gameID string) (*model.Turn, error) {
	var t model.Turn
	var resolvedAt sql.NullTime
	var stateAfter sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, move_number, color, state_before, state_after, deadline, resolved_at, created_at, deploy_active
		 FROM turns WHERE game_id = $1 AND resolved_at IS NULL
		 ORDER BY move_number DESC LIMIT 1`, gameID,
	).Scan(&t.ID, &t.GameID, &t.MoveNumber, &t.Color, &t.StateBefore, &stateAfter, &t.Deadline, &resolvedAt, &t.CreatedAt, &t.DeployActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current turn: %w", err)
	}
	t.StateAfter = stateAfter.String
	if resolvedAt.Valid {
		t.ResolvedAt = &resolvedAt.Time
	}
	return &t, nil
}

// ListTurns returns every turn for a game, oldest first.
func (r *TurnRepo) ListTurns(ctx context.Context, gameID string) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, move_number, color, state_before, state_after, deadline, resolved_at, created_at, deploy_active
		 FROM turns WHERE game_id = $1 ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		var resolvedAt sql.NullTime
		var stateAfter sql.NullString
		if err := rows.Scan(&t.ID, &t.GameID, &t.MoveNumber, &t.Color, &t.StateBefore, &stateAfter,
			&t.Deadline, &resolvedAt, &t.CreatedAt, &t.DeployActive); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.StateAfter = stateAfter.String
		if resolvedAt.Valid {
			t.ResolvedAt = &resolvedAt.Time
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ResolveTurn marks a turn resolved with the resulting position.
func (r *TurnRepo) ResolveTurn(ctx context.Context, turnID, stateAfter string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE turns SET state_after = $1, resolved_at = now() WHERE id = $2`,
		stateAfter, turnID,
	)
	if err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}
	return nil
}

// SaveMoves persists a batch of committed moves / deploy steps for a turn.
func (r *TurnRepo) SaveMoves(ctx context.Context, moves []model.Move) error {
	if len(moves) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO moves (turn_id, color, san, from_square, to_square, piece_kind, move_kind, deploy, captured, is_check, checkmate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return fmt.Errorf("prepare insert move: %w", err)
	}
	defer stmt.Close()

	for _, m := range moves {
		if _, err := stmt.ExecContext(ctx, m.TurnID, m.Color, m.SAN, m.From, m.To, m.PieceKind,
			m.MoveKind, m.Deploy, nullableString(m.Captured), m.Check, m.Checkmate); err != nil {
			return fmt.Errorf("insert move: %w", err)
		}
	}

	return tx.Commit()
}

// MovesByTurn returns every move / deploy step recorded for a turn, in order.
func (r *TurnRepo) MovesByTurn(ctx context.Context, turnID string) ([]model.Move, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, turn_id, color, san, from_square, to_square, piece_kind, move_kind, deploy, captured, is_check, checkmate, created_at
		 FROM moves WHERE turn_id = $1 ORDER BY created_at`, turnID)
	if err != nil {
		return nil, fmt.Errorf("moves by turn: %w", err)
	}
	defer rows.Close()

	var moves []model.Move
	for rows.Next() {
		var m model.Move
		var captured sql.NullString
		if err := rows.Scan(&m.ID, &m.TurnID, &m.Color, &m.SAN, &m.From, &m.To, &m.PieceKind,
			&m.MoveKind, &m.Deploy, &captured, &m.Check, &m.Checkmate, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		m.Captured = captured.String
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

// ListExpired returns unresolved turns whose deadline has passed.
func (r *TurnRepo) ListExpired(ctx context.Context) ([]model.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, move_number, color, state_before, deadline, created_at, deploy_active
		 FROM turns WHERE resolved_at IS NULL AND deadline < now()`)
	if err != nil {
		return nil, fmt.Errorf("list expired turns: %w", err)
	}
	defer rows.Close()

	var turns []model.Turn
	for rows.Next() {
		var t model.Turn
		if err := rows.Scan(&t.ID, &t.GameID, &t.MoveNumber, &t.Color, &t.StateBefore, &t.Deadline, &t.CreatedAt, &t.DeployActive); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
