package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis game state. The live position is kept as the
// engine's own FEN string rather than an opaque JSON blob, and a deploy
// draft is the ordered list of SAN steps a color has staged but not yet
// committed for the stack currently being deployed.
func positionKey(gameID string) string           { return "game:" + gameID + ":position" }
func deployDraftKey(gameID, color string) string { return "game:" + gameID + ":deploy:" + color }
func readyKey(gameID string) string              { return "game:" + gameID + ":ready" }
func timerKey(gameID string) string              { return "game:" + gameID + ":timer" }
func drawVoteKey(gameID string) string           { return "game:" + gameID + ":draw_votes" }

// SetPosition stores the live position FEN for a game.
func (c *Client) SetPosition(ctx context.Context, gameID, fen string) error {
	return c.rdb.Set(ctx, positionKey(gameID), fen, 0).Err()
}

// GetPosition retrieves the live position FEN for a game ("" if unset).
func (c *Client) GetPosition(ctx context.Context, gameID string) (string, error) {
	val, err := c.rdb.Get(ctx, positionKey(gameID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get position: %w", err)
	}
	return val, nil
}

// SetDeployDraft stores the SAN steps staged so far for a color's active
// deploy session, replacing any previous draft.
func (c *Client) SetDeployDraft(ctx context.Context, gameID, color string, steps []string) error {
	key := deployDraftKey(gameID, color)
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(steps) > 0 {
		args := make([]interface{}, len(steps))
		for i, s := range steps {
			args[i] = s
		}
		pipe.RPush(ctx, key, args...)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("set deploy draft: %w", err)
	}
	return nil
}

// GetDeployDraft retrieves the staged SAN steps for a color's deploy session.
func (c *Client) GetDeployDraft(ctx context.Context, gameID, color string) ([]string, error) {
	steps, err := c.rdb.LRange(ctx, deployDraftKey(gameID, color), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get deploy draft: %w", err)
	}
	return steps, nil
}

// MarkReady adds a color to the ready set for the game.
func (c *Client) MarkReady(ctx context.Context, gameID, color string) error {
	return c.rdb.SAdd(ctx, readyKey(gameID), color).Err()
}

// UnmarkReady removes a color from the ready set.
func (c *Client) UnmarkReady(ctx context.Context, gameID, color string) error {
	return c.rdb.SRem(ctx, readyKey(gameID), color).Err()
}

// ReadyCount returns how many colors have marked ready.
func (c *Client) ReadyCount(ctx context.Context, gameID string) (int64, error) {
	return c.rdb.SCard(ctx, readyKey(gameID)).Result()
}

// ReadyColors returns the set of colors that have marked ready.
func (c *Client) ReadyColors(ctx context.Context, gameID string) ([]string, error) {
	return c.rdb.SMembers(ctx, readyKey(gameID)).Result()
}

// turnGracePeriod is the extra time after the displayed deadline before
// timeout handling triggers, giving players a few seconds of leeway.
const turnGracePeriod = 5 * time.Second

// SetTimer creates a timer key with a TTL. When the key expires, Redis
// keyspace notifications trigger turn-timeout handling.
func (c *Client) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + turnGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// ClearTimer removes the timer for a game.
func (c *Client) ClearTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// AddDrawVote adds a color to the draw vote set.
func (c *Client) AddDrawVote(ctx context.Context, gameID, color string) error {
	return c.rdb.SAdd(ctx, drawVoteKey(gameID), color).Err()
}

// RemoveDrawVote removes a color from the draw vote set.
func (c *Client) RemoveDrawVote(ctx context.Context, gameID, color string) error {
	return c.rdb.SRem(ctx, drawVoteKey(gameID), color).Err()
}

// DrawVoteCount returns how many colors have voted for a draw.
func (c *Client) DrawVoteCount(ctx context.Context, gameID string) (int64, error) {
	return c.rdb.SCard(ctx, drawVoteKey(gameID)).Result()
}

// DrawVoteColors returns the set of colors that have voted for a draw.
func (c *Client) DrawVoteColors(ctx context.Context, gameID string) ([]string, error) {
	return c.rdb.SMembers(ctx, drawVoteKey(gameID)).Result()
}

// ClearTurnData removes the deploy drafts, ready status, timer, and draw
// votes for a game. Called after a turn resolves to prepare for the next.
func (c *Client) ClearTurnData(ctx context.Context, gameID string, colors []string) error {
	keys := []string{readyKey(gameID), timerKey(gameID), drawVoteKey(gameID)}
	for _, color := range colors {
		keys = append(keys, deployDraftKey(gameID, color))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string, colors []string) error {
	keys := []string{positionKey(gameID), readyKey(gameID), timerKey(gameID), drawVoteKey(gameID)}
	for _, color := range colors {
		keys = append(keys, deployDraftKey(gameID, color))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
