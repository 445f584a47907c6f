//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mnoyd/cotulenh/api/internal/testutil"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return &Client{rdb: testRDB}
}

const sampleFEN = "r1c3ca3c/11/11/11/11/11/11/11/11/11/11/R1C3CA3C r - - 0 1"

func TestPositionRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-1"

	if err := c.SetPosition(ctx, gameID, sampleFEN); err != nil {
		t.Fatalf("set position: %v", err)
	}

	got, err := c.GetPosition(ctx, gameID)
	if err != nil {
		t.Fatalf("get position: %v", err)
	}
	if got != sampleFEN {
		t.Fatalf("expected %q, got %q", sampleFEN, got)
	}
}

func TestPositionNotFound(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	got, err := c.GetPosition(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("get missing position: %v", err)
	}
	if got != "" {
		t.Fatal("expected empty string for missing position")
	}
}

func TestDeployDraftSetAndGet(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-2"

	steps := []string{"Td6>Ce7", "Td6>Ie8"}
	if err := c.SetDeployDraft(ctx, gameID, "red", steps); err != nil {
		t.Fatalf("set deploy draft: %v", err)
	}

	got, err := c.GetDeployDraft(ctx, gameID, "red")
	if err != nil {
		t.Fatalf("get deploy draft: %v", err)
	}
	if len(got) != 2 || got[0] != steps[0] || got[1] != steps[1] {
		t.Fatalf("expected %v, got %v", steps, got)
	}

	missing, err := c.GetDeployDraft(ctx, gameID, "blue")
	if err != nil {
		t.Fatalf("get missing draft: %v", err)
	}
	if len(missing) != 0 {
		t.Fatal("expected empty draft for color with no steps")
	}
}

func TestDeployDraftReplace(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-2b"

	c.SetDeployDraft(ctx, gameID, "red", []string{"Td6>Ce7"})
	c.SetDeployDraft(ctx, gameID, "red", []string{"Td6>Ce7", "Td6>Ie8"})

	got, _ := c.GetDeployDraft(ctx, gameID, "red")
	if len(got) != 2 {
		t.Fatalf("expected replaced draft with 2 steps, got %d", len(got))
	}

	c.SetDeployDraft(ctx, gameID, "red", nil)
	got, _ = c.GetDeployDraft(ctx, gameID, "red")
	if len(got) != 0 {
		t.Fatalf("expected draft cleared, got %v", got)
	}
}

func TestReadySetOperations(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-4"

	count, _ := c.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Fatalf("expected 0 ready, got %d", count)
	}

	c.MarkReady(ctx, gameID, "red")
	c.MarkReady(ctx, gameID, "blue")

	count, _ = c.ReadyCount(ctx, gameID)
	if count != 2 {
		t.Fatalf("expected 2 ready, got %d", count)
	}

	colors, _ := c.ReadyColors(ctx, gameID)
	if len(colors) != 2 {
		t.Fatalf("expected 2 ready colors, got %d", len(colors))
	}

	c.MarkReady(ctx, gameID, "red")
	count, _ = c.ReadyCount(ctx, gameID)
	if count != 2 {
		t.Fatalf("expected 2 ready after duplicate, got %d", count)
	}

	c.UnmarkReady(ctx, gameID, "red")
	count, _ = c.ReadyCount(ctx, gameID)
	if count != 1 {
		t.Fatalf("expected 1 ready after unmark, got %d", count)
	}
}

func TestTimerWithTTL(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-5"

	deadline := time.Now().Add(10 * time.Second)
	if err := c.SetTimer(ctx, gameID, deadline); err != nil {
		t.Fatalf("set timer: %v", err)
	}

	ttl := testRDB.TTL(ctx, timerKey(gameID)).Val()
	if ttl <= 0 || ttl > 16*time.Second {
		t.Fatalf("expected TTL ~15s, got %v", ttl)
	}

	c.ClearTimer(ctx, gameID)
	exists := testRDB.Exists(ctx, timerKey(gameID)).Val()
	if exists != 0 {
		t.Fatal("expected timer key to be deleted")
	}
}

func TestTimerPastDeadline(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-5b"

	deadline := time.Now().Add(-5 * time.Second)
	if err := c.SetTimer(ctx, gameID, deadline); err != nil {
		t.Fatalf("set timer past deadline: %v", err)
	}

	ttl := testRDB.TTL(ctx, timerKey(gameID)).Val()
	if ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("expected TTL ~1s for past deadline, got %v", ttl)
	}
}

func TestClearTurnData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-6"
	colors := []string{"red", "blue"}

	c.SetPosition(ctx, gameID, sampleFEN)
	c.SetDeployDraft(ctx, gameID, "red", []string{"Td6>Ce7"})
	c.MarkReady(ctx, gameID, "red")
	c.SetTimer(ctx, gameID, time.Now().Add(10*time.Second))

	if err := c.ClearTurnData(ctx, gameID, colors); err != nil {
		t.Fatalf("clear turn data: %v", err)
	}

	draft, _ := c.GetDeployDraft(ctx, gameID, "red")
	if len(draft) != 0 {
		t.Fatal("expected red deploy draft cleared")
	}
	count, _ := c.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Fatal("expected ready cleared")
	}
	exists := testRDB.Exists(ctx, timerKey(gameID)).Val()
	if exists != 0 {
		t.Fatal("expected timer cleared")
	}

	pos, _ := c.GetPosition(ctx, gameID)
	if pos == "" {
		t.Fatal("expected position to survive ClearTurnData")
	}
}

func TestDeleteGameData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-7"
	colors := []string{"red", "blue"}

	c.SetPosition(ctx, gameID, sampleFEN)
	c.SetDeployDraft(ctx, gameID, "red", []string{"Td6>Ce7"})
	c.MarkReady(ctx, gameID, "red")
	c.SetTimer(ctx, gameID, time.Now().Add(10*time.Second))

	if err := c.DeleteGameData(ctx, gameID, colors); err != nil {
		t.Fatalf("delete game data: %v", err)
	}

	pos, _ := c.GetPosition(ctx, gameID)
	if pos != "" {
		t.Fatal("expected position deleted")
	}
	draft, _ := c.GetDeployDraft(ctx, gameID, "red")
	if len(draft) != 0 {
		t.Fatal("expected deploy draft deleted")
	}
	count, _ := c.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Fatal("expected ready deleted")
	}
}
