package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mnoyd/cotulenh/api/internal/auth"
	"github.com/mnoyd/cotulenh/api/internal/model"
	"github.com/mnoyd/cotulenh/api/internal/service"
)

// --- Mock Repositories ---

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			u.DisplayName = displayName
			return u, nil
		}
	}
	m.seq++
	u := &model.User{
		ID:          fmt.Sprintf("user-%d", m.seq),
		Provider:    provider,
		ProviderID:  providerID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.DisplayName = displayName
	return nil
}

type mockGameRepo struct {
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
	seq     int
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{games: make(map[string]*model.Game), players: make(map[string][]model.GamePlayer)}
}

func (m *mockGameRepo) Create(_ context.Context, name, creatorID, turnDur string) (*model.Game, error) {
	m.seq++
	g := &model.Game{
		ID:           fmt.Sprintf("game-%d", m.seq),
		Name:         name,
		CreatorID:    creatorID,
		Status:       "waiting",
		TurnDuration: turnDur,
		CreatedAt:    time.Now(),
	}
	m.games[g.ID] = g
	return g, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = m.players[id]
	return &cp, nil
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "waiting" {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	var result []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if p.UserID == userID {
				if g, ok := m.games[gameID]; ok {
					result = append(result, *g)
				}
			}
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListFinished(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "finished" {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) SearchFinished(_ context.Context, search string) ([]model.Game, error) {
	lower := strings.ToLower(search)
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "finished" && strings.Contains(strings.ToLower(g.Name), lower) {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGameRepo) JoinGame(_ context.Context, gameID, userID string) error {
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{GameID: gameID, UserID: userID, JoinedAt: time.Now()})
	return nil
}

func (m *mockGameRepo) PlayerCount(_ context.Context, gameID string) (int, error) {
	return len(m.players[gameID]), nil
}

func (m *mockGameRepo) AssignColors(_ context.Context, gameID string, assignments map[string]string) error {
	players := m.players[gameID]
	for i := range players {
		if color, ok := assignments[players[i].UserID]; ok {
			players[i].Color = color
		}
	}
	m.players[gameID] = players
	if g, ok := m.games[gameID]; ok {
		g.Status = "active"
		now := time.Now()
		g.StartedAt = &now
	}
	return nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	var result []model.Game
	for _, g := range m.games {
		if g.Status == "active" {
			cp := *g
			cp.Players = m.players[g.ID]
			result = append(result, cp)
		}
	}
	return result, nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID, winner string) error {
	if g, ok := m.games[gameID]; ok {
		g.Status = "finished"
		g.Winner = winner
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

func (m *mockGameRepo) UpdatePlayerColor(_ context.Context, gameID, userID, color string) error {
	players := m.players[gameID]
	for i, p := range players {
		if p.UserID == userID {
			players[i].Color = color
			return nil
		}
	}
	return fmt.Errorf("player not found")
}

type mockTurnRepo struct {
	turns map[string]*model.Turn
	moves map[string][]model.Move
	seq   int
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{turns: make(map[string]*model.Turn), moves: make(map[string][]model.Move)}
}

func (m *mockTurnRepo) CreateTurn(_ context.Context, gameID string, moveNumber int, color, stateBefore string, deadline time.Time) (*model.Turn, error) {
	m.seq++
	t := &model.Turn{
		ID:          fmt.Sprintf("turn-%d", m.seq),
		GameID:      gameID,
		MoveNumber:  moveNumber,
		Color:       color,
		StateBefore: stateBefore,
		Deadline:    deadline,
		CreatedAt:   time.Now(),
	}
	m.turns[t.ID] = t
	return t, nil
}

func (m *mockTurnRepo) CurrentTurn(_ context.Context, gameID string) (*model.Turn, error) {
	for _, t := range m.turns {
		if t.GameID == gameID && t.ResolvedAt == nil {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTurnRepo) ListTurns(_ context.Context, gameID string) ([]model.Turn, error) {
	var result []model.Turn
	for _, t := range m.turns {
		if t.GameID == gameID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTurnRepo) ResolveTurn(_ context.Context, turnID, stateAfter string) error {
	if t, ok := m.turns[turnID]; ok {
		t.StateAfter = stateAfter
		now := time.Now()
		t.ResolvedAt = &now
	}
	return nil
}

func (m *mockTurnRepo) SaveMoves(_ context.Context, moves []model.Move) error {
	for _, mv := range moves {
		m.moves[mv.TurnID] = append(m.moves[mv.TurnID], mv)
	}
	return nil
}

func (m *mockTurnRepo) MovesByTurn(_ context.Context, turnID string) ([]model.Move, error) {
	return m.moves[turnID], nil
}

func (m *mockTurnRepo) ListExpired(_ context.Context) ([]model.Turn, error) {
	return nil, nil
}

type mockMessageRepo struct {
	messages []model.Message
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{}
}

func (m *mockMessageRepo) Create(_ context.Context, gameID, senderID, recipientID, content, turnID string) (*model.Message, error) {
	msg := &model.Message{
		ID:          fmt.Sprintf("msg-%d", len(m.messages)+1),
		GameID:      gameID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		TurnID:      turnID,
		CreatedAt:   time.Now(),
	}
	m.messages = append(m.messages, *msg)
	return msg, nil
}

func (m *mockMessageRepo) ListByGame(_ context.Context, gameID, userID string) ([]model.Message, error) {
	var result []model.Message
	for _, msg := range m.messages {
		if msg.GameID == gameID && (msg.RecipientID == "" || msg.SenderID == userID || msg.RecipientID == userID) {
			result = append(result, msg)
		}
	}
	return result, nil
}

type mockCache struct {
	positions map[string]string
	drafts    map[string][]string
}

func newMockCache() *mockCache {
	return &mockCache{positions: make(map[string]string), drafts: make(map[string][]string)}
}

func (m *mockCache) SetPosition(_ context.Context, gameID, fen string) error {
	m.positions[gameID] = fen
	return nil
}
func (m *mockCache) GetPosition(_ context.Context, gameID string) (string, error) {
	return m.positions[gameID], nil
}
func (m *mockCache) SetDeployDraft(_ context.Context, gameID, color string, steps []string) error {
	m.drafts[gameID+":"+color] = steps
	return nil
}
func (m *mockCache) GetDeployDraft(_ context.Context, gameID, color string) ([]string, error) {
	return m.drafts[gameID+":"+color], nil
}
func (m *mockCache) MarkReady(_ context.Context, gameID, color string) error      { return nil }
func (m *mockCache) UnmarkReady(_ context.Context, gameID, color string) error    { return nil }
func (m *mockCache) ReadyCount(_ context.Context, gameID string) (int64, error)   { return 0, nil }
func (m *mockCache) ReadyColors(_ context.Context, gameID string) ([]string, error) {
	return nil, nil
}
func (m *mockCache) SetTimer(_ context.Context, gameID string, deadline time.Time) error { return nil }
func (m *mockCache) ClearTimer(_ context.Context, gameID string) error                   { return nil }
func (m *mockCache) AddDrawVote(_ context.Context, gameID, color string) error           { return nil }
func (m *mockCache) RemoveDrawVote(_ context.Context, gameID, color string) error        { return nil }
func (m *mockCache) DrawVoteCount(_ context.Context, gameID string) (int64, error)       { return 0, nil }
func (m *mockCache) DrawVoteColors(_ context.Context, gameID string) ([]string, error) {
	return nil, nil
}
func (m *mockCache) ClearTurnData(_ context.Context, gameID string, colors []string) error {
	return nil
}
func (m *mockCache) DeleteGameData(_ context.Context, gameID string, colors []string) error {
	return nil
}

// --- Helpers ---

func reqWithUserID(method, path string, body string, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := auth.SetUserIDForTest(req.Context(), userID)
	return req.WithContext(ctx)
}

// --- User Handler Tests ---

func TestGetMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{ID: "user-1", DisplayName: "Alice", Provider: "google"}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodGet, "/users/me", "", "user-1")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Alice" {
		t.Errorf("expected Alice, got %s", user.DisplayName)
	}
}

func TestGetMeNotFound(t *testing.T) {
	repo := newMockUserRepo()
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodGet, "/users/me", "", "nonexistent")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{ID: "user-1", DisplayName: "Alice"}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", `{"display_name":"Bob"}`, "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Bob" {
		t.Errorf("expected Bob, got %s", user.DisplayName)
	}
}

func TestUpdateMeEmptyName(t *testing.T) {
	repo := newMockUserRepo()
	repo.users["user-1"] = &model.User{ID: "user-1"}
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", `{"display_name":""}`, "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateMeInvalidJSON(t *testing.T) {
	repo := newMockUserRepo()
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", "not json", "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// --- Game Handler Tests ---

func TestCreateGame(t *testing.T) {
	gameRepo, turnRepo := newMockGameRepo(), newMockTurnRepo()
	gameSvc := service.NewGameService(gameRepo, turnRepo, newMockUserRepo())
	turnSvc := service.NewTurnService(gameRepo, turnRepo, newMockCache(), nil)
	h := NewGameHandler(gameSvc, turnSvc, NewHub())

	req := reqWithUserID(http.MethodPost, "/games", `{"name":"Friendly match"}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var game model.Game
	json.Unmarshal(rec.Body.Bytes(), &game)
	if game.Name != "Friendly match" || game.Status != "waiting" {
		t.Errorf("unexpected game: %+v", game)
	}
}

func TestCreateGameMissingName(t *testing.T) {
	gameRepo, turnRepo := newMockGameRepo(), newMockTurnRepo()
	gameSvc := service.NewGameService(gameRepo, turnRepo, newMockUserRepo())
	turnSvc := service.NewTurnService(gameRepo, turnRepo, newMockCache(), nil)
	h := NewGameHandler(gameSvc, turnSvc, NewHub())

	req := reqWithUserID(http.MethodPost, "/games", `{}`, "user-1")
	rec := httptest.NewRecorder()
	h.CreateGame(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListGamesEmpty(t *testing.T) {
	gameRepo, turnRepo := newMockGameRepo(), newMockTurnRepo()
	gameSvc := service.NewGameService(gameRepo, turnRepo, newMockUserRepo())
	turnSvc := service.NewTurnService(gameRepo, turnRepo, newMockCache(), nil)
	h := NewGameHandler(gameSvc, turnSvc, NewHub())

	req := reqWithUserID(http.MethodGet, "/games", "", "user-1")
	rec := httptest.NewRecorder()
	h.ListGames(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "[]") {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestGetGameNotFound(t *testing.T) {
	gameRepo, turnRepo := newMockGameRepo(), newMockTurnRepo()
	gameSvc := service.NewGameService(gameRepo, turnRepo, newMockUserRepo())
	turnSvc := service.NewTurnService(gameRepo, turnRepo, newMockCache(), nil)
	h := NewGameHandler(gameSvc, turnSvc, NewHub())

	req := httptest.NewRequest(http.MethodGet, "/games/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.GetGame(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestJoinGameNotFound(t *testing.T) {
	gameRepo, turnRepo := newMockGameRepo(), newMockTurnRepo()
	gameSvc := service.NewGameService(gameRepo, turnRepo, newMockUserRepo())
	turnSvc := service.NewTurnService(gameRepo, turnRepo, newMockCache(), nil)
	h := NewGameHandler(gameSvc, turnSvc, NewHub())

	req := reqWithUserID(http.MethodPost, "/games/missing/join", "", "user-2")
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.JoinGame(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// --- Message Handler Tests ---

func TestSendAndListMessages(t *testing.T) {
	msgRepo := newMockMessageRepo()
	turnRepo := newMockTurnRepo()
	h := NewMessageHandler(msgRepo, turnRepo, NewHub())

	req := reqWithUserID(http.MethodPost, "/games/game-1/messages", `{"content":"gl hf"}`, "user-1")
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.SendMessage(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	listReq := reqWithUserID(http.MethodGet, "/games/game-1/messages", "", "user-1")
	listReq.SetPathValue("id", "game-1")
	listRec := httptest.NewRecorder()
	h.ListMessages(listRec, listReq)

	var msgs []model.Message
	json.Unmarshal(listRec.Body.Bytes(), &msgs)
	if len(msgs) != 1 || msgs[0].Content != "gl hf" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestSendMessageEmptyContent(t *testing.T) {
	msgRepo := newMockMessageRepo()
	turnRepo := newMockTurnRepo()
	h := NewMessageHandler(msgRepo, turnRepo, NewHub())

	req := reqWithUserID(http.MethodPost, "/games/game-1/messages", `{"content":""}`, "user-1")
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.SendMessage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListMessagesEmpty(t *testing.T) {
	msgRepo := newMockMessageRepo()
	turnRepo := newMockTurnRepo()
	h := NewMessageHandler(msgRepo, turnRepo, NewHub())

	req := reqWithUserID(http.MethodGet, "/games/game-1/messages", "", "user-1")
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.ListMessages(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "[]") {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

// --- Turn Handler Tests ---

func TestListTurnsEmpty(t *testing.T) {
	turnRepo, gameRepo := newMockTurnRepo(), newMockGameRepo()
	turnSvc := service.NewTurnService(gameRepo, turnRepo, newMockCache(), nil)
	h := NewTurnHandler(turnSvc)

	req := httptest.NewRequest(http.MethodGet, "/games/game-1/turns", nil)
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.ListTurns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "[]") {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestCurrentTurnNotFound(t *testing.T) {
	turnRepo, gameRepo := newMockTurnRepo(), newMockGameRepo()
	turnSvc := service.NewTurnService(gameRepo, turnRepo, newMockCache(), nil)
	h := NewTurnHandler(turnSvc)

	req := httptest.NewRequest(http.MethodGet, "/games/game-1/turns/current", nil)
	req.SetPathValue("id", "game-1")
	rec := httptest.NewRecorder()
	h.CurrentTurn(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// --- Auth Handler Tests ---

func TestRefreshTokenValid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	repo := newMockUserRepo()
	h := NewAuthHandler(nil, jwtMgr, repo)

	refresh, _ := jwtMgr.GenerateRefreshToken("user-1")
	body := fmt.Sprintf(`{"refresh_token":"%s"}`, refresh)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tokens auth.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &tokens)
	if tokens.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
}

func TestRefreshTokenInvalid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	repo := newMockUserRepo()
	h := NewAuthHandler(nil, jwtMgr, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"invalid"}`))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshTokenBadBody(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	repo := newMockUserRepo()
	h := NewAuthHandler(nil, jwtMgr, repo)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
