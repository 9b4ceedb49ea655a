package routers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bridgequest/internal/broadcast"
	"bridgequest/internal/game_management"
	"bridgequest/internal/handlers"
	"bridgequest/internal/models"
	"bridgequest/internal/repositories"
	"bridgequest/internal/session"
	"bridgequest/internal/testhelpers"
)

const testSecret = "test-secret"

type testServer struct {
	t       *testing.T
	server  *httptest.Server
	db      *gorm.DB
	games   *repositories.GameRepository
	players *repositories.PlayerRepository
	hub     *session.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testhelpers.SetupTestDB(t)
	_, rdb := testhelpers.SetupTestRedis(t)
	log := zap.NewNop()

	games := &repositories.GameRepository{DB: db}
	players := &repositories.PlayerRepository{DB: db}
	positions := &repositories.PositionRepository{DB: db}
	hub := session.NewHub()
	gateway := broadcast.NewGateway(rdb, log)
	scores := game_management.NewScoreCalculator(players)
	lifecycle := game_management.NewLifecycleManager(games, players, scores, gateway, log)
	pending := game_management.NewPendingExclusions(rdb, 30*time.Second)
	lobby := game_management.NewLobbyManager(games, players, pending, gateway, lifecycle, log)
	gamesMgr := game_management.NewGameManager(games, players, lifecycle, log)

	h := handlers.New(testSecret, gamesMgr, lobby, games, players, positions, gateway, hub, log)
	server := httptest.NewServer(New(h))
	t.Cleanup(server.Close)

	return &testServer{
		t:       t,
		server:  server,
		db:      db,
		games:   games,
		players: players,
		hub:     hub,
	}
}

func (s *testServer) createUser(username string) *models.User {
	s.t.Helper()
	user := &models.User{Username: username}
	if err := s.db.Create(user).Error; err != nil {
		s.t.Fatalf("seed user %q: %v", username, err)
	}
	return user
}

func (s *testServer) token(userID uint) string {
	s.t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": fmt.Sprintf("%d", userID),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		s.t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (s *testServer) request(method, path, token string, body any) (*http.Response, map[string]any) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode request body: %v", err)
		}
	}

	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	if err != nil {
		s.t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.server.Client().Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (s *testServer) createGame(username string) (*models.User, map[string]any) {
	s.t.Helper()
	user := s.createUser(username)
	resp, body := s.request("POST", "/api/v1/games", s.token(user.ID), nil)
	if resp.StatusCode != http.StatusCreated {
		s.t.Fatalf("create game: unexpected status %d", resp.StatusCode)
	}
	return user, body
}

func gameField(t *testing.T, body map[string]any, field string) any {
	t.Helper()
	game, ok := body["game"].(map[string]any)
	if !ok {
		t.Fatalf("response has no game object: %v", body)
	}
	return game[field]
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.server.URL + "/healthz")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.server.URL + "/metrics")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEndpointsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/games"},
		{"POST", "/api/v1/games/join"},
		{"GET", "/api/v1/games/1"},
		{"POST", "/api/v1/games/1/start"},
		{"POST", "/api/v1/games/1/leave"},
		{"GET", "/api/v1/games/1/settings"},
		{"PUT", "/api/v1/games/1/settings"},
		{"GET", "/api/v1/games/1/positions"},
		{"POST", "/api/v1/positions"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, _ := s.request(tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestCreateGame(t *testing.T) {
	s := newTestServer(t)
	_, body := s.createGame("alice")

	code, ok := gameField(t, body, "code").(string)
	assert.True(t, ok)
	assert.Len(t, code, 6)
	assert.Equal(t, "WAITING", gameField(t, body, "state"))

	player, ok := body["player"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, true, player["isAdmin"])
}

func TestJoinAndStartFlow(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	code := gameField(t, created, "code").(string)
	gameID := uint(gameField(t, created, "ID").(float64))

	bob := s.createUser("bob")
	resp, joined := s.request("POST", "/api/v1/games/join", s.token(bob.ID), map[string]string{"code": code})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	player, ok := joined["player"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, false, player["isAdmin"])

	// Joining the same game twice is a conflict.
	resp, _ = s.request("POST", "/api/v1/games/join", s.token(bob.ID), map[string]string{"code": code})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown and malformed codes.
	resp, _ = s.request("POST", "/api/v1/games/join", s.token(bob.ID), map[string]string{"code": "ZZZZZZ"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = s.request("POST", "/api/v1/games/join", s.token(bob.ID), map[string]string{"code": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The roster shows both players.
	resp, got := s.request("GET", fmt.Sprintf("/api/v1/games/%d", gameID), s.token(admin.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	players, ok := gameField(t, got, "players").([]any)
	assert.True(t, ok)
	assert.Len(t, players, 2)

	// Only the admin may start the game.
	resp, _ = s.request("POST", fmt.Sprintf("/api/v1/games/%d/start", gameID), s.token(bob.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, started := s.request("POST", fmt.Sprintf("/api/v1/games/%d/start", gameID), s.token(admin.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DEPLOYMENT", gameField(t, started, "state"))

	// A started game accepts no more joins.
	carol := s.createUser("carol")
	resp, _ = s.request("POST", "/api/v1/games/join", s.token(carol.ID), map[string]string{"code": code})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStartWithOnePlayer(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	gameID := uint(gameField(t, created, "ID").(float64))

	resp, _ := s.request("POST", fmt.Sprintf("/api/v1/games/%d/start", gameID), s.token(admin.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettingsEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	gameID := uint(gameField(t, created, "ID").(float64))

	resp, settings := s.request("GET", fmt.Sprintf("/api/v1/games/%d/settings", gameID), s.token(admin.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, models.DefaultGameDuration, settings["gameDuration"])

	update := map[string]any{
		"gameDuration":               45,
		"deploymentDuration":         10,
		"spiritPercentage":           25,
		"pointsPerMinute":            5,
		"conversionPointsPercentage": 40,
	}
	resp, updated := s.request("PUT", fmt.Sprintf("/api/v1/games/%d/settings", gameID), s.token(admin.ID), update)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 45, updated["gameDuration"])

	// Validation failures are client errors.
	update["spiritPercentage"] = 150
	resp, _ = s.request("PUT", fmt.Sprintf("/api/v1/games/%d/settings", gameID), s.token(admin.ID), update)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Outsiders may not edit settings.
	outsider := s.createUser("mallory")
	update["spiritPercentage"] = 25
	resp, _ = s.request("PUT", fmt.Sprintf("/api/v1/games/%d/settings", gameID), s.token(outsider.ID), update)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLeaveGame(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	code := gameField(t, created, "code").(string)
	gameID := uint(gameField(t, created, "ID").(float64))

	bob := s.createUser("bob")
	resp, _ := s.request("POST", "/api/v1/games/join", s.token(bob.ID), map[string]string{"code": code})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = s.request("POST", fmt.Sprintf("/api/v1/games/%d/leave", gameID), s.token(bob.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	count, err := s.players.CountByGame(gameID)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Leaving a game the caller is not in.
	resp, _ = s.request("POST", fmt.Sprintf("/api/v1/games/%d/leave", gameID), s.token(bob.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = admin
}

func TestLeaveGameAfterStart(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	code := gameField(t, created, "code").(string)
	gameID := uint(gameField(t, created, "ID").(float64))

	bob := s.createUser("bob")
	resp, _ := s.request("POST", "/api/v1/games/join", s.token(bob.ID), map[string]string{"code": code})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = s.request("POST", fmt.Sprintf("/api/v1/games/%d/start", gameID), s.token(admin.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The leave must be refused, not silently swallowed.
	resp, _ = s.request("POST", fmt.Sprintf("/api/v1/games/%d/leave", gameID), s.token(bob.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	count, err := s.players.CountByGame(gameID)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestPositions(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	code := gameField(t, created, "code").(string)
	gameID := uint(gameField(t, created, "ID").(float64))

	bob := s.createUser("bob")
	resp, _ := s.request("POST", "/api/v1/games/join", s.token(bob.ID), map[string]string{"code": code})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	sample := map[string]any{"gameId": gameID, "latitude": 48.85, "longitude": 2.35}

	// Positions are rejected while the game is WAITING.
	resp, _ = s.request("POST", "/api/v1/positions", s.token(bob.ID), sample)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.request("POST", fmt.Sprintf("/api/v1/games/%d/start", gameID), s.token(admin.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.request("POST", "/api/v1/positions", s.token(bob.ID), sample)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Out-of-range coordinates.
	resp, _ = s.request("POST", "/api/v1/positions", s.token(bob.ID),
		map[string]any{"gameId": gameID, "latitude": 200.0, "longitude": 2.35})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Non-members may not report positions.
	outsider := s.createUser("mallory")
	resp, _ = s.request("POST", "/api/v1/positions", s.token(outsider.ID), sample)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.request("GET", fmt.Sprintf("/api/v1/games/%d/positions", gameID), s.token(admin.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func (s *testServer) wsURL(path string) string {
	return strings.Replace(s.server.URL, "http", "ws", 1) + path
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readClose(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			if assert.ErrorAs(t, err, &closeErr) {
				return closeErr.Code
			}
			return 0
		}
	}
}

func TestLobbyWS(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	gameID := uint(gameField(t, created, "ID").(float64))

	conn := dialWS(t, s.wsURL(fmt.Sprintf("/ws/lobby/%d?token=%s", gameID, s.token(admin.ID))))

	var event models.GameEvent
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read connected frame: %v", err)
	}
	assert.Equal(t, "connected", event.Type)
	player, ok := event.Data["player"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "alice", player["username"])
	assert.Equal(t, true, player["isAdmin"])

	assert.Equal(t, 1, s.hub.ClientCount(broadcast.LobbyChannel(gameID)))
}

func TestLobbyWSUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	_, created := s.createGame("alice")
	gameID := uint(gameField(t, created, "ID").(float64))

	conn := dialWS(t, s.wsURL(fmt.Sprintf("/ws/lobby/%d", gameID)))
	assert.Equal(t, 4001, readClose(t, conn))
}

func TestLobbyWSNotAPlayer(t *testing.T) {
	s := newTestServer(t)
	_, created := s.createGame("alice")
	gameID := uint(gameField(t, created, "ID").(float64))
	outsider := s.createUser("mallory")

	conn := dialWS(t, s.wsURL(fmt.Sprintf("/ws/lobby/%d?token=%s", gameID, s.token(outsider.ID))))
	assert.Equal(t, 4002, readClose(t, conn))
}

func TestLobbyWSLeaveFrame(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	code := gameField(t, created, "code").(string)
	gameID := uint(gameField(t, created, "ID").(float64))

	bob := s.createUser("bob")
	resp, joined := s.request("POST", "/api/v1/games/join", s.token(bob.ID), map[string]string{"code": code})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	playerID := uint(joined["player"].(map[string]any)["ID"].(float64))

	conn := dialWS(t, s.wsURL(fmt.Sprintf("/ws/lobby/%d?token=%s", gameID, s.token(bob.ID))))

	var event models.GameEvent
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read connected frame: %v", err)
	}

	if err := conn.WriteJSON(map[string]string{"type": "leave"}); err != nil {
		t.Fatalf("send leave frame: %v", err)
	}
	assert.Equal(t, websocket.CloseNormalClosure, readClose(t, conn))

	_, err := s.players.GetByID(playerID)
	assert.ErrorIs(t, err, repositories.ErrPlayerNotFound)
	_ = admin
}

func TestGameWSWrongPhase(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	gameID := uint(gameField(t, created, "ID").(float64))

	// The game channel is closed while the game is still WAITING.
	conn := dialWS(t, s.wsURL(fmt.Sprintf("/ws/game/%d?token=%s", gameID, s.token(admin.ID))))
	assert.Equal(t, 4003, readClose(t, conn))
}

func TestGameWS(t *testing.T) {
	s := newTestServer(t)
	admin, created := s.createGame("alice")
	code := gameField(t, created, "code").(string)
	gameID := uint(gameField(t, created, "ID").(float64))

	bob := s.createUser("bob")
	resp, _ := s.request("POST", "/api/v1/games/join", s.token(bob.ID), map[string]string{"code": code})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = s.request("POST", fmt.Sprintf("/api/v1/games/%d/start", gameID), s.token(admin.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn := dialWS(t, s.wsURL(fmt.Sprintf("/ws/game/%d?token=%s", gameID, s.token(bob.ID))))

	var event models.GameEvent
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read connected frame: %v", err)
	}
	assert.Equal(t, "connected", event.Type)
	player, ok := event.Data["player"].(map[string]any)
	assert.True(t, ok)
	// Game channel payloads carry no admin flag.
	_, hasAdmin := player["isAdmin"]
	assert.False(t, hasAdmin)
}
