package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"bridgequest/internal/broadcast"
	"bridgequest/internal/game_management"
	"bridgequest/internal/metrics"
	"bridgequest/internal/models"
	"bridgequest/internal/session"
	"bridgequest/internal/utils"
)

// Terminal close codes of the connection-establishment contract.
const (
	CloseNotAuthenticated = 4001
	CloseNotAPlayer       = 4002
	CloseWrongPhase       = 4003
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

type inboundFrame struct {
	Type string `json:"type"`
}

// LobbyWS is the WAITING-phase channel. The connection must belong to a
// player of the game; connecting cancels any pending exclusion, dropping the
// connection starts the grace timer, and an explicit "leave" frame removes
// the player immediately.
func (h *Handlers) LobbyWS(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(r)
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	userID, err := utils.AuthenticatedUserID(r, h.jwtSecret)
	if err != nil {
		closeWith(conn, CloseNotAuthenticated, "not authenticated")
		return
	}
	player, err := h.players.GetByUserAndGame(userID, gameID)
	if err != nil {
		closeWith(conn, CloseNotAPlayer, "not a player of this game")
		return
	}
	game, err := h.games.GetByID(gameID)
	if err != nil || game.State != models.StateWaiting {
		closeWith(conn, CloseWrongPhase, "lobby is closed")
		return
	}

	channel := broadcast.LobbyChannel(gameID)
	client := session.NewClient(uuid.NewString(), conn)
	room := h.hub.GetOrCreate(channel)
	room.Join(client)
	metrics.WSConnected("lobby")
	defer func() {
		if left := room.Leave(client); left == 0 {
			h.hub.Delete(channel)
		}
		metrics.WSDisconnected("lobby")
		conn.Close()
	}()

	// Reconnection within the grace period voids the exclusion timer.
	if err := h.lobby.ConnectToLobby(r.Context(), gameID, player.ID); err != nil {
		h.log.Error("cancel pending exclusion", zapFields(gameID, player.ID, err)...)
	}

	client.Send(models.GameEvent{
		Type: "connected",
		Data: map[string]any{
			"gameId": gameID,
			"player": game_management.BuildPlayerPayload(player, true),
		},
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Dropped without a leave signal: start the grace countdown.
			if markErr := h.lobby.MarkDisconnected(r.Context(), gameID, player.ID); markErr != nil {
				h.log.Error("mark disconnected", zapFields(gameID, player.ID, markErr)...)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Type == "leave" {
			err := h.lobby.VoluntaryLeave(r.Context(), gameID, player.ID)
			if errors.Is(err, game_management.ErrGameAlreadyStarted) {
				closeWith(conn, CloseWrongPhase, "game already started")
				return
			}
			if err != nil {
				h.log.Error("voluntary leave", zapFields(gameID, player.ID, err)...)
			}
			closeWith(conn, websocket.CloseNormalClosure, "left")
			return
		}
	}
}

// GameWS is the DEPLOYMENT/IN_PROGRESS channel. Clients resubscribe here
// after receiving game_started on the lobby channel. Read traffic is ignored;
// positions arrive over REST.
func (h *Handlers) GameWS(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(r)
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	userID, err := utils.AuthenticatedUserID(r, h.jwtSecret)
	if err != nil {
		closeWith(conn, CloseNotAuthenticated, "not authenticated")
		return
	}
	player, err := h.players.GetByUserAndGame(userID, gameID)
	if err != nil {
		closeWith(conn, CloseNotAPlayer, "not a player of this game")
		return
	}
	game, err := h.games.GetByID(gameID)
	if err != nil || (game.State != models.StateDeployment && game.State != models.StateInProgress) {
		closeWith(conn, CloseWrongPhase, "game is not running")
		return
	}

	channel := broadcast.GameChannel(gameID)
	client := session.NewClient(uuid.NewString(), conn)
	room := h.hub.GetOrCreate(channel)
	room.Join(client)
	metrics.WSConnected("game")
	defer func() {
		if left := room.Leave(client); left == 0 {
			h.hub.Delete(channel)
		}
		metrics.WSDisconnected("game")
		conn.Close()
	}()

	client.Send(models.GameEvent{
		Type: "connected",
		Data: map[string]any{
			"gameId": gameID,
			"player": game_management.BuildPlayerPayload(player, false),
		},
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

