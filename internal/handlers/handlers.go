package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"bridgequest/internal/broadcast"
	"bridgequest/internal/game_management"
	"bridgequest/internal/repositories"
	"bridgequest/internal/session"
	"bridgequest/internal/utils"
)

// Handlers groups the HTTP and WebSocket endpoints with their dependencies.
type Handlers struct {
	jwtSecret string

	gamesMgr  *game_management.GameManager
	lobby     *game_management.LobbyManager
	games     *repositories.GameRepository
	players   *repositories.PlayerRepository
	positions *repositories.PositionRepository
	gateway   *broadcast.Gateway
	hub       *session.Hub
	log       *zap.Logger
}

func New(
	jwtSecret string,
	gamesMgr *game_management.GameManager,
	lobby *game_management.LobbyManager,
	games *repositories.GameRepository,
	players *repositories.PlayerRepository,
	positions *repositories.PositionRepository,
	gateway *broadcast.Gateway,
	hub *session.Hub,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		jwtSecret: jwtSecret,
		gamesMgr:  gamesMgr,
		lobby:     lobby,
		games:     games,
		players:   players,
		positions: positions,
		gateway:   gateway,
		hub:       hub,
		log:       log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// writeBusinessError maps manager errors onto HTTP statuses with an explicit
// reason; anything unexpected becomes a generic 500 without internal detail.
func (h *Handlers) writeBusinessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repositories.ErrGameNotFound):
		utils.JSONError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, repositories.ErrPlayerNotFound):
		utils.JSONError(w, http.StatusNotFound, "player not found")
	case errors.Is(err, game_management.ErrInvalidGameCode):
		utils.JSONError(w, http.StatusBadRequest, "invalid game code")
	case errors.Is(err, game_management.ErrInvalidSettings):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game_management.ErrNotEnoughPlayers):
		utils.JSONError(w, http.StatusBadRequest, "not enough players to start")
	case errors.Is(err, game_management.ErrPlayerAlreadyInGame):
		utils.JSONError(w, http.StatusConflict, "already in this game")
	case errors.Is(err, game_management.ErrGameAlreadyStarted):
		utils.JSONError(w, http.StatusConflict, "game already started")
	case errors.Is(err, game_management.ErrGameNotInDeployment),
		errors.Is(err, game_management.ErrGameNotInProgress):
		utils.JSONError(w, http.StatusConflict, "wrong game phase")
	case errors.Is(err, game_management.ErrPlayerNotInGame):
		utils.JSONError(w, http.StatusForbidden, "not a player of this game")
	case errors.Is(err, game_management.ErrNotAdmin):
		utils.JSONError(w, http.StatusForbidden, "admin rights required")
	default:
		h.log.Error("request failed", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func zapFields(gameID, playerID uint, err error) []zap.Field {
	return []zap.Field{
		zap.Uint("gameId", gameID),
		zap.Uint("playerId", playerID),
		zap.Error(err),
	}
}

// authenticate resolves the caller's user ID or writes a 401.
func (h *Handlers) authenticate(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, err := utils.AuthenticatedUserID(r, h.jwtSecret)
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "not authenticated")
		return 0, false
	}
	return userID, true
}
