package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"bridgequest/internal/game_management"
	"bridgequest/internal/models"
	"bridgequest/internal/repositories"
	"bridgequest/internal/utils"
)

type positionRequest struct {
	GameID    uint    `json:"gameId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreatePosition stores a GPS sample for the caller and pushes
// position_updated to the game channel. Accepted only while the game clock
// is running.
func (h *Handlers) CreatePosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		utils.JSONError(w, http.StatusBadRequest, "invalid coordinates")
		return
	}

	game, err := h.games.GetByID(req.GameID)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	if game.State != models.StateDeployment && game.State != models.StateInProgress {
		h.writeBusinessError(w, game_management.ErrGameNotInProgress)
		return
	}

	player, err := h.players.GetByUserAndGame(userID, req.GameID)
	if err != nil {
		if err == repositories.ErrPlayerNotFound {
			h.writeBusinessError(w, game_management.ErrPlayerNotInGame)
			return
		}
		h.writeBusinessError(w, err)
		return
	}

	position := &models.Position{
		PlayerID:   player.ID,
		GameID:     req.GameID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		RecordedAt: time.Now().UTC(),
	}
	if err := h.positions.Create(position); err != nil {
		h.writeBusinessError(w, err)
		return
	}

	h.gateway.PositionUpdated(r.Context(), req.GameID, map[string]any{
		"playerId":   player.ID,
		"user":       map[string]any{"id": player.UserID, "username": player.User.Username},
		"latitude":   req.Latitude,
		"longitude":  req.Longitude,
		"recordedAt": position.RecordedAt.Format(time.RFC3339),
	})
	utils.JSON(w, http.StatusCreated, position)
}

// ListPositions returns the most recent sample per player of the game.
func (h *Handlers) ListPositions(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}
	gameID, ok := gameIDParam(r)
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	if _, err := h.games.GetByID(gameID); err != nil {
		h.writeBusinessError(w, err)
		return
	}

	positions, err := h.positions.LatestByGame(gameID)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, positions)
}
