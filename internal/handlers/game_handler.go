package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bridgequest/internal/models"
	"bridgequest/internal/utils"
)

type joinGameRequest struct {
	Code string `json:"code"`
}

type gameResponse struct {
	Game   *models.Game   `json:"game"`
	Player *models.Player `json:"player,omitempty"`
}

func gameIDParam(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// CreateGame makes a new WAITING game; the caller becomes its admin.
func (h *Handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	game, admin, err := h.gamesMgr.Create(r.Context(), userID)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, gameResponse{Game: game, Player: admin})
}

// JoinGame adds the caller to a WAITING game by its code.
func (h *Handlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	player, game, err := h.lobby.Join(r.Context(), req.Code, userID)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, gameResponse{Game: game, Player: player})
}

// GetGame returns the game with its roster.
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}
	gameID, ok := gameIDParam(r)
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	game, err := h.gamesMgr.Get(gameID)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	roster, err := h.gamesMgr.Roster(gameID)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	game.Players = roster
	utils.JSON(w, http.StatusOK, gameResponse{Game: game})
}

// StartGame launches deployment. Admin only.
func (h *Handlers) StartGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	gameID, ok := gameIDParam(r)
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	game, err := h.gamesMgr.Start(r.Context(), gameID, userID)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, gameResponse{Game: game})
}

// GetSettings returns the game's settings.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticate(w, r); !ok {
		return
	}
	gameID, ok := gameIDParam(r)
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	game, err := h.gamesMgr.Get(gameID)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, game.Settings)
}

// UpdateSettings edits settings. Admin only, WAITING only.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	gameID, ok := gameIDParam(r)
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	var req models.GameSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	settings, err := h.gamesMgr.UpdateSettings(gameID, userID, req)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, settings)
}

// LeaveGame is the REST fallback for a voluntary lobby exit.
func (h *Handlers) LeaveGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	gameID, ok := gameIDParam(r)
	if !ok {
		utils.JSONError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	player, err := h.players.GetByUserAndGame(userID, gameID)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}
	if err := h.lobby.VoluntaryLeave(r.Context(), gameID, player.ID); err != nil {
		h.writeBusinessError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "left"})
}
