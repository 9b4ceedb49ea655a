package game_management

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bridgequest/internal/models"
	"bridgequest/internal/repositories"
)

// GameManager covers game creation, lookup, settings edits and the admin's
// start action.
type GameManager struct {
	games     *repositories.GameRepository
	players   *repositories.PlayerRepository
	lifecycle *LifecycleManager
	log       *zap.Logger
}

func NewGameManager(
	games *repositories.GameRepository,
	players *repositories.PlayerRepository,
	lifecycle *LifecycleManager,
	log *zap.Logger,
) *GameManager {
	return &GameManager{games: games, players: players, lifecycle: lifecycle, log: log}
}

// Create makes a WAITING game with default settings and its creator as the
// admin player. Codes are regenerated until unique.
func (m *GameManager) Create(ctx context.Context, userID uint) (*models.Game, *models.Player, error) {
	code, err := m.uniqueCode()
	if err != nil {
		return nil, nil, err
	}

	game := &models.Game{Code: code, State: models.StateWaiting}
	if err := m.games.CreateWithSettings(game); err != nil {
		return nil, nil, err
	}

	admin := &models.Player{
		UserID:  userID,
		GameID:  game.ID,
		IsAdmin: true,
		Role:    models.RoleHuman,
	}
	if err := m.players.Create(admin); err != nil {
		return nil, nil, err
	}

	m.log.Info("game created",
		zap.Uint("gameId", game.ID),
		zap.String("code", game.Code),
		zap.Uint("adminId", admin.ID))
	return game, admin, nil
}

func (m *GameManager) uniqueCode() (string, error) {
	for i := 0; i < 10; i++ {
		code, err := GenerateGameCode()
		if err != nil {
			return "", err
		}
		exists, err := m.games.CodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique game code")
}

func (m *GameManager) Get(gameID uint) (*models.Game, error) {
	return m.games.GetByID(gameID)
}

// Roster returns the game's players, oldest join first.
func (m *GameManager) Roster(gameID uint) ([]models.Player, error) {
	if _, err := m.games.GetByID(gameID); err != nil {
		return nil, err
	}
	return m.players.ListByGame(gameID)
}

// Start launches deployment. Only the game's admin may start it.
func (m *GameManager) Start(ctx context.Context, gameID, userID uint) (*models.Game, error) {
	if err := m.requireAdmin(gameID, userID); err != nil {
		return nil, err
	}
	return m.lifecycle.BeginDeployment(ctx, gameID)
}

// UpdateSettings edits the game configuration. Admin only, WAITING only:
// settings lock once deployment begins.
func (m *GameManager) UpdateSettings(gameID, userID uint, updated models.GameSettings) (*models.GameSettings, error) {
	game, err := m.games.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if game.State != models.StateWaiting {
		return nil, ErrGameAlreadyStarted
	}
	if err := m.requireAdmin(gameID, userID); err != nil {
		return nil, err
	}
	if err := validateSettings(&updated); err != nil {
		return nil, err
	}

	settings := game.Settings
	settings.GameDuration = updated.GameDuration
	settings.DeploymentDuration = updated.DeploymentDuration
	settings.SpiritPercentage = updated.SpiritPercentage
	settings.PointsPerMinute = updated.PointsPerMinute
	settings.ConversionPointsPercentage = updated.ConversionPointsPercentage
	if err := m.games.SaveSettings(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (m *GameManager) requireAdmin(gameID, userID uint) error {
	player, err := m.players.GetByUserAndGame(userID, gameID)
	if err != nil {
		if err == repositories.ErrPlayerNotFound {
			return ErrPlayerNotInGame
		}
		return err
	}
	if !player.IsAdmin {
		return ErrNotAdmin
	}
	return nil
}

func validateSettings(s *models.GameSettings) error {
	if s.GameDuration <= 0 || s.DeploymentDuration <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidSettings)
	}
	if s.SpiritPercentage < 0 || s.SpiritPercentage > 100 {
		return fmt.Errorf("%w: spirit percentage must be within [0,100]", ErrInvalidSettings)
	}
	if s.PointsPerMinute < 0 {
		return fmt.Errorf("%w: points per minute must not be negative", ErrInvalidSettings)
	}
	if s.ConversionPointsPercentage < 0 || s.ConversionPointsPercentage > 100 {
		return fmt.Errorf("%w: conversion percentage must be within [0,100]", ErrInvalidSettings)
	}
	return nil
}
