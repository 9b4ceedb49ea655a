package repositories

import (
	"errors"

	"gorm.io/gorm"

	"bridgequest/internal/models"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository struct {
	DB *gorm.DB
}

func (r *PlayerRepository) Create(player *models.Player) error {
	if err := r.DB.Create(player).Error; err != nil {
		return err
	}
	return r.DB.Preload("User").First(player, player.ID).Error
}

func (r *PlayerRepository) GetByID(playerID uint) (*models.Player, error) {
	var player models.Player
	err := r.DB.Preload("User").First(&player, playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PlayerRepository) GetByUserAndGame(userID, gameID uint) (*models.Player, error) {
	var player models.Player
	err := r.DB.Preload("User").
		Where("user_id = ? AND game_id = ?", userID, gameID).
		First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PlayerRepository) ExistsInGame(userID, gameID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Player{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&count).Error
	return count > 0, err
}

// ListByGame returns the roster ordered by join time, oldest first.
func (r *PlayerRepository) ListByGame(gameID uint) ([]models.Player, error) {
	var players []models.Player
	err := r.DB.Preload("User").
		Where("game_id = ?", gameID).
		Order("joined_at ASC, id ASC").
		Find(&players).Error
	return players, err
}

func (r *PlayerRepository) CountByGame(gameID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Player{}).Where("game_id = ?", gameID).Count(&count).Error
	return count, err
}

// Delete removes the player row. Returns false when the row was already gone,
// so racing exclusion paths cannot double-delete. The delete is unscoped: a
// soft-deleted row would keep holding the (user_id, game_id) unique index and
// block the same user from rejoining the game.
func (r *PlayerRepository) Delete(playerID uint) (bool, error) {
	tx := r.DB.Unscoped().Delete(&models.Player{}, playerID)
	return tx.RowsAffected > 0, tx.Error
}

// OldestInGame returns the earliest-joined remaining player, or
// ErrPlayerNotFound when the roster is empty.
func (r *PlayerRepository) OldestInGame(gameID uint) (*models.Player, error) {
	var player models.Player
	err := r.DB.Preload("User").
		Where("game_id = ?", gameID).
		Order("joined_at ASC, id ASC").
		First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *PlayerRepository) SetAdmin(playerID uint) error {
	return r.DB.Model(&models.Player{}).Where("id = ?", playerID).
		Update("is_admin", true).Error
}

// UpdateRoles persists assigned roles for the whole roster in one transaction.
func (r *PlayerRepository) UpdateRoles(players []models.Player) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range players {
			if err := tx.Model(&models.Player{}).Where("id = ?", players[i].ID).
				Update("role", players[i].Role).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddScores applies per-player score deltas in one transaction. Scores only
// ever grow through this path.
func (r *PlayerRepository) AddScores(deltas map[uint]int) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for playerID, delta := range deltas {
			if delta == 0 {
				continue
			}
			if err := tx.Model(&models.Player{}).Where("id = ?", playerID).
				Update("score", gorm.Expr("score + ?", delta)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
