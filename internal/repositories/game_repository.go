package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"bridgequest/internal/models"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository struct {
	DB *gorm.DB
}

// CreateWithSettings creates the game and its settings row atomically.
func (r *GameRepository) CreateWithSettings(game *models.Game) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(game).Error; err != nil {
			return err
		}
		settings := models.DefaultSettings(game.ID)
		if err := tx.Create(&settings).Error; err != nil {
			return err
		}
		game.Settings = settings
		return nil
	})
}

func (r *GameRepository) GetByID(gameID uint) (*models.Game, error) {
	var game models.Game
	err := r.DB.Preload("Settings").First(&game, gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// GetByCode looks a game up by its normalized (uppercase) code.
func (r *GameRepository) GetByCode(code string) (*models.Game, error) {
	var game models.Game
	err := r.DB.Preload("Settings").Where("code = ?", code).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *GameRepository) CodeExists(code string) (bool, error) {
	var count int64
	if err := r.DB.Model(&models.Game{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AdvanceToDeployment moves WAITING -> DEPLOYMENT. The state guard in the
// WHERE clause makes a repeated transition a no-op (returns false) instead of
// double-applying it.
func (r *GameRepository) AdvanceToDeployment(gameID uint, endsAt time.Time) (bool, error) {
	tx := r.DB.Model(&models.Game{}).
		Where("id = ? AND state = ?", gameID, models.StateWaiting).
		Updates(map[string]any{"state": models.StateDeployment, "deployment_ends_at": endsAt})
	return tx.RowsAffected > 0, tx.Error
}

// AdvanceToInProgress moves DEPLOYMENT -> IN_PROGRESS.
func (r *GameRepository) AdvanceToInProgress(gameID uint, endsAt time.Time) (bool, error) {
	tx := r.DB.Model(&models.Game{}).
		Where("id = ? AND state = ?", gameID, models.StateDeployment).
		Updates(map[string]any{"state": models.StateInProgress, "game_ends_at": endsAt})
	return tx.RowsAffected > 0, tx.Error
}

// Finish moves IN_PROGRESS -> FINISHED.
func (r *GameRepository) Finish(gameID uint) (bool, error) {
	tx := r.DB.Model(&models.Game{}).
		Where("id = ? AND state = ?", gameID, models.StateInProgress).
		Update("state", models.StateFinished)
	return tx.RowsAffected > 0, tx.Error
}

// Delete removes the game together with its settings and players. Unscoped
// so the unique code column is actually freed; a soft-deleted game would make
// its code unusable forever.
func (r *GameRepository) Delete(gameID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("game_id = ?", gameID).Delete(&models.Player{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("game_id = ?", gameID).Delete(&models.GameSettings{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Game{}, gameID).Error
	})
}

// DueForInProgress lists DEPLOYMENT games whose deployment window elapsed.
func (r *GameRepository) DueForInProgress(now time.Time) ([]models.Game, error) {
	var games []models.Game
	err := r.DB.Preload("Settings").
		Where("state = ? AND deployment_ends_at <= ?", models.StateDeployment, now).
		Find(&games).Error
	return games, err
}

// DueForFinish lists IN_PROGRESS games whose play window elapsed.
func (r *GameRepository) DueForFinish(now time.Time) ([]models.Game, error) {
	var games []models.Game
	err := r.DB.Preload("Settings").
		Where("state = ? AND game_ends_at <= ?", models.StateInProgress, now).
		Find(&games).Error
	return games, err
}

// SaveSettings persists edited settings. The WAITING-only rule is enforced by
// the caller before writing.
func (r *GameRepository) SaveSettings(settings *models.GameSettings) error {
	return r.DB.Save(settings).Error
}
