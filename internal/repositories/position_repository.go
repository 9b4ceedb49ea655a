package repositories

import (
	"gorm.io/gorm"

	"bridgequest/internal/models"
)

type PositionRepository struct {
	DB *gorm.DB
}

func (r *PositionRepository) Create(position *models.Position) error {
	return r.DB.Create(position).Error
}

// LatestByGame returns the most recent sample per player of the game.
func (r *PositionRepository) LatestByGame(gameID uint) ([]models.Position, error) {
	var positions []models.Position
	sub := r.DB.Model(&models.Position{}).
		Select("MAX(id)").
		Where("game_id = ?", gameID).
		Group("player_id")
	err := r.DB.Where("id IN (?)", sub).Order("player_id ASC").Find(&positions).Error
	return positions, err
}
