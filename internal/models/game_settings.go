package models

import "gorm.io/gorm"

// Default settings applied on game creation.
const (
	DefaultGameDuration               = 30
	DefaultDeploymentDuration         = 5
	DefaultSpiritPercentage           = 20
	DefaultPointsPerMinute            = 10
	DefaultConversionPointsPercentage = 50
)

// GameSettings holds the per-game configuration, editable by the admin while
// the game is WAITING and locked once deployment starts. Durations are in
// minutes, percentages in [0,100].
type GameSettings struct {
	gorm.Model
	GameID                     uint `gorm:"uniqueIndex;not null" json:"-"`
	GameDuration               int  `gorm:"not null" json:"gameDuration"`
	DeploymentDuration         int  `gorm:"not null" json:"deploymentDuration"`
	SpiritPercentage           int  `gorm:"not null" json:"spiritPercentage"`
	PointsPerMinute            int  `gorm:"not null" json:"pointsPerMinute"`
	ConversionPointsPercentage int  `gorm:"not null" json:"conversionPointsPercentage"`
}

// DefaultSettings returns the settings row created alongside a new game.
func DefaultSettings(gameID uint) GameSettings {
	return GameSettings{
		GameID:                     gameID,
		GameDuration:               DefaultGameDuration,
		DeploymentDuration:         DefaultDeploymentDuration,
		SpiritPercentage:           DefaultSpiritPercentage,
		PointsPerMinute:            DefaultPointsPerMinute,
		ConversionPointsPercentage: DefaultConversionPointsPercentage,
	}
}
