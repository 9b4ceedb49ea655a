package models

import (
	"time"

	"gorm.io/gorm"
)

// Position is an append-only GPS sample for a player. Only the most recent
// sample per player matters for the live map.
type Position struct {
	gorm.Model
	PlayerID   uint      `gorm:"not null;index" json:"playerId"`
	GameID     uint      `gorm:"not null;index" json:"gameId"`
	Latitude   float64   `gorm:"not null" json:"latitude"`
	Longitude  float64   `gorm:"not null" json:"longitude"`
	RecordedAt time.Time `gorm:"not null" json:"recordedAt"`
}
