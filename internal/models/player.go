package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerRole is the in-game role. Everyone starts HUMAN; SPIRIT is assigned
// when deployment ends, or later through conversion.
type PlayerRole string

const (
	RoleHuman  PlayerRole = "HUMAN"
	RoleSpirit PlayerRole = "SPIRIT"
)

// Player links a user to a game. A user appears at most once per game but may
// belong to many games concurrently. Exactly one player per non-empty game
// holds admin rights.
type Player struct {
	gorm.Model
	UserID      uint       `gorm:"not null;uniqueIndex:idx_player_user_game" json:"userId"`
	GameID      uint       `gorm:"not null;uniqueIndex:idx_player_user_game" json:"gameId"`
	IsAdmin     bool       `gorm:"not null;default:false" json:"isAdmin"`
	Role        PlayerRole `gorm:"size:10;not null;default:HUMAN" json:"role"`
	Score       int        `gorm:"not null;default:0" json:"score"`
	ConvertedAt *time.Time `json:"convertedAt,omitempty"`
	JoinedAt    time.Time  `gorm:"autoCreateTime;not null" json:"joinedAt"`

	User User `json:"user"`
}
