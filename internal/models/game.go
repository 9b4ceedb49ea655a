package models

import (
	"time"

	"gorm.io/gorm"
)

// GameState is the lifecycle phase of a game. States only ever advance
// forward: WAITING -> DEPLOYMENT -> IN_PROGRESS -> FINISHED.
type GameState string

const (
	StateWaiting    GameState = "WAITING"
	StateDeployment GameState = "DEPLOYMENT"
	StateInProgress GameState = "IN_PROGRESS"
	StateFinished   GameState = "FINISHED"
)

// Game represents one play-through instance with its own lobby, players and
// phase clock. Joinable by its 6-character code while WAITING.
type Game struct {
	gorm.Model
	Code             string     `gorm:"size:6;unique;not null" json:"code"`
	State            GameState  `gorm:"size:20;not null;default:WAITING" json:"state"`
	DeploymentEndsAt *time.Time `json:"deploymentEndsAt,omitempty"`
	GameEndsAt       *time.Time `json:"gameEndsAt,omitempty"`

	Settings GameSettings `json:"settings"`
	Players  []Player     `json:"players,omitempty"`
}
