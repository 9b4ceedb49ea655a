package game_management

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bridgequest/internal/models"
)

func TestDeploymentAward(t *testing.T) {
	settings := models.DefaultSettings(1)
	assert.Equal(t, 50, DeploymentAward(&settings))

	settings.PointsPerMinute = 0
	assert.Equal(t, 0, DeploymentAward(&settings))
}

func TestApplyDeploymentScores(t *testing.T) {
	env := newTestEnv(t, 30*time.Second)
	game := env.seedGame("ABC123")
	alice := env.seedPlayer(game.ID, "alice", true)
	bob := env.seedPlayer(game.ID, "bob", false)

	// Pre-existing points must survive: the award is a delta, not a reset.
	err := env.db.Model(&models.Player{}).Where("id = ?", alice.ID).
		Update("score", 5).Error
	assert.NoError(t, err)

	stored, err := env.games.GetByID(game.ID)
	assert.NoError(t, err)
	assert.NoError(t, env.scores.ApplyDeploymentScores(stored))

	first, err := env.players.GetByID(alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, 55, first.Score)
	second, err := env.players.GetByID(bob.ID)
	assert.NoError(t, err)
	assert.Equal(t, 50, second.Score)
}

func TestApplyDeploymentScoresZeroAward(t *testing.T) {
	env := newTestEnv(t, 30*time.Second)
	game := env.seedGame("ABC123")
	alice := env.seedPlayer(game.ID, "alice", true)

	stored, err := env.games.GetByID(game.ID)
	assert.NoError(t, err)
	stored.Settings.PointsPerMinute = 0
	assert.NoError(t, env.scores.ApplyDeploymentScores(stored))

	player, err := env.players.GetByID(alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, player.Score)
}

func TestComputeFinalScores(t *testing.T) {
	env := newTestEnv(t, 30*time.Second)
	game := env.seedGame("ABC123")
	alice := env.seedPlayer(game.ID, "alice", true)
	bob := env.seedPlayer(game.ID, "bob", false)
	carol := env.seedPlayer(game.ID, "carol", false)

	endsAt := time.Now()
	err := env.db.Model(&models.Game{}).Where("id = ?", game.ID).
		Updates(map[string]any{"state": models.StateInProgress, "game_ends_at": endsAt}).Error
	assert.NoError(t, err)
	err = env.db.Model(&models.Player{}).Where("id = ?", bob.ID).
		Updates(map[string]any{"role": models.RoleSpirit, "score": 120}).Error
	assert.NoError(t, err)

	env.scores.now = func() time.Time { return endsAt }

	stored, err := env.games.GetByID(game.ID)
	assert.NoError(t, err)
	scoreboard, err := env.scores.ComputeFinalScores(stored)
	assert.NoError(t, err)

	// Humans survived the full 30 minutes at 10 points per minute; the
	// spirit keeps only its conversion points.
	byID := make(map[uint]int, len(scoreboard))
	for _, p := range scoreboard {
		byID[p.ID] = p.Score
	}
	assert.Equal(t, 300, byID[alice.ID])
	assert.Equal(t, 120, byID[bob.ID])
	assert.Equal(t, 300, byID[carol.ID])

	// Sorted by score descending, ties broken by player ID.
	assert.Equal(t, alice.ID, scoreboard[0].ID)
	assert.Equal(t, carol.ID, scoreboard[1].ID)
	assert.Equal(t, bob.ID, scoreboard[2].ID)
}

func TestComputeFinalScoresWithoutClock(t *testing.T) {
	env := newTestEnv(t, 30*time.Second)
	game := env.seedGame("ABC123")
	alice := env.seedPlayer(game.ID, "alice", true)
	env.seedPlayer(game.ID, "bob", false)

	err := env.db.Model(&models.Player{}).Where("id = ?", alice.ID).
		Update("score", 10).Error
	assert.NoError(t, err)

	stored, err := env.games.GetByID(game.ID)
	assert.NoError(t, err)
	scoreboard, err := env.scores.ComputeFinalScores(stored)
	assert.NoError(t, err)

	// No game clock means no passive award, just the sorted roster.
	assert.Equal(t, alice.ID, scoreboard[0].ID)
	assert.Equal(t, 10, scoreboard[0].Score)
	assert.Equal(t, 0, scoreboard[1].Score)
}
