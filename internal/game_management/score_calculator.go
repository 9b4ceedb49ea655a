package game_management

import (
	"math"
	"sort"
	"time"

	"bridgequest/internal/models"
	"bridgequest/internal/repositories"
)

// ScoreCalculator applies passive, time-based score accrual. Conversion
// bonuses are credited in real time by the interaction subsystem and are
// already reflected in player.score by the time final scores run.
type ScoreCalculator struct {
	players *repositories.PlayerRepository
	now     func() time.Time
}

func NewScoreCalculator(players *repositories.PlayerRepository) *ScoreCalculator {
	return &ScoreCalculator{players: players, now: time.Now}
}

// DeploymentAward is the flat passive award banked by every player for the
// deployment phase.
func DeploymentAward(settings *models.GameSettings) int {
	return settings.DeploymentDuration * settings.PointsPerMinute
}

// ApplyDeploymentScores banks the deployment award into every current
// player's score. Runs once, at the DEPLOYMENT -> IN_PROGRESS transition,
// after roles are assigned: a player converted at the very start of the game
// still keeps the points earned while deploying.
func (s *ScoreCalculator) ApplyDeploymentScores(game *models.Game) error {
	award := DeploymentAward(&game.Settings)
	if award <= 0 {
		return nil
	}

	players, err := s.players.ListByGame(game.ID)
	if err != nil {
		return err
	}

	deltas := make(map[uint]int, len(players))
	for i := range players {
		deltas[players[i].ID] = award
	}
	return s.players.AddScores(deltas)
}

// ComputeFinalScores credits humans for the minutes survived in IN_PROGRESS
// and returns the roster sorted by score descending (ties by player ID).
// Spirits gain no passive points here; their score comes from conversions.
func (s *ScoreCalculator) ComputeFinalScores(game *models.Game) ([]models.Player, error) {
	players, err := s.players.ListByGame(game.ID)
	if err != nil {
		return nil, err
	}

	award := 0
	if game.GameEndsAt != nil {
		inProgressStart := game.GameEndsAt.Add(-time.Duration(game.Settings.GameDuration) * time.Minute)
		humanMinutes := s.now().Sub(inProgressStart).Minutes()
		award = int(math.Floor(humanMinutes*float64(game.Settings.PointsPerMinute) + 0.5))
	}

	if award > 0 {
		deltas := make(map[uint]int, len(players))
		for i := range players {
			if players[i].Role == models.RoleHuman {
				deltas[players[i].ID] = award
			}
		}
		if err := s.players.AddScores(deltas); err != nil {
			return nil, err
		}
		players, err = s.players.ListByGame(game.ID)
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].ID < players[j].ID
	})
	return players, nil
}
