package game_management

import (
	"math"
	"math/rand"

	"bridgequest/internal/models"
)

// SpiritCount computes how many players become spirits: round-half-up of the
// configured percentage, clamped so both roles always exist. Zero for
// degenerate rosters of fewer than two players.
func SpiritCount(n, spiritPercentage int) int {
	if n < 2 {
		return 0
	}
	count := int(math.Floor(float64(n)*float64(spiritPercentage)/100.0 + 0.5))
	if count < 1 {
		count = 1
	}
	if count > n-1 {
		count = n - 1
	}
	return count
}

// AssignRoles picks spirits uniformly at random without replacement and marks
// everyone else human. Pure: mutates and returns the given roster without
// persisting it.
func AssignRoles(players []models.Player, spiritPercentage int) []models.Player {
	n := len(players)
	count := SpiritCount(n, spiritPercentage)
	if count == 0 {
		return players
	}

	for i := range players {
		players[i].Role = models.RoleHuman
	}
	for _, idx := range rand.Perm(n)[:count] {
		players[idx].Role = models.RoleSpirit
	}
	return players
}
