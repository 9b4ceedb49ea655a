package game_management

import "bridgequest/internal/models"

// BuildPlayerPayload builds the minimal player representation embedded in
// broadcast events. Lobby events carry isAdmin; game events do not.
func BuildPlayerPayload(player *models.Player, includeAdmin bool) map[string]any {
	payload := map[string]any{
		"playerId": player.ID,
		"userId":   player.UserID,
		"username": player.User.Username,
	}
	if includeAdmin {
		payload["isAdmin"] = player.IsAdmin
	}
	return payload
}

// rosterPayload renders the full roster with roles for roles_assigned.
func rosterPayload(players []models.Player) []map[string]any {
	roster := make([]map[string]any, 0, len(players))
	for i := range players {
		p := BuildPlayerPayload(&players[i], false)
		p["role"] = players[i].Role
		roster = append(roster, p)
	}
	return roster
}

// scoreboardPayload renders the final, score-sorted roster for game_finished.
func scoreboardPayload(players []models.Player) []map[string]any {
	scores := make([]map[string]any, 0, len(players))
	for i := range players {
		p := BuildPlayerPayload(&players[i], false)
		p["role"] = players[i].Role
		p["score"] = players[i].Score
		scores = append(scores, p)
	}
	return scores
}
