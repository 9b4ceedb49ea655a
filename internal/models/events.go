package models

// Event types pushed to the lobby channel (WAITING phase).
const (
	EventPlayerJoined     = "player_joined"
	EventPlayerLeft       = "player_left"
	EventPlayerExcluded   = "player_excluded"
	EventAdminTransferred = "admin_transferred"
	EventGameDeleted      = "game_deleted"
	EventGameStarted      = "game_started"
)

// Event types pushed to the game channel (DEPLOYMENT / IN_PROGRESS phases).
const (
	EventRolesAssigned   = "roles_assigned"
	EventGameInProgress  = "game_in_progress"
	EventPositionUpdated = "position_updated"
	EventGameFinished    = "game_finished"
)

// GameEvent is the frame published to a game's Redis channel and forwarded
// verbatim to every WebSocket subscriber of that channel.
type GameEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}
