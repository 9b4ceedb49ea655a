package game_management

import "errors"

// Business-rule violations surfaced to the HTTP/WebSocket layer. Checks
// always precede writes; none of these leaves a partially applied mutation.
var (
	ErrGameAlreadyStarted  = errors.New("game already started")
	ErrGameNotInDeployment = errors.New("game is not in deployment")
	ErrGameNotInProgress   = errors.New("game is not in progress")
	ErrNotEnoughPlayers    = errors.New("not enough players to start")
	ErrPlayerNotInGame     = errors.New("player is not in this game")
	ErrPlayerAlreadyInGame = errors.New("player is already in this game")
	ErrNotAdmin            = errors.New("player is not the game admin")
	ErrInvalidGameCode     = errors.New("invalid game code")
	ErrInvalidSettings     = errors.New("invalid game settings")
)
