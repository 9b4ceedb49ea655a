package game_management

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bridgequest/internal/broadcast"
	"bridgequest/internal/metrics"
	"bridgequest/internal/models"
	"bridgequest/internal/repositories"
)

// MinPlayersToStart guarantees at least one human and one spirit.
const MinPlayersToStart = 2

// LifecycleManager drives the one-directional phase machine
// WAITING -> DEPLOYMENT -> IN_PROGRESS -> FINISHED. Transitions for the same
// game are serialized with the lobby's membership mutations, and the state
// guard on the write makes a repeated attempt fail cleanly instead of
// double-applying effects.
type LifecycleManager struct {
	games   *repositories.GameRepository
	players *repositories.PlayerRepository
	scores  *ScoreCalculator
	gateway *broadcast.Gateway
	locks   *gameLocks
	log     *zap.Logger
	now     func() time.Time
}

func NewLifecycleManager(
	games *repositories.GameRepository,
	players *repositories.PlayerRepository,
	scores *ScoreCalculator,
	gateway *broadcast.Gateway,
	log *zap.Logger,
) *LifecycleManager {
	return &LifecycleManager{
		games:   games,
		players: players,
		scores:  scores,
		gateway: gateway,
		locks:   newGameLocks(),
		log:     log,
		now:     time.Now,
	}
}

// BeginDeployment starts the game: WAITING -> DEPLOYMENT. Triggered by the
// admin's start action, never by the sweeper. Requires at least two players.
func (m *LifecycleManager) BeginDeployment(ctx context.Context, gameID uint) (*models.Game, error) {
	lock := m.locks.Lock(gameID)
	defer lock.Unlock()

	game, err := m.games.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if game.State != models.StateWaiting {
		return nil, ErrGameAlreadyStarted
	}

	count, err := m.players.CountByGame(gameID)
	if err != nil {
		return nil, err
	}
	if count < MinPlayersToStart {
		return nil, ErrNotEnoughPlayers
	}

	endsAt := m.now().Add(time.Duration(game.Settings.DeploymentDuration) * time.Minute)
	ok, err := m.games.AdvanceToDeployment(gameID, endsAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGameAlreadyStarted
	}

	game.State = models.StateDeployment
	game.DeploymentEndsAt = &endsAt

	metrics.TransitionCompleted(string(models.StateDeployment))
	m.gateway.GameStarted(ctx, gameID, endsAt.UTC().Format(time.RFC3339))
	m.log.Info("game deployment started",
		zap.Uint("gameId", gameID),
		zap.Time("deploymentEndsAt", endsAt))
	return game, nil
}

// BeginInProgress moves DEPLOYMENT -> IN_PROGRESS: assigns roles, banks the
// deployment award, then starts the play clock. Role assignment and scoring
// run before the state advances, so a failure in either leaves the game in
// DEPLOYMENT with no broadcast fired.
func (m *LifecycleManager) BeginInProgress(ctx context.Context, gameID uint) (*models.Game, error) {
	lock := m.locks.Lock(gameID)
	defer lock.Unlock()

	game, err := m.games.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if game.State != models.StateDeployment {
		return nil, ErrGameNotInDeployment
	}

	roster, err := m.players.ListByGame(gameID)
	if err != nil {
		return nil, err
	}
	roster = AssignRoles(roster, game.Settings.SpiritPercentage)
	if err := m.players.UpdateRoles(roster); err != nil {
		return nil, err
	}

	// Deployment points are banked after roles are fixed and before the
	// IN_PROGRESS clock starts, so freshly converted spirits keep them.
	if err := m.scores.ApplyDeploymentScores(game); err != nil {
		return nil, err
	}

	endsAt := m.now().Add(time.Duration(game.Settings.GameDuration) * time.Minute)
	ok, err := m.games.AdvanceToInProgress(gameID, endsAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGameNotInDeployment
	}

	game.State = models.StateInProgress
	game.GameEndsAt = &endsAt

	metrics.TransitionCompleted(string(models.StateInProgress))
	m.gateway.RolesAssigned(ctx, gameID, rosterPayload(roster))
	m.gateway.GameInProgress(ctx, gameID, endsAt.UTC().Format(time.RFC3339))
	m.log.Info("game in progress",
		zap.Uint("gameId", gameID),
		zap.Int("players", len(roster)),
		zap.Time("gameEndsAt", endsAt))
	return game, nil
}

// Finish ends the game: IN_PROGRESS -> FINISHED, with final passive scores
// computed and the score-sorted roster broadcast.
func (m *LifecycleManager) Finish(ctx context.Context, gameID uint) (*models.Game, error) {
	lock := m.locks.Lock(gameID)
	defer lock.Unlock()

	game, err := m.games.GetByID(gameID)
	if err != nil {
		return nil, err
	}
	if game.State != models.StateInProgress {
		return nil, ErrGameNotInProgress
	}

	scoreboard, err := m.scores.ComputeFinalScores(game)
	if err != nil {
		return nil, err
	}

	ok, err := m.games.Finish(gameID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGameNotInProgress
	}

	game.State = models.StateFinished

	metrics.TransitionCompleted(string(models.StateFinished))
	m.gateway.GameFinished(ctx, gameID, scoreboardPayload(scoreboard))
	m.log.Info("game finished", zap.Uint("gameId", gameID))
	return game, nil
}
