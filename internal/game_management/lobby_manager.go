package game_management

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"bridgequest/internal/broadcast"
	"bridgequest/internal/models"
	"bridgequest/internal/repositories"
)

// LobbyManager owns WAITING-phase membership: joins, leaves, the disconnect
// grace window and its consequences (admin transfer, game teardown). All
// mutations for one game run under that game's lock, shared with the
// lifecycle manager.
type LobbyManager struct {
	games     *repositories.GameRepository
	players   *repositories.PlayerRepository
	pending   *PendingExclusions
	gateway   *broadcast.Gateway
	lifecycle *LifecycleManager
	log       *zap.Logger
}

func NewLobbyManager(
	games *repositories.GameRepository,
	players *repositories.PlayerRepository,
	pending *PendingExclusions,
	gateway *broadcast.Gateway,
	lifecycle *LifecycleManager,
	log *zap.Logger,
) *LobbyManager {
	return &LobbyManager{
		games:     games,
		players:   players,
		pending:   pending,
		gateway:   gateway,
		lifecycle: lifecycle,
		log:       log,
	}
}

// Join adds a user to a WAITING game looked up by code and broadcasts
// player_joined to the lobby.
func (m *LobbyManager) Join(ctx context.Context, code string, userID uint) (*models.Player, *models.Game, error) {
	normalized := NormalizeGameCode(code)
	if normalized == "" {
		return nil, nil, ErrInvalidGameCode
	}
	game, err := m.games.GetByCode(normalized)
	if err != nil {
		return nil, nil, err
	}

	lock := m.lifecycle.locks.Lock(game.ID)
	defer lock.Unlock()

	// Re-read under the lock: the game may have started or been torn down
	// while we were looking it up.
	game, err = m.games.GetByID(game.ID)
	if err != nil {
		return nil, nil, err
	}
	if game.State != models.StateWaiting {
		return nil, nil, ErrGameAlreadyStarted
	}

	exists, err := m.players.ExistsInGame(userID, game.ID)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrPlayerAlreadyInGame
	}

	player := &models.Player{
		UserID: userID,
		GameID: game.ID,
		Role:   models.RoleHuman,
	}
	if err := m.players.Create(player); err != nil {
		return nil, nil, err
	}

	m.gateway.PlayerJoined(ctx, game.ID, BuildPlayerPayload(player, true))
	m.log.Info("player joined lobby",
		zap.Uint("gameId", game.ID),
		zap.Uint("playerId", player.ID))
	return player, game, nil
}

// ConnectToLobby voids any pending exclusion for a (re)connecting player.
// player_joined is not re-sent here; it fires on Join only.
func (m *LobbyManager) ConnectToLobby(ctx context.Context, gameID, playerID uint) error {
	return m.pending.Cancel(ctx, gameID, playerID)
}

// MarkDisconnected records a dropped connection and schedules the exclusion
// check once the grace period elapses. Neither the player nor the game is
// mutated yet.
func (m *LobbyManager) MarkDisconnected(ctx context.Context, gameID, playerID uint) error {
	if err := m.pending.Mark(ctx, gameID, playerID); err != nil {
		return err
	}
	time.AfterFunc(m.pending.Grace(), func() {
		if err := m.ExcludeAfterTimeout(context.Background(), gameID, playerID); err != nil {
			// Leniency over wrongful removal: leave the player in place and
			// let a later reconnect or admin action sort it out.
			m.log.Error("grace-timer exclusion failed",
				zap.Uint("gameId", gameID),
				zap.Uint("playerId", playerID),
				zap.Error(err))
		}
	})
	m.log.Debug("player marked disconnected",
		zap.Uint("gameId", gameID),
		zap.Uint("playerId", playerID))
	return nil
}

// CancelPendingExclusion drops the disconnect marker (reconnect won).
func (m *LobbyManager) CancelPendingExclusion(ctx context.Context, gameID, playerID uint) error {
	return m.pending.Cancel(ctx, gameID, playerID)
}

// ExcludeAfterTimeout removes the player if their disconnect marker is still
// unconsumed. The atomic consume makes the reconnect/timeout race
// single-winner: either this call observes the marker and excludes, or the
// reconnect already cancelled it and this is a no-op.
func (m *LobbyManager) ExcludeAfterTimeout(ctx context.Context, gameID, playerID uint) error {
	existed, err := m.pending.Consume(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	if !existed {
		return nil
	}
	err = m.exclude(ctx, gameID, playerID, models.EventPlayerExcluded)
	if errors.Is(err, ErrGameAlreadyStarted) {
		// The grace timer outlived the lobby phase; nothing to exclude.
		return nil
	}
	return err
}

// ExcludeImmediately removes the player without a grace period.
func (m *LobbyManager) ExcludeImmediately(ctx context.Context, gameID, playerID uint) error {
	_ = m.pending.Cancel(ctx, gameID, playerID)
	err := m.exclude(ctx, gameID, playerID, models.EventPlayerExcluded)
	if errors.Is(err, ErrGameAlreadyStarted) {
		return nil
	}
	return err
}

// VoluntaryLeave handles an explicit "leave" signal: immediate removal, no
// grace period, announced as player_left rather than an exclusion. Unlike the
// timer-driven paths it reports ErrGameAlreadyStarted past the lobby phase,
// so callers never acknowledge a leave that did not happen.
func (m *LobbyManager) VoluntaryLeave(ctx context.Context, gameID, playerID uint) error {
	_ = m.pending.Cancel(ctx, gameID, playerID)
	return m.exclude(ctx, gameID, playerID, models.EventPlayerLeft)
}

// exclude is the shared removal path. Re-validates everything under the game
// lock; a player already gone makes it a no-op, a game that moved past
// WAITING reports ErrGameAlreadyStarted.
func (m *LobbyManager) exclude(ctx context.Context, gameID, playerID uint, eventType string) error {
	lock := m.lifecycle.locks.Lock(gameID)
	defer lock.Unlock()

	game, err := m.games.GetByID(gameID)
	if errors.Is(err, repositories.ErrGameNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if game.State != models.StateWaiting {
		return ErrGameAlreadyStarted
	}

	player, err := m.players.GetByID(playerID)
	if errors.Is(err, repositories.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if player.GameID != gameID {
		return nil
	}

	wasAdmin := player.IsAdmin
	payload := BuildPlayerPayload(player, true)

	deleted, err := m.players.Delete(playerID)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}

	switch eventType {
	case models.EventPlayerLeft:
		m.gateway.PlayerLeft(ctx, gameID, payload)
	default:
		m.gateway.PlayerExcluded(ctx, gameID, payload)
	}
	m.log.Info("player removed from lobby",
		zap.Uint("gameId", gameID),
		zap.Uint("playerId", playerID),
		zap.String("event", eventType),
		zap.Bool("wasAdmin", wasAdmin))

	if wasAdmin {
		return m.transferAdmin(ctx, gameID)
	}
	return nil
}

// transferAdmin promotes the earliest-joined remaining player, or tears the
// game down when the lobby is empty.
func (m *LobbyManager) transferAdmin(ctx context.Context, gameID uint) error {
	next, err := m.players.OldestInGame(gameID)
	if errors.Is(err, repositories.ErrPlayerNotFound) {
		if err := m.games.Delete(gameID); err != nil {
			return err
		}
		m.gateway.GameDeleted(ctx, gameID)
		m.lifecycle.locks.Forget(gameID)
		m.log.Info("empty game deleted", zap.Uint("gameId", gameID))
		return nil
	}
	if err != nil {
		return err
	}

	if err := m.players.SetAdmin(next.ID); err != nil {
		return err
	}
	next.IsAdmin = true
	m.gateway.AdminTransferred(ctx, gameID, BuildPlayerPayload(next, true))
	m.log.Info("admin transferred",
		zap.Uint("gameId", gameID),
		zap.Uint("newAdminId", next.ID))
	return nil
}
