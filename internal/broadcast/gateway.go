package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bridgequest/internal/models"
)

// LobbyChannel is the broadcast channel for a game's WAITING phase.
func LobbyChannel(gameID uint) string { return fmt.Sprintf("lobby:%d", gameID) }

// GameChannel is the broadcast channel for DEPLOYMENT and IN_PROGRESS.
func GameChannel(gameID uint) string { return fmt.Sprintf("game:%d", gameID) }

// Gateway fans game events out to every subscriber of a channel. Events go
// through Redis pub/sub so that clients connected to other instances receive
// them too; each instance's Relay forwards them to its local hub.
type Gateway struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewGateway(rdb *redis.Client, log *zap.Logger) *Gateway {
	return &Gateway{rdb: rdb, log: log}
}

func (g *Gateway) publish(ctx context.Context, channel string, event models.GameEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		g.log.Error("marshal event", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := g.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		g.log.Error("publish event",
			zap.String("channel", channel),
			zap.String("type", event.Type),
			zap.Error(err))
	}
}

// --- Lobby channel events ---

func (g *Gateway) PlayerJoined(ctx context.Context, gameID uint, player map[string]any) {
	g.publish(ctx, LobbyChannel(gameID), models.GameEvent{
		Type: models.EventPlayerJoined,
		Data: map[string]any{"player": player},
	})
}

func (g *Gateway) PlayerLeft(ctx context.Context, gameID uint, player map[string]any) {
	g.publish(ctx, LobbyChannel(gameID), models.GameEvent{
		Type: models.EventPlayerLeft,
		Data: map[string]any{"player": player},
	})
}

func (g *Gateway) PlayerExcluded(ctx context.Context, gameID uint, player map[string]any) {
	g.publish(ctx, LobbyChannel(gameID), models.GameEvent{
		Type: models.EventPlayerExcluded,
		Data: map[string]any{"player": player},
	})
}

func (g *Gateway) AdminTransferred(ctx context.Context, gameID uint, newAdmin map[string]any) {
	g.publish(ctx, LobbyChannel(gameID), models.GameEvent{
		Type: models.EventAdminTransferred,
		Data: map[string]any{"newAdmin": newAdmin},
	})
}

func (g *Gateway) GameDeleted(ctx context.Context, gameID uint) {
	g.publish(ctx, LobbyChannel(gameID), models.GameEvent{
		Type: models.EventGameDeleted,
		Data: map[string]any{"gameId": gameID},
	})
}

func (g *Gateway) GameStarted(ctx context.Context, gameID uint, deploymentEndsAt string) {
	g.publish(ctx, LobbyChannel(gameID), models.GameEvent{
		Type: models.EventGameStarted,
		Data: map[string]any{
			"gameId":           gameID,
			"deploymentEndsAt": deploymentEndsAt,
		},
	})
}

// --- Game channel events ---

func (g *Gateway) RolesAssigned(ctx context.Context, gameID uint, players []map[string]any) {
	g.publish(ctx, GameChannel(gameID), models.GameEvent{
		Type: models.EventRolesAssigned,
		Data: map[string]any{"players": players},
	})
}

func (g *Gateway) GameInProgress(ctx context.Context, gameID uint, gameEndsAt string) {
	g.publish(ctx, GameChannel(gameID), models.GameEvent{
		Type: models.EventGameInProgress,
		Data: map[string]any{
			"gameId":     gameID,
			"gameEndsAt": gameEndsAt,
		},
	})
}

func (g *Gateway) PositionUpdated(ctx context.Context, gameID uint, position map[string]any) {
	g.publish(ctx, GameChannel(gameID), models.GameEvent{
		Type: models.EventPositionUpdated,
		Data: position,
	})
}

func (g *Gateway) GameFinished(ctx context.Context, gameID uint, scores []map[string]any) {
	g.publish(ctx, GameChannel(gameID), models.GameEvent{
		Type: models.EventGameFinished,
		Data: map[string]any{
			"gameId": gameID,
			"scores": scores,
		},
	})
}
