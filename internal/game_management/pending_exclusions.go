package game_management

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingExclusionPrefix = "lobby_pending_exclusion"

// markerTTLBuffer keeps the key alive slightly past the grace period so the
// timer callback can still observe it even when firing late.
const markerTTLBuffer = 10 * time.Second

// PendingExclusions tracks disconnect markers in Redis. A marker is a pure
// liveness signal, not game state: its absence at exclusion time means the
// player reconnected (or the timer already fired) and nothing must happen.
type PendingExclusions struct {
	rdb   *redis.Client
	grace time.Duration
}

func NewPendingExclusions(rdb *redis.Client, grace time.Duration) *PendingExclusions {
	return &PendingExclusions{rdb: rdb, grace: grace}
}

func (p *PendingExclusions) key(gameID, playerID uint) string {
	return fmt.Sprintf("%s:%d:%d", pendingExclusionPrefix, gameID, playerID)
}

// Grace is the disconnect window before exclusion.
func (p *PendingExclusions) Grace() time.Duration { return p.grace }

// Mark records the disconnect, starting the exclusion countdown.
func (p *PendingExclusions) Mark(ctx context.Context, gameID, playerID uint) error {
	value := time.Now().UTC().Format(time.RFC3339)
	return p.rdb.Set(ctx, p.key(gameID, playerID), value, p.grace+markerTTLBuffer).Err()
}

// Cancel drops the marker, voiding the countdown. Called on reconnect.
func (p *PendingExclusions) Cancel(ctx context.Context, gameID, playerID uint) error {
	return p.rdb.Del(ctx, p.key(gameID, playerID)).Err()
}

// Consume atomically removes the marker and reports whether it still existed.
// GETDEL makes the reconnect/timeout race single-winner: exactly one of
// Cancel and Consume observes the marker.
func (p *PendingExclusions) Consume(ctx context.Context, gameID, playerID uint) (bool, error) {
	err := p.rdb.GetDel(ctx, p.key(gameID, playerID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
