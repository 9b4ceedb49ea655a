package broadcast

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bridgequest/internal/models"
	"bridgequest/internal/session"
)

// Relay subscribes to every lobby and game channel and forwards incoming
// events to this instance's locally connected clients.
type Relay struct {
	rdb *redis.Client
	hub *session.Hub
	log *zap.Logger
}

func NewRelay(rdb *redis.Client, hub *session.Hub, log *zap.Logger) *Relay {
	return &Relay{rdb: rdb, hub: hub, log: log}
}

// Run blocks until ctx is cancelled, dispatching published events to the hub.
func (r *Relay) Run(ctx context.Context) {
	subscriber := r.rdb.PSubscribe(ctx, "lobby:*", "game:*")
	defer subscriber.Close()

	ch := subscriber.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event models.GameEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Warn("relay: bad event payload",
					zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			r.hub.Dispatch(msg.Channel, event)
		}
	}
}
