package game_management

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bridgequest/internal/repositories"
)

// Sweeper polls for games whose phase timer elapsed and drives the automatic
// transitions DEPLOYMENT -> IN_PROGRESS and IN_PROGRESS -> FINISHED.
// BeginDeployment is admin-triggered and never swept. A failing game is
// logged and skipped so it cannot stall the rest of the tick.
type Sweeper struct {
	games     *repositories.GameRepository
	lifecycle *LifecycleManager
	interval  time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewSweeper(
	games *repositories.GameRepository,
	lifecycle *LifecycleManager,
	interval time.Duration,
	log *zap.Logger,
) *Sweeper {
	return &Sweeper{
		games:     games,
		lifecycle: lifecycle,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}
}

// Run blocks, sweeping once per interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("lifecycle sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("lifecycle sweeper stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick processes every due game once.
func (s *Sweeper) Tick(ctx context.Context) {
	now := s.now()

	due, err := s.games.DueForInProgress(now)
	if err != nil {
		s.log.Error("sweep: query due deployments", zap.Error(err))
	} else {
		for i := range due {
			if _, err := s.lifecycle.BeginInProgress(ctx, due[i].ID); err != nil {
				s.log.Error("sweep: begin in progress",
					zap.Uint("gameId", due[i].ID), zap.Error(err))
			}
		}
	}

	due, err = s.games.DueForFinish(now)
	if err != nil {
		s.log.Error("sweep: query due finishes", zap.Error(err))
		return
	}
	for i := range due {
		if _, err := s.lifecycle.Finish(ctx, due[i].ID); err != nil {
			s.log.Error("sweep: finish game",
				zap.Uint("gameId", due[i].ID), zap.Error(err))
		}
	}
}
