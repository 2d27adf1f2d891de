package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=sweeper.go -destination=mocks/mock.go

type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically reconciles vehicle status with reservations whose end
// date has passed. Each tick is idempotent, so overlapping runs are harmless.
type Sweeper struct {
	svc      ExpirySweeper
	interval time.Duration
	log      *zap.Logger
}

func New(svc ExpirySweeper, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		log:      log.Named("sweeper"),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	released, err := s.svc.SweepExpired(ctx)
	if err != nil {
		s.log.Error("sweep expired", zap.Error(err))
		return
	}
	if released > 0 {
		s.log.Info("vehicles released", zap.Int64("count", released))
	}
}
