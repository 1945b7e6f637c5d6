package session

import (
	"context"
	"time"

	"users-server/logger"
)

// Sweeper periodically drops expired sessions from a Store.
type Sweeper struct {
	store    Store
	interval time.Duration
}

func NewSweeper(store Store, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval}
}

// Start runs until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepOnce(ctx)
			}
		}
	}()
}

func (s *Sweeper) SweepOnce(ctx context.Context) int {
	removed, err := s.store.Sweep(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Session sweep failed")
		return 0
	}
	if removed > 0 {
		logger.Debug().Int("removed", removed).Msg("Swept expired sessions")
	}
	return removed
}
