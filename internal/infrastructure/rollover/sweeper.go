// Package rollover replaces stale daily quest batches in the background so
// players who do not open the app still start each day with a fresh batch.
package rollover

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultInterval = 15 * time.Minute

// Roller is the part of ports.QuestService the sweeper drives.
type Roller interface {
	Rollover(ctx context.Context, now time.Time) (int, error)
}

// Sweeper calls Rollover once at start and then on every tick.
type Sweeper struct {
	roller   Roller
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	wg sync.WaitGroup
}

// NewSweeper returns a Sweeper. If interval <= 0, defaultInterval is used.
func NewSweeper(roller Roller, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{
		roller:   roller,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("component", "rollover").Logger(),
	}
}

// Start launches the sweep loop. It stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Wait blocks until the loop started by Start has returned.
func (s *Sweeper) Wait() {
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	rolled, err := s.roller.Rollover(ctx, s.now())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error().Err(err).Msg("daily rollover failed")
		return
	}
	s.log.Debug().Int("profiles", rolled).Msg("rollover sweep finished")
}
