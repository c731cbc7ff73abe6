package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// BidExpirer is the part of the bid engine the sweeper drives.
type BidExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// ExpirySweeper runs the bid expiry sweep on a fixed interval.
type ExpirySweeper struct {
	bids     BidExpirer
	interval time.Duration
	log      zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExpirySweeper creates a sweeper. A non-positive interval disables it.
func NewExpirySweeper(bids BidExpirer, interval time.Duration, log zerolog.Logger) *ExpirySweeper {
	return &ExpirySweeper{bids: bids, interval: interval, log: log}
}

// Start launches the background loop. It returns immediately.
func (s *ExpirySweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("bid expiry sweeper disabled")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)

	s.log.Info().Dur("interval", s.interval).Msg("bid expiry sweeper started")
}

// Stop cancels the loop and waits for an in-flight sweep, bounded by ctx.
func (s *ExpirySweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info().Msg("bid expiry sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ExpirySweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	n, err := s.bids.ExpireOverdue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("bid expiry sweep failed")
		}
		return
	}
	if n > 0 {
		s.log.Debug().Int64("expired", n).Msg("bid expiry sweep")
	}
}
