package service

import (
	"context"
	"log"
	"time"

	"pairdesk/internal/repository"
)

// Sweeper periodically deletes rooms whose documents have not been touched
// within the retention window.
type Sweeper struct {
	repo      repository.RoomRepository
	interval  time.Duration
	retention time.Duration
}

// NewSweeper creates a sweeper that runs every interval and deletes rooms
// inactive for longer than retention.
func NewSweeper(repo repository.RoomRepository, interval, retention time.Duration) *Sweeper {
	return &Sweeper{
		repo:      repo,
		interval:  interval,
		retention: retention,
	}
}

// Run blocks until the context is cancelled, sweeping once per interval.
// A failed sweep is logged and not retried before the next tick; the next
// tick re-evaluates the same cutoff, so missed sweeps self-heal.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("sweeper started (interval: %v, retention: %v)", s.interval, s.retention)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepNow(ctx)
		}
	}
}

// SweepNow runs a single sweep immediately.
func (s *Sweeper) SweepNow(ctx context.Context) {
	n, err := s.repo.SweepExpired(ctx, s.retention)
	if err != nil {
		log.Printf("sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("swept %d expired rooms", n)
	}
}
