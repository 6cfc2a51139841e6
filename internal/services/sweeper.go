package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper eventually deletes every expired story and its dependent rows.
// It runs on a fixed interval and can be kicked early by story change
// notifications. Cleanup is best effort: a row that fails to delete is
// skipped and retried on the next sweep.
type Sweeper struct {
	store    StoryStore
	interval time.Duration
	kick     chan struct{}
	now      func() time.Time
}

// NewSweeper creates a new cleanup sweeper
func NewSweeper(store StoryStore, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		kick:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Sweep deletes all currently expired stories and returns the number
// successfully removed. Per-row failures are logged and skipped; a failure
// to even list expired rows is logged and reported as zero cleaned. Safe
// to run concurrently: deleting an already-deleted story is a no-op.
func (s *Sweeper) Sweep(ctx context.Context) int {
	expired, err := s.store.ListExpired(ctx, s.now())
	if err != nil {
		log.Error().Err(err).Msg("Sweep failed to list expired stories")
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	deleted := 0
	for _, story := range expired {
		if err := s.store.DeleteCascade(ctx, story.ID); err != nil {
			log.Warn().Err(err).Str("story_id", story.ID).Msg("Failed to delete expired story, will retry next sweep")
			continue
		}
		deleted++
	}

	log.Info().Int("deleted", deleted).Int("expired", len(expired)).Msg("Story sweep finished")
	return deleted
}

// Kick requests an early sweep. Coalesces while one is already pending.
func (s *Sweeper) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run sweeps immediately, then on every interval tick or kick, until the
// context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Story sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.kick:
			s.Sweep(ctx)
		}
	}
}
