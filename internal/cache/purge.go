package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultPurgeSchedule runs the expiry sweep once an hour
const DefaultPurgeSchedule = "@hourly"

// purgeTimeout bounds one sweep
const purgeTimeout = time.Minute

// Purger is a store that has to sweep expired entries itself. Redis expires
// keys natively and does not implement it.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeScheduler periodically sweeps expired entries from a store
type PurgeScheduler struct {
	cron   *cron.Cron
	target Purger
}

// NewPurgeScheduler schedules target's sweep on a standard cron spec or a
// descriptor such as @hourly; an empty spec selects DefaultPurgeSchedule
func NewPurgeScheduler(target Purger, spec string) (*PurgeScheduler, error) {
	if spec == "" {
		spec = DefaultPurgeSchedule
	}

	s := &PurgeScheduler{
		cron:   cron.New(),
		target: target,
	}

	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}

	return s, nil
}

// Start begins running the sweep in the background
func (s *PurgeScheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *PurgeScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *PurgeScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	removed, err := s.target.PurgeExpired(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cache purge failed")
		return
	}

	log.Debug().Int64("removed", removed).Msg("cache purge complete")
}
