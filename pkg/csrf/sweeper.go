package csrf

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper periodically evicts expired tokens to bound memory. Expiry is also
// enforced at validation time, so stopping it never affects correctness.
type Sweeper struct {
	cron *cron.Cron
	log  *zap.Logger
}

// StartSweeper schedules store.Sweep on spec (e.g. "@every 1m").
func StartSweeper(store *Store, spec string, log *zap.Logger) (*Sweeper, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { store.Sweep() }); err != nil {
		return nil, err
	}
	c.Start()

	log.Info("CSRF sweeper started", zap.String("schedule", spec))
	return &Sweeper{cron: c, log: log}, nil
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("CSRF sweeper stop timed out")
	}
}
