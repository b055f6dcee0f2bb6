// Package maintenance runs periodic housekeeping jobs.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSpec runs the janitor at ten past every hour.
const DefaultSpec = "10 * * * *"

// Purger deletes refresh tokens that expired or were revoked before cutoff.
type Purger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor purges dead refresh tokens once they are older than Retention.
type Janitor struct {
	Tokens    Purger
	Clock     clockwork.Clock
	Retention time.Duration
	Timeout   time.Duration
}

// Run performs one purge.
func (j *Janitor) Run(ctx context.Context) (int64, error) {
	clock := j.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cutoff := clock.Now().UTC().Add(-j.Retention)
	n, err := j.Tokens.PurgeExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return n, nil
}

// Start schedules the janitor on a new cron runner and starts it. Stop the
// returned runner on shutdown.
func Start(ctx context.Context, j *Janitor, spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() {
		n, err := j.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("janitor: run failed")
			return
		}
		log.Info().Int64("purged", n).Msg("janitor: refresh tokens purged")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule janitor %q: %w", spec, err)
	}
	c.Start()
	log.Info().Str("spec", spec).Msg("janitor scheduled")
	return c, nil
}
