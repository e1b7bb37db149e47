// Package sweep removes expired cache entries in the background.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/proofread/internal/core/kv"
)

// Start periodically sweeps expired entries from store.
// It blocks until the context is cancelled.
func Start(ctx context.Context, store kv.Sweeper, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.SweepExpired(ctx)
			if err != nil {
				log.Debug().Err(err).Msg("kv sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("kv sweep")
			}
		}
	}
}
