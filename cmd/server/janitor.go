package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-feedback-service/internal/repo"
)

// runJanitor purges expired idempotency records every interval until ctx is
// cancelled.
func runJanitor(ctx context.Context, db *gorm.DB, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			purgeOnce(ctx, db, now.UTC())
		}
	}
}

func purgeOnce(ctx context.Context, db *gorm.DB, now time.Time) int64 {
	n, err := repo.PurgeExpiredIdempotency(ctx, db, now)
	if err != nil {
		log.Warn().Err(err).Msg("idempotency purge failed")
		return 0
	}
	if n > 0 {
		log.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
	}
	return n
}
