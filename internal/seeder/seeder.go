// Package seeder loads a small set of demo feedback records so a fresh
// instance has something to list, filter and search.
package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-feedback-service/internal/domain"
	"github.com/tbourn/go-feedback-service/internal/repo"
)

// Demo returns the sample records, stamped with now. One per workflow stage.
func Demo(now time.Time) []domain.Feedback {
	str := func(s string) *string { return &s }
	rows := []domain.Feedback{
		{
			Title:    "Layout improvement",
			Content:  "The settings page would be easier to use with grouped sections.",
			Type:     "feature",
			Email:    str("user1@example.com"),
			UserName: str("alice"),
			Status:   string(domain.StatusPending),
			Priority: string(domain.PriorityMedium),
		},
		{
			Title:    "Login button unresponsive",
			Content:  "Sometimes the login button does nothing until the page is refreshed.",
			Type:     "bug",
			Email:    str("user2@example.com"),
			UserName: str("bob"),
			Status:   string(domain.StatusInProgress),
			Priority: string(domain.PriorityHigh),
		},
		{
			Title:    "Slow page loads",
			Content:  "Pages take several seconds to load; query caching could help.",
			Type:     "performance",
			Email:    str("user3@example.com"),
			UserName: str("carol"),
			Status:   string(domain.StatusResolved),
			Priority: string(domain.PriorityLow),
		},
	}
	for i := range rows {
		rows[i].CreatedAt = now
		rows[i].UpdatedAt = now
	}
	return rows
}

// Seed inserts the demo records when the feedback table is empty and returns
// how many rows it wrote. A non-empty table is left untouched, so restarts
// never duplicate the sample data.
func Seed(ctx context.Context, db *gorm.DB, now time.Time) (int, error) {
	n, err := repo.CountFeedback(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	if n > 0 {
		log.Debug().Int64("rows", n).Msg("seed skipped: feedback table not empty")
		return 0, nil
	}

	rows := Demo(now)
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := repo.CreateFeedback(ctx, tx, &rows[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed feedback: %w", err)
	}
	log.Info().Int("rows", len(rows)).Msg("demo feedback seeded")
	return len(rows), nil
}
