// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate/statistics queries: grouped
// counts for the stats endpoint and small metadata lookups used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-feedback-service/internal/domain"
)

// groupCount is the scan target for GROUP BY queries.
type groupCount struct {
	Label string
	Total int64
}

// CountFeedback returns the total number of feedback rows.
func CountFeedback(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Feedback{}).Count(&total).Error
	return total, err
}

// CountFeedbackByStatus groups all rows by status and returns label → count.
// The map is empty (not nil) when the table is empty.
func CountFeedbackByStatus(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	return countGrouped(ctx, db, "status")
}

// CountFeedbackByType groups all rows by type and returns label → count.
func CountFeedbackByType(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	return countGrouped(ctx, db, "type")
}

// countGrouped runs SELECT col, COUNT(*) ... GROUP BY col. col is a fixed
// column name supplied by this package, never user input.
func countGrouped(ctx context.Context, db *gorm.DB, col string) (map[string]int64, error) {
	var rows []groupCount
	err := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Select(col + " AS label, COUNT(*) AS total").
		Group(col).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Label] += r.Total
	}
	return out, nil
}

// FeedbackStats returns aggregate metadata for the feedback table: the total
// number of rows and the maximum UpdatedAt timestamp among those rows.
//
// It executes two lightweight queries. When the table is empty, the returned
// count is 0 and maxUpdatedAt is nil.
//
// Return values:
//   - count:        total feedback rows
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func FeedbackStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Feedback{})

	// Count
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
