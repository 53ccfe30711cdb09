// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback
// model.
//
// Every access pattern has its own explicit function with a fixed
// filter/order/pagination contract; there is no name-derived query magic.
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - When a feedback row is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateFeedback(ctx, db, fb) -> error
//     Inserts a row; the store assigns fb.ID.
//
//   - UpdateFeedback(ctx, db, fb) -> error
//     Overwrites every mutable column of row fb.ID, or ErrNotFound.
//
//   - GetFeedback(ctx, db, id) -> *domain.Feedback, error
//
//   - FeedbackExists(ctx, db, id) -> bool, error
//
//   - DeleteFeedback(ctx, db, id) -> error
//     Hard delete, or ErrNotFound.
//
//   - ListFeedback(ctx, db, filter, offset, limit) -> []domain.Feedback, int64, error
//     One page of rows matching filter ordered by id ascending, plus the
//     total number of matching rows.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-feedback-service/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// Filter narrows ListFeedback. Empty fields are ignored; set fields are
// combined with AND.
//
//   - Status, Type, Priority, Email: exact, case-sensitive match.
//   - Keyword: title LIKE '%kw%' OR content LIKE '%kw%'. '%' and '_' inside
//     the keyword are not escaped and act as SQL wildcards.
//
// An empty Keyword adds no clause, which selects the same rows as LIKE '%%'.
type Filter struct {
	Status   string
	Type     string
	Priority string
	Email    string
	Keyword  string
}

// CreateFeedback inserts fb. On success fb.ID holds the store-assigned id.
func CreateFeedback(ctx context.Context, db *gorm.DB, fb *domain.Feedback) error {
	return db.WithContext(ctx).Create(fb).Error
}

// UpdateFeedback writes all mutable columns of fb (everything except id and
// created_at) to the row identified by fb.ID. Zero values are written too,
// so callers pass the fully merged record. If no row matched, it returns
// ErrNotFound.
func UpdateFeedback(ctx context.Context, db *gorm.DB, fb *domain.Feedback) error {
	res := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("id = ?", fb.ID).
		Select("title", "content", "type", "email", "user_name", "status", "priority", "updated_at").
		Updates(map[string]any{
			"title":      fb.Title,
			"content":    fb.Content,
			"type":       fb.Type,
			"email":      fb.Email,
			"user_name":  fb.UserName,
			"status":     fb.Status,
			"priority":   fb.Priority,
			"updated_at": fb.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetFeedback fetches a single row by id, or ErrNotFound.
func GetFeedback(ctx context.Context, db *gorm.DB, id uint64) (*domain.Feedback, error) {
	var fb domain.Feedback
	if err := db.WithContext(ctx).Where("id = ?", id).First(&fb).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

// FeedbackExists reports whether a row with id exists.
func FeedbackExists(ctx context.Context, db *gorm.DB, id uint64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("id = ?", id).
		Count(&n).Error
	return n > 0, err
}

// DeleteFeedback permanently removes the row with id. It returns ErrNotFound
// when nothing was deleted.
func DeleteFeedback(ctx context.Context, db *gorm.DB, id uint64) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Feedback{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFeedback returns one page of rows matching f ordered by id ascending,
// and the total number of matching rows. The total is independent of
// offset/limit. An empty slice (not nil) is returned for an empty page.
//
// The caller computes offset and limit (e.g. page*size, size).
func ListFeedback(ctx context.Context, db *gorm.DB, f Filter, offset, limit int) ([]domain.Feedback, int64, error) {
	q := applyFilter(db.WithContext(ctx).Model(&domain.Feedback{}), f)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	out := []domain.Feedback{}
	if total == 0 || int64(offset) >= total {
		return out, total, nil
	}
	err := q.Session(&gorm.Session{}).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

// applyFilter adds the WHERE clauses for f.
func applyFilter(q *gorm.DB, f Filter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Email != "" {
		q = q.Where("email = ?", f.Email)
	}
	if f.Keyword != "" {
		pattern := "%" + f.Keyword + "%"
		q = q.Where("(title LIKE ? OR content LIKE ?)", pattern, pattern)
	}
	return q
}
