// Package services – FeedbackService
//
// This file implements FeedbackService, which owns the lifecycle of feedback
// records: creation with defaults, partial updates, deletion, paginated and
// filtered listing, keyword search and aggregate statistics. The service owns
// the clock for createdAt/updatedAt and translates repository outcomes into
// the ErrNotFound / ErrBadRequest kinds handlers map to HTTP results.
//
// Observability: every public method opens an OpenTelemetry span and bumps
// the feedback_operations_total counter with its outcome.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-feedback-service/internal/domain"
	"github.com/tbourn/go-feedback-service/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "services/FeedbackService"

// IdempotencyScopeCreate namespaces Idempotency-Key records for create calls.
const IdempotencyScopeCreate = "feedback.create"

// feedbackOps counts service operations by name and outcome
// (ok, not_found, bad_request, error).
var feedbackOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feedback_operations_total",
		Help: "Feedback service operations by outcome.",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(feedbackOps)
}

// CreateInput carries the client-supplied fields for a new record. Nil means
// the field was absent from the request.
type CreateInput struct {
	Title    *string
	Content  *string
	Type     *string
	Email    *string
	UserName *string
}

// UpdateInput carries a partial update. Only non-nil fields are applied.
type UpdateInput struct {
	Title    *string
	Content  *string
	Type     *string
	Status   *string
	Priority *string
}

// Page is one page of a listing plus the total number of matching rows.
type Page struct {
	Items []domain.Feedback
	Total int64
	Page  int
	Size  int
}

// Stats aggregates counts over all records.
type Stats struct {
	StatusStats map[string]int64
	TypeStats   map[string]int64
	TotalCount  int64
}

// FeedbackService implements the feedback use-cases on top of the repo
// package. Now defaults to time.Now when nil.
type FeedbackService struct {
	DB  *gorm.DB
	Now func() time.Time

	// IdempotencyTTL is how long a create result stays replayable.
	// Values <= 0 fall back to 24h.
	IdempotencyTTL time.Duration
}

// NewFeedbackService constructs a FeedbackService using the wall clock.
func NewFeedbackService(db *gorm.DB, idemTTL time.Duration) *FeedbackService {
	return &FeedbackService{DB: db, Now: time.Now, IdempotencyTTL: idemTTL}
}

func (s *FeedbackService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Create builds a record from in, applying defaults, and persists it.
//
// Defaults: status PENDING, priority MEDIUM, title "Untitled" and type
// "general" when absent or blank. createdAt and updatedAt are both set to the
// same instant. A missing or blank content yields ErrBadRequest, as does any
// storage constraint violation (e.g. an over-long title on PostgreSQL).
func (s *FeedbackService) Create(ctx context.Context, in CreateInput) (fb *domain.Feedback, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Create")
	defer func() { finish(span, "create", err) }()

	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrBadRequest)
	}

	now := s.now()
	fb = &domain.Feedback{
		Title:     orDefault(in.Title, domain.DefaultTitle),
		Content:   *in.Content,
		Type:      orDefault(in.Type, domain.DefaultType),
		Email:     in.Email,
		UserName:  in.UserName,
		Status:    domain.DefaultStatus,
		Priority:  domain.DefaultPriority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateFeedback(ctx, s.DB, fb); err != nil {
		if repo.IsConstraintViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int64("feedback.id", int64(fb.ID)))
	return fb, nil
}

// Replay returns the record created earlier under key, or ErrNotFound when
// no live idempotency record exists or the record has since been deleted.
func (s *FeedbackService) Replay(ctx context.Context, key string) (fb *domain.Feedback, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Replay")
	defer func() { finish(span, "replay", err) }()

	rec, err := repo.GetIdempotency(ctx, s.DB, IdempotencyScopeCreate, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: idempotency key", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.load(ctx, rec.FeedbackID)
}

// CreateIdempotent behaves like Create, but when key is non-empty a retry
// with the same key inside the TTL window returns the first result with
// replayed=true instead of inserting again. Storing the key is best effort:
// a failure there does not fail the create.
func (s *FeedbackService) CreateIdempotent(ctx context.Context, key string, in CreateInput) (fb *domain.Feedback, replayed bool, err error) {
	if key == "" {
		fb, err = s.Create(ctx, in)
		return fb, false, err
	}
	if prev, err := s.Replay(ctx, key); err == nil {
		return prev, true, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	fb, err = s.Create(ctx, in)
	if err != nil {
		return nil, false, err
	}
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if _, err := repo.CreateIdempotency(ctx, s.DB, IdempotencyScopeCreate, key, fb.ID, 201, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		log.Warn().Err(err).Uint64("feedback_id", fb.ID).Msg("store idempotency key")
	}
	return fb, false, nil
}

// Get returns the record with id, or ErrNotFound.
func (s *FeedbackService) Get(ctx context.Context, id uint64) (fb *domain.Feedback, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("feedback.id", int64(id))),
	)
	defer func() { finish(span, "get", err) }()

	return s.load(ctx, id)
}

// Update merges the non-nil fields of in into record id and persists it.
// updatedAt is always refreshed and never moves backwards. A missing record
// is ErrNotFound before any field is checked; blank values for title,
// content, type or status are then rejected with ErrBadRequest since those
// columns must stay non-empty.
func (s *FeedbackService) Update(ctx context.Context, id uint64, in UpdateInput) (fb *domain.Feedback, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Update",
		trace.WithAttributes(attribute.Int64("feedback.id", int64(id))),
	)
	defer func() { finish(span, "update", err) }()

	fb, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	for name, v := range map[string]*string{
		"title": in.Title, "content": in.Content, "type": in.Type, "status": in.Status,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, fmt.Errorf("%w: %s must not be blank", ErrBadRequest, name)
		}
	}
	if in.Title != nil {
		fb.Title = *in.Title
	}
	if in.Content != nil {
		fb.Content = *in.Content
	}
	if in.Type != nil {
		fb.Type = *in.Type
	}
	if in.Status != nil {
		fb.Status = domain.CanonicalStatus(*in.Status)
	}
	if in.Priority != nil {
		fb.Priority = domain.CanonicalPriority(*in.Priority)
	}

	now := s.now()
	if now.Before(fb.UpdatedAt) {
		now = fb.UpdatedAt
	}
	fb.UpdatedAt = now

	if err := repo.UpdateFeedback(ctx, s.DB, fb); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, fmt.Errorf("%w: feedback %d", ErrNotFound, id)
		case repo.IsConstraintViolation(err):
			return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return nil, err
	}
	return fb, nil
}

// UpdateStatus sets only the status of record id.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id uint64, status string) (*domain.Feedback, error) {
	return s.Update(ctx, id, UpdateInput{Status: &status})
}

// UpdatePriority sets only the priority of record id.
func (s *FeedbackService) UpdatePriority(ctx context.Context, id uint64, priority string) (*domain.Feedback, error) {
	return s.Update(ctx, id, UpdateInput{Priority: &priority})
}

// Delete removes record id, or returns ErrNotFound.
func (s *FeedbackService) Delete(ctx context.Context, id uint64) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int64("feedback.id", int64(id))),
	)
	defer func() { finish(span, "delete", err) }()

	ok, err := repo.FeedbackExists(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: feedback %d", ErrNotFound, id)
	}
	if err := repo.DeleteFeedback(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: feedback %d", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// List returns page of all records ordered by id.
func (s *FeedbackService) List(ctx context.Context, page, size int) (*Page, error) {
	return s.list(ctx, "list", repo.Filter{}, page, size)
}

// ListByStatus returns records whose status equals status. Known labels are
// matched in their canonical spelling; others must match exactly.
func (s *FeedbackService) ListByStatus(ctx context.Context, status string, page, size int) (*Page, error) {
	return s.list(ctx, "list_by_status", repo.Filter{Status: domain.CanonicalStatus(status)}, page, size)
}

// ListByType returns records whose type equals typ exactly.
func (s *FeedbackService) ListByType(ctx context.Context, typ string, page, size int) (*Page, error) {
	return s.list(ctx, "list_by_type", repo.Filter{Type: typ}, page, size)
}

// ListByPriority returns records whose priority equals priority, with the
// same canonical matching as ListByStatus.
func (s *FeedbackService) ListByPriority(ctx context.Context, priority string, page, size int) (*Page, error) {
	return s.list(ctx, "list_by_priority", repo.Filter{Priority: domain.CanonicalPriority(priority)}, page, size)
}

// ListByEmail returns records submitted with email.
func (s *FeedbackService) ListByEmail(ctx context.Context, email string, page, size int) (*Page, error) {
	return s.list(ctx, "list_by_email", repo.Filter{Email: email}, page, size)
}

// Search returns records whose title or content contains keyword
// (case-sensitive substring match).
func (s *FeedbackService) Search(ctx context.Context, keyword string, page, size int) (*Page, error) {
	return s.list(ctx, "search", repo.Filter{Keyword: keyword}, page, size)
}

func (s *FeedbackService) list(ctx context.Context, op string, f repo.Filter, page, size int) (p *Page, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, op,
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", size),
		),
	)
	defer func() { finish(span, op, err) }()

	if page < 0 {
		return nil, fmt.Errorf("%w: page must be >= 0", ErrBadRequest)
	}
	if size < 1 {
		return nil, fmt.Errorf("%w: size must be >= 1", ErrBadRequest)
	}

	// page*size would overflow; such a page lies past any real row.
	offset := math.MaxInt
	if page <= math.MaxInt/size {
		offset = page * size
	}

	items, total, err := repo.ListFeedback(ctx, s.DB, f, offset, size)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: page, Size: size}, nil
}

// Stats returns grouped status and type counts plus the total row count.
func (s *FeedbackService) Stats(ctx context.Context) (st *Stats, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Stats")
	defer func() { finish(span, "stats", err) }()

	byStatus, err := repo.CountFeedbackByStatus(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	byType, err := repo.CountFeedbackByType(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	total, err := repo.CountFeedback(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return &Stats{StatusStats: byStatus, TypeStats: byType, TotalCount: total}, nil
}

// Fingerprint returns the row count and latest updatedAt, used by handlers
// to build ETags for list responses.
func (s *FeedbackService) Fingerprint(ctx context.Context) (count int64, maxUpdatedAt *time.Time, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Fingerprint")
	defer func() { finish(span, "fingerprint", err) }()

	return repo.FeedbackStats(ctx, s.DB)
}

func (s *FeedbackService) load(ctx context.Context, id uint64) (*domain.Feedback, error) {
	fb, err := repo.GetFeedback(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: feedback %d", ErrNotFound, id)
	}
	return fb, err
}

// finish records the outcome of op on span and in the ops counter, then ends
// the span.
func finish(span trace.Span, op string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrBadRequest):
		outcome = "bad_request"
	default:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	feedbackOps.WithLabelValues(op, outcome).Inc()
	span.End()
}

// orDefault returns *v, or def when v is nil or blank.
func orDefault(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return *v
}
