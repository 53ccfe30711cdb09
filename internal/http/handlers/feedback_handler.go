// Feedback HTTP handlers.
//
// This file exposes REST endpoints for feedback resources (relative to the
// API base path):
//   - POST   /feedback                    (create, Idempotency-Key aware)
//   - GET    /feedback                    (list, paginated, ETag support)
//   - GET    /feedback/{id}               (read)
//   - PUT    /feedback/{id}               (partial update)
//   - DELETE /feedback/{id}               (delete)
//   - PATCH  /feedback/{id}/status        (set status)
//   - PATCH  /feedback/{id}/priority      (set priority)
//   - GET    /feedback/status/{status}    (filter)
//   - GET    /feedback/type/{type}        (filter)
//   - GET    /feedback/priority/{priority}(filter)
//   - GET    /feedback/email/{email}      (filter)
//   - GET    /feedback/search?keyword=    (title/content substring)
//   - GET    /feedback/stats              (aggregate counts)
//
// Handlers are transport-thin: they parse path, query and body parameters,
// call the service, and hand any error to failErr for classification.
package handlers

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-feedback-service/internal/domain"
	"github.com/tbourn/go-feedback-service/internal/http/middleware"
	"github.com/tbourn/go-feedback-service/internal/services"
	"github.com/tbourn/go-feedback-service/internal/utils"
)

// HeaderIdempotencyReplayed is set to "true" on a create served from an
// earlier request with the same Idempotency-Key.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

//
// Service contract (context-aware)
//

// FeedbackService defines the feedback operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts. Errors are expected to wrap
// services.ErrNotFound or services.ErrBadRequest where applicable.
type FeedbackService interface {
	CreateIdempotent(ctx context.Context, key string, in services.CreateInput) (*domain.Feedback, bool, error)
	Replay(ctx context.Context, key string) (*domain.Feedback, error)
	Get(ctx context.Context, id uint64) (*domain.Feedback, error)
	Update(ctx context.Context, id uint64, in services.UpdateInput) (*domain.Feedback, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (*domain.Feedback, error)
	UpdatePriority(ctx context.Context, id uint64, priority string) (*domain.Feedback, error)
	Delete(ctx context.Context, id uint64) error

	List(ctx context.Context, page, size int) (*services.Page, error)
	ListByStatus(ctx context.Context, status string, page, size int) (*services.Page, error)
	ListByType(ctx context.Context, typ string, page, size int) (*services.Page, error)
	ListByPriority(ctx context.Context, priority string, page, size int) (*services.Page, error)
	ListByEmail(ctx context.Context, email string, page, size int) (*services.Page, error)
	Search(ctx context.Context, keyword string, page, size int) (*services.Page, error)

	Stats(ctx context.Context) (*services.Stats, error)
	// Fingerprint returns the row count and latest update time for ETags.
	Fingerprint(ctx context.Context) (int64, *time.Time, error)
}

//
// Handler wiring
//

// Handlers groups the feedback HTTP endpoints.
type Handlers struct {
	svc             FeedbackService
	defaultPageSize int
}

// New constructs a Handlers instance bound to svc. defaultPageSize applies
// when a list request carries no size parameter; values < 1 mean 10.
func New(svc FeedbackService, defaultPageSize int) *Handlers {
	if defaultPageSize < 1 {
		defaultPageSize = 10
	}
	return &Handlers{svc: svc, defaultPageSize: defaultPageSize}
}

//
// DTOs
//

// CreateFeedbackRequest is the JSON payload for creating feedback.
type CreateFeedbackRequest struct {
	// Defaults to "Untitled" when absent
	Title *string `json:"title" example:"Login fails"`
	// Required
	Content *string `json:"content" example:"The SSO button returns a 500."`
	// Free-form category, defaults to "general" when absent
	Type     *string `json:"type" example:"bug"`
	Email    *string `json:"email" example:"ann@example.com"`
	UserName *string `json:"userName" example:"ann"`
}

// UpdateFeedbackRequest is the JSON payload for a partial update. Absent
// fields are left unchanged.
type UpdateFeedbackRequest struct {
	Title    *string `json:"title" example:"Login fails on Safari"`
	Content  *string `json:"content"`
	Type     *string `json:"type" example:"bug"`
	Status   *string `json:"status" example:"IN_PROGRESS"`
	Priority *string `json:"priority" example:"HIGH"`
}

// FeedbackListResponse wraps one page of feedback.
type FeedbackListResponse struct {
	Feedbacks []domain.Feedback `json:"feedbacks"`
	Total     int64             `json:"total" example:"23"`
	Page      int               `json:"page" example:"0"`
	Size      int               `json:"size" example:"10"`
}

// StatsResponse carries grouped counts over all feedback.
type StatsResponse struct {
	StatusStats map[string]int64 `json:"statusStats"`
	TypeStats   map[string]int64 `json:"typeStats"`
	TotalCount  int64            `json:"totalCount" example:"23"`
}

//
// Helpers
//

// pagination reads page (default 0) and size (default h.defaultPageSize).
// Non-numeric or out-of-range values are rejected here so that a conditional
// request cannot turn a bad page into a 304.
func (h *Handlers) pagination(c *gin.Context) (page, size int, err error) {
	if page, err = utils.AtoiDefault(c.Query("page"), 0); err != nil {
		return 0, 0, fmt.Errorf("%w: page: %v", services.ErrBadRequest, err)
	}
	if size, err = utils.AtoiDefault(c.Query("size"), h.defaultPageSize); err != nil {
		return 0, 0, fmt.Errorf("%w: size: %v", services.ErrBadRequest, err)
	}
	if page < 0 {
		return 0, 0, fmt.Errorf("%w: page must be >= 0", services.ErrBadRequest)
	}
	if size < 1 {
		return 0, 0, fmt.Errorf("%w: size must be >= 1", services.ErrBadRequest)
	}
	return page, size, nil
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// notModified sets a weak ETag derived from the table fingerprint and the
// request URL, and reports whether If-None-Match already matches it.
// Fingerprint failures only disable the ETag.
func (h *Handlers) notModified(c *gin.Context) bool {
	count, maxTS, err := h.svc.Fingerprint(c.Request.Context())
	if err != nil {
		return false
	}
	etag := listETag(c.Request.URL.Path, c.Request.URL.RawQuery, count, maxTS)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// listETag formats the weak ETag of a list response.
func listETag(path, rawQuery string, count int64, maxTS *time.Time) string {
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	q := fnv.New32a()
	_, _ = q.Write([]byte(path + "?" + rawQuery))
	return fmt.Sprintf(`W/"feedback:%d:%d:%08x"`, count, ts, q.Sum32())
}

// listWith runs one of the paginated service queries and writes the page.
func (h *Handlers) listWith(c *gin.Context, query func(ctx context.Context, page, size int) (*services.Page, error)) {
	page, size, err := h.pagination(c)
	if err != nil {
		failErr(c, err)
		return
	}
	if h.notModified(c) {
		return
	}
	p, err := query(c.Request.Context(), page, size)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, FeedbackListResponse{
		Feedbacks: p.Items,
		Total:     p.Total,
		Page:      p.Page,
		Size:      p.Size,
	})
}

//
// Handlers
//

// CreateFeedback godoc
// @ID          createFeedback
// @Summary     Submit feedback
// @Description Creates a feedback record with status PENDING and priority MEDIUM.
// @Description Supports idempotency via the Idempotency-Key header (same key → same record).
// @Tags        Feedback
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateFeedbackRequest  true  "Feedback payload"
//
// @Success     201  {object}  domain.Feedback
// @Header      201  {string}  Idempotency-Replayed  "true when the response replays an earlier create"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /feedback [post]
func (h *Handlers) CreateFeedback(c *gin.Context) {
	ctx := c.Request.Context()
	key, _ := middleware.GetIdempotencyKey(c)

	// Replay fast path: the middleware already saw a live record for key.
	if key != "" && middleware.IsReplay(c) {
		if fb, err := h.svc.Replay(ctx, key); err == nil {
			c.Header(HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusCreated, fb)
			return
		}
	}

	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	fb, replayed, err := h.svc.CreateIdempotent(ctx, key, services.CreateInput{
		Title:    req.Title,
		Content:  req.Content,
		Type:     req.Type,
		Email:    req.Email,
		UserName: req.UserName,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	if replayed {
		c.Header(HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusCreated, fb)
}

// GetFeedback godoc
// @ID          getFeedback
// @Summary     Get feedback by id
// @Tags        Feedback
// @Produce     json
// @Param       id   path      int  true  "Feedback ID"  minimum(1)
// @Success     200  {object}  domain.Feedback
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /feedback/{id} [get]
func (h *Handlers) GetFeedback(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	fb, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, fb)
}

// UpdateFeedback godoc
// @ID          updateFeedback
// @Summary     Update feedback
// @Description Applies the supplied fields and leaves the others unchanged. updatedAt is refreshed.
// @Tags        Feedback
// @Accept      json
// @Produce     json
// @Param       id    path      int  true  "Feedback ID"  minimum(1)
// @Param       body  body      handlers.UpdateFeedbackRequest  true  "Fields to change"
// @Success     200   {object}  domain.Feedback
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404   {object}  handlers.ErrorResponse  "Not found"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /feedback/{id} [put]
func (h *Handlers) UpdateFeedback(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	fb, err := h.svc.Update(c.Request.Context(), id, services.UpdateInput{
		Title:    req.Title,
		Content:  req.Content,
		Type:     req.Type,
		Status:   req.Status,
		Priority: req.Priority,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, fb)
}

// DeleteFeedback godoc
// @ID          deleteFeedback
// @Summary     Delete feedback
// @Tags        Feedback
// @Param       id   path    int  true  "Feedback ID"  minimum(1)
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse  "Bad id"
// @Failure     404  {object} handlers.ErrorResponse  "Not found"
// @Failure     500  {object} handlers.ErrorResponse  "Internal error"
// @Router      /feedback/{id} [delete]
func (h *Handlers) DeleteFeedback(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// UpdateStatus godoc
// @ID          updateFeedbackStatus
// @Summary     Set feedback status
// @Description Known labels (PENDING, IN_PROGRESS, RESOLVED, CLOSED) are normalised to canonical form,
// @Description so case and separator variants such as "resolved" or "in progress" are stored upper-case.
// @Description Unknown labels are stored verbatim.
// @Tags        Feedback
// @Produce     json
// @Param       id      path      int     true  "Feedback ID"  minimum(1)
// @Param       status  query     string  true  "New status"   example(RESOLVED)
// @Success     200     {object}  domain.Feedback
// @Failure     400     {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404     {object}  handlers.ErrorResponse  "Not found"
// @Failure     500     {object}  handlers.ErrorResponse  "Internal error"
// @Router      /feedback/{id}/status [patch]
func (h *Handlers) UpdateStatus(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	status, present := c.GetQuery("status")
	if !present {
		fail(c, http.StatusBadRequest, "status query parameter is required")
		return
	}
	fb, err := h.svc.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, fb)
}

// UpdatePriority godoc
// @ID          updateFeedbackPriority
// @Summary     Set feedback priority
// @Description Known labels (LOW, MEDIUM, HIGH) are normalised to canonical form,
// @Description so case variants such as "high" are stored as HIGH. Unknown labels are stored verbatim.
// @Tags        Feedback
// @Produce     json
// @Param       id        path      int     true  "Feedback ID"   minimum(1)
// @Param       priority  query     string  true  "New priority"  example(HIGH)
// @Success     200       {object}  domain.Feedback
// @Failure     400       {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404       {object}  handlers.ErrorResponse  "Not found"
// @Failure     500       {object}  handlers.ErrorResponse  "Internal error"
// @Router      /feedback/{id}/priority [patch]
func (h *Handlers) UpdatePriority(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	priority, present := c.GetQuery("priority")
	if !present {
		fail(c, http.StatusBadRequest, "priority query parameter is required")
		return
	}
	fb, err := h.svc.UpdatePriority(c.Request.Context(), id, priority)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, fb)
}

// ListFeedback godoc
// @ID          listFeedback
// @Summary     List feedback (paginated)
// @Description Returns a page of feedback ordered by id. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Feedback
// @Produce     json
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Zero-based page number"  minimum(0) default(0)
// @Param       size           query   int     false "Items per page"          minimum(1) default(10)
// @Success     200  {object} handlers.FeedbackListResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedback [get]
func (h *Handlers) ListFeedback(c *gin.Context) {
	h.listWith(c, h.svc.List)
}

// ListByStatus godoc
// @ID          listFeedbackByStatus
// @Summary     List feedback with a status
// @Tags        Feedback
// @Produce     json
// @Param       status  path   string  true  "Status label"  example(PENDING)
// @Param       page    query  int     false "Zero-based page number"  minimum(0) default(0)
// @Param       size    query  int     false "Items per page"          minimum(1) default(10)
// @Success     200  {object} handlers.FeedbackListResponse
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedback/status/{status} [get]
func (h *Handlers) ListByStatus(c *gin.Context) {
	status := c.Param("status")
	h.listWith(c, func(ctx context.Context, page, size int) (*services.Page, error) {
		return h.svc.ListByStatus(ctx, status, page, size)
	})
}

// ListByType godoc
// @ID          listFeedbackByType
// @Summary     List feedback of a type
// @Tags        Feedback
// @Produce     json
// @Param       type  path   string  true  "Category"  example(bug)
// @Param       page  query  int     false "Zero-based page number"  minimum(0) default(0)
// @Param       size  query  int     false "Items per page"          minimum(1) default(10)
// @Success     200  {object} handlers.FeedbackListResponse
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedback/type/{type} [get]
func (h *Handlers) ListByType(c *gin.Context) {
	typ := c.Param("type")
	h.listWith(c, func(ctx context.Context, page, size int) (*services.Page, error) {
		return h.svc.ListByType(ctx, typ, page, size)
	})
}

// ListByPriority godoc
// @ID          listFeedbackByPriority
// @Summary     List feedback with a priority
// @Tags        Feedback
// @Produce     json
// @Param       priority  path   string  true  "Priority label"  example(HIGH)
// @Param       page      query  int     false "Zero-based page number"  minimum(0) default(0)
// @Param       size      query  int     false "Items per page"          minimum(1) default(10)
// @Success     200  {object} handlers.FeedbackListResponse
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedback/priority/{priority} [get]
func (h *Handlers) ListByPriority(c *gin.Context) {
	priority := c.Param("priority")
	h.listWith(c, func(ctx context.Context, page, size int) (*services.Page, error) {
		return h.svc.ListByPriority(ctx, priority, page, size)
	})
}

// ListByEmail godoc
// @ID          listFeedbackByEmail
// @Summary     List feedback submitted with an email
// @Tags        Feedback
// @Produce     json
// @Param       email  path   string  true  "Submitter email"  example(ann@example.com)
// @Param       page   query  int     false "Zero-based page number"  minimum(0) default(0)
// @Param       size   query  int     false "Items per page"          minimum(1) default(10)
// @Success     200  {object} handlers.FeedbackListResponse
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedback/email/{email} [get]
func (h *Handlers) ListByEmail(c *gin.Context) {
	email := c.Param("email")
	h.listWith(c, func(ctx context.Context, page, size int) (*services.Page, error) {
		return h.svc.ListByEmail(ctx, email, page, size)
	})
}

// SearchFeedback godoc
// @ID          searchFeedback
// @Summary     Search feedback
// @Description Case-sensitive substring match on title or content. '%' and '_' act as wildcards.
// @Tags        Feedback
// @Produce     json
// @Param       keyword  query  string  true  "Substring to look for"  example(login)
// @Param       page     query  int     false "Zero-based page number"  minimum(0) default(0)
// @Param       size     query  int     false "Items per page"          minimum(1) default(10)
// @Success     200  {object} handlers.FeedbackListResponse
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Missing keyword"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedback/search [get]
func (h *Handlers) SearchFeedback(c *gin.Context) {
	keyword, present := c.GetQuery("keyword")
	if !present {
		fail(c, http.StatusBadRequest, "keyword query parameter is required")
		return
	}
	h.listWith(c, func(ctx context.Context, page, size int) (*services.Page, error) {
		return h.svc.Search(ctx, keyword, page, size)
	})
}

// FeedbackStats godoc
// @ID          feedbackStats
// @Summary     Feedback statistics
// @Description Counts grouped by status and by type, plus the total.
// @Tags        Feedback
// @Produce     json
// @Success     200  {object} handlers.StatsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedback/stats [get]
func (h *Handlers) FeedbackStats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, StatsResponse{
		StatusStats: st.StatusStats,
		TypeStats:   st.TypeStats,
		TotalCount:  st.TotalCount,
	})
}
