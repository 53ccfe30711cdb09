// Package domain defines the persistence models for feedback records. These
// types are mapped with GORM and form the core data layer of the feedback
// service.
package domain

import "time"

// Default values applied to new feedback records.
const (
	DefaultStatus   = string(StatusPending)
	DefaultPriority = string(PriorityMedium)
	DefaultTitle    = "Untitled"
	DefaultType     = "general"
)

// Feedback is a single user-submitted record.
//
// Fields:
//   - ID: integer primary key assigned by the store; never changes.
//   - Title / Content / Type: required text; Type is a free-form category.
//   - Email / UserName: optional submitter contact info (nil when absent).
//   - Status / Priority: free-form labels. Known labels are stored in their
//     canonical spelling, anything else verbatim. See ParseStatus and
//     ParsePriority for the typed view.
//   - CreatedAt / UpdatedAt: set by the service clock, not by GORM, so that
//     both are identical on creation and UpdatedAt moves on every update.
//
// Rows are hard-deleted; there is no DeletedAt column.
type Feedback struct {
	ID        uint64    `json:"id"        gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title"     gorm:"type:varchar(200);not null"`
	Content   string    `json:"content"   gorm:"type:text;not null"`
	Type      string    `json:"type"      gorm:"type:varchar(50);not null;index:idx_feedback_type"`
	Email     *string   `json:"email"     gorm:"type:varchar(100);index:idx_feedback_email"`
	UserName  *string   `json:"userName"  gorm:"type:varchar(50)"`
	Status    string    `json:"status"    gorm:"type:varchar(20);not null;default:'PENDING';index:idx_feedback_status"`
	Priority  string    `json:"priority"  gorm:"type:varchar(10);default:'MEDIUM';index:idx_feedback_priority"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }

// StatusValue returns the typed status of the record.
func (f Feedback) StatusValue() Status { return ParseStatus(f.Status) }

// PriorityValue returns the typed priority of the record.
func (f Feedback) PriorityValue() Priority { return ParsePriority(f.Priority) }
