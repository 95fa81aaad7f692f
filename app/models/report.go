package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	StatusReported   = "reported"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"

	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"

	LaneLeft   = "left"
	LaneCenter = "center"
	LaneRight  = "right"
)

// StringList stores an ordered list of strings as a JSON column.
type StringList []string

// Value implements the driver.Valuer interface
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	var list []string
	if err := json.Unmarshal(bytes, &list); err != nil {
		return err
	}
	*s = StringList(list)
	return nil
}

type Report struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	Description      string         `gorm:"type:text;not null" json:"description" validate:"required,min=3"`
	Address          string         `gorm:"type:varchar(255);not null" json:"address" validate:"required"`
	Lat              float64        `gorm:"type:decimal(10,8);not null;index:idx_reports_coords" json:"lat" validate:"min=-90,max=90"`
	Lng              float64        `gorm:"type:decimal(11,8);not null;index:idx_reports_coords" json:"lng" validate:"min=-180,max=180"`
	Images           StringList     `gorm:"type:json" json:"images"`
	LanePosition     string         `gorm:"type:varchar(20);not null" json:"lane_position" validate:"oneof=left center right"`
	Status           string         `gorm:"type:varchar(20);default:'reported';index" json:"status" validate:"oneof=reported in_progress resolved"`
	ModerationStatus string         `gorm:"type:varchar(20);default:'pending';index" json:"moderation_status"`
	RejectionReason  string         `gorm:"type:varchar(500);default:null" json:"rejection_reason,omitempty"`
	ReportedAt       time.Time      `gorm:"type:datetime;not null" json:"reported_at"`
	ResolvedAt       *time.Time     `gorm:"type:datetime;default:null" json:"resolved_at,omitempty"`
	ResolutionDays   *int           `gorm:"type:int;default:null" json:"resolution_days,omitempty"`
	PhotoTakenAt     *time.Time     `gorm:"type:datetime;default:null" json:"photo_taken_at,omitempty"`
	ViewCount        int64          `gorm:"default:0" json:"view_count"`
	UserID           uint           `gorm:"index;not null" json:"user_id"`
	User             *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Votes            []ReportVote   `gorm:"foreignKey:ReportID" json:"votes,omitempty"`
	Comments         []Comment      `gorm:"foreignKey:ReportID" json:"comments,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Report) Validate() error {
	v := validator.New()

	return v.Struct(r)
}

// BeforeCreate stamps the report time when the caller did not.
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ReportedAt.IsZero() {
		r.ReportedAt = time.Now()
	}
	if r.Status == "" {
		r.Status = StatusReported
	}
	if r.ModerationStatus == "" {
		r.ModerationStatus = ModerationPending
	}
	return nil
}

// IsPublic reports whether the record is publicly visible. Rows written
// before the moderation workflow existed carry an empty moderation
// status and count as approved.
func (r *Report) IsPublic() bool {
	return r.ModerationStatus == ModerationApproved || r.ModerationStatus == ""
}

// IsPendingModeration reports whether the record still awaits review.
func (r *Report) IsPendingModeration() bool {
	return r.ModerationStatus == ModerationPending
}

// SetStatus moves the report to the given repair status. The first
// transition into resolved stamps the resolution time and the elapsed
// whole days; re-entering resolved leaves both untouched.
func (r *Report) SetStatus(status string, now time.Time) {
	previous := r.Status
	r.Status = status

	if status == StatusResolved && previous != StatusResolved {
		resolvedAt := now
		r.ResolvedAt = &resolvedAt
		days := ResolutionDays(r.ReportedAt, resolvedAt)
		r.ResolutionDays = &days
	}
}

// ResolutionDays returns the elapsed whole days between report and
// resolution, rounded up. A same-day fix counts as zero days only when
// the timestamps are identical.
func ResolutionDays(reportedAt, resolvedAt time.Time) int {
	elapsed := resolvedAt.Sub(reportedAt)
	if elapsed <= 0 {
		return 0
	}
	return int(math.Ceil(elapsed.Hours() / 24))
}

// VoteCount returns the number of votes loaded on the report.
func (r *Report) VoteCount() int {
	return len(r.Votes)
}

// IsValidStatus reports whether s is one of the repair status values.
func IsValidStatus(s string) bool {
	switch s {
	case StatusReported, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// IsValidLanePosition reports whether s is a known lane position.
func IsValidLanePosition(s string) bool {
	switch s {
	case LaneLeft, LaneCenter, LaneRight:
		return true
	}
	return false
}

// IsValidModerationStatus reports whether s is a known moderation state.
func IsValidModerationStatus(s string) bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return true
	}
	return false
}
