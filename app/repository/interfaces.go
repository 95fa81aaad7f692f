package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByVerificationToken(token string) (*models.User, error)
	GetByResetToken(token string) (*models.User, error)
	GetByEmailOrGoogleID(email, googleID string) (*models.User, error)
	EmailTaken(email string, exceptID uint) (bool, error)
	Update(user *models.User) error
	ListWithStats(role, search string, offset, limit int) ([]UserWithStats, int64, error)
	GetStatsByUserID(userID uint) (*UserStats, error)
	DeleteCascade(userID uint) (*CascadeResult, error)
}

// ReportRepository defines the interface for report-related database operations
type ReportRepository interface {
	Create(report *models.Report) error
	GetByID(id uint) (*models.Report, error)
	Update(report *models.Report) error
	ListPublic(filter PublicReportFilter) ([]models.Report, error)
	ListAdmin(filter AdminReportFilter) ([]models.Report, int64, error)
	SystemStats() (*SystemStats, error)
	ToggleVote(reportID, userID uint) (voted bool, total int64, err error)
	VoteTotal(reportID uint) (int64, error)
}

// CommentRepository defines the interface for comment-related database operations
type CommentRepository interface {
	Create(comment *models.Comment) error
	ListByReport(reportID uint) ([]models.Comment, error)
}

// PublicReportFilter narrows the public report listing.
type PublicReportFilter struct {
	Status   string
	Lat      *float64
	Lng      *float64
	RadiusKm *float64
}

// AdminReportFilter narrows the admin report listing.
type AdminReportFilter struct {
	Status           string
	ModerationStatus string
	From             *time.Time
	To               *time.Time
	Offset           int
	Limit            int
}

// UserWithStats represents a user with report and comment totals
type UserWithStats struct {
	User          models.User `json:"user"`
	TotalReports  int64       `json:"total_reports"`
	TotalComments int64       `json:"total_comments"`
}

// RecentReport is a compact view of a user's latest activity.
type RecentReport struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	ReportedAt time.Time `json:"reported_at"`
	TotalVotes int64     `json:"total_votes"`
}

// UserStats provides aggregated per-user counts for the admin detail view.
type UserStats struct {
	TotalReports  int64          `json:"total_reports"`
	TotalComments int64          `json:"total_comments"`
	Reported      int64          `json:"reported"`
	InProgress    int64          `json:"in_progress"`
	Resolved      int64          `json:"resolved"`
	RecentReports []RecentReport `json:"recent_reports"`
}

// CascadeResult summarizes what an admin user deletion removed.
type CascadeResult struct {
	Reports  int64 `json:"reports"`
	Comments int64 `json:"comments"`
	Votes    int64 `json:"votes"`
}

// SystemStats carries the admin dashboard aggregates.
type SystemStats struct {
	TotalReports          int64   `json:"total_reports"`
	PendingModeration     int64   `json:"pending_moderation"`
	Reported              int64   `json:"reported"`
	InProgress            int64   `json:"in_progress"`
	Resolved              int64   `json:"resolved"`
	AverageResolutionDays float64 `json:"average_resolution_days"`
	TotalUsers            int64   `json:"total_users"`
	TotalComments         int64   `json:"total_comments"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Report  ReportRepository
	Comment CommentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Report:  NewReportRepository(db),
		Comment: NewCommentRepository(db),
	}
}
