package repository

import (
	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
)

// KmPerDegree approximates the width of one degree of latitude in
// kilometers; the radius filter divides by it to get a bounding box.
const KmPerDegree = 111.0

// publicVisibility matches approved rows plus legacy rows written
// before the moderation workflow existed.
const publicVisibility = "moderation_status = ? OR moderation_status = '' OR moderation_status IS NULL"

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository instance
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create creates a new report in the database
func (r *reportRepository) Create(report *models.Report) error {
	return r.db.Create(report).Error
}

// GetByID retrieves a report with its reporter and votes preloaded
func (r *reportRepository) GetByID(id uint) (*models.Report, error) {
	var report models.Report
	err := r.db.Preload("User").Preload("Votes").First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Update persists changes to an existing report
func (r *reportRepository) Update(report *models.Report) error {
	return r.db.Save(report).Error
}

// ListPublic returns approved reports, newest first, optionally
// narrowed by status and an approximate radius around a point.
func (r *reportRepository) ListPublic(filter PublicReportFilter) ([]models.Report, error) {
	query := r.db.Preload("User").Preload("Votes").
		Where(publicVisibility, models.ModerationApproved)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Lat != nil && filter.Lng != nil && filter.RadiusKm != nil {
		delta := *filter.RadiusKm / KmPerDegree
		query = query.
			Where("lat BETWEEN ? AND ?", *filter.Lat-delta, *filter.Lat+delta).
			Where("lng BETWEEN ? AND ?", *filter.Lng-delta, *filter.Lng+delta)
	}

	var reports []models.Report
	err := query.Order("reported_at DESC").Find(&reports).Error
	return reports, err
}

// ListAdmin returns reports for the moderation dashboard with the total
// matching row count for pagination.
func (r *reportRepository) ListAdmin(filter AdminReportFilter) ([]models.Report, int64, error) {
	query := r.db.Model(&models.Report{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ModerationStatus != "" {
		query = query.Where("moderation_status = ?", filter.ModerationStatus)
	}
	if filter.From != nil {
		query = query.Where("reported_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("reported_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	err := query.Preload("User").
		Order("reported_at DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&reports).Error
	return reports, total, err
}

// SystemStats aggregates the admin dashboard counters. Per-status
// counts only consider publicly visible reports; the pending counter
// covers the moderation queue.
func (r *reportRepository) SystemStats() (*SystemStats, error) {
	stats := &SystemStats{}

	if err := r.db.Model(&models.Report{}).Count(&stats.TotalReports).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Report{}).
		Where("moderation_status = ?", models.ModerationPending).
		Count(&stats.PendingModeration).Error; err != nil {
		return nil, err
	}

	statusCounts := map[string]*int64{
		models.StatusReported:   &stats.Reported,
		models.StatusInProgress: &stats.InProgress,
		models.StatusResolved:   &stats.Resolved,
	}
	for status, target := range statusCounts {
		if err := r.db.Model(&models.Report{}).
			Where("status = ?", status).
			Where(publicVisibility, models.ModerationApproved).
			Count(target).Error; err != nil {
			return nil, err
		}
	}

	var avg *float64
	if err := r.db.Model(&models.Report{}).
		Where("status = ? AND resolution_days IS NOT NULL", models.StatusResolved).
		Select("AVG(resolution_days)").Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		stats.AverageResolutionDays = *avg
	}

	if err := r.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Comment{}).Count(&stats.TotalComments).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// ToggleVote flips the user's vote on a report and returns the new
// membership state with the resulting total.
func (r *reportRepository) ToggleVote(reportID, userID uint) (bool, int64, error) {
	voted, err := models.ToggleVote(r.db, reportID, userID)
	if err != nil {
		return false, 0, err
	}
	total, err := r.VoteTotal(reportID)
	return voted, total, err
}

// VoteTotal counts the votes currently on a report
func (r *reportRepository) VoteTotal(reportID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.ReportVote{}).Where("report_id = ?", reportID).Count(&total).Error
	return total, err
}
