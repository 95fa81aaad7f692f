package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their normalized email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByVerificationToken retrieves a user by their email verification token
func (r *userRepository) GetByVerificationToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("verification_token = ? AND verification_token <> ''", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByResetToken retrieves a user by their password reset token
func (r *userRepository) GetByResetToken(token string) (*models.User, error) {
	var user models.User
	err := r.db.Where("reset_token = ? AND reset_token <> ''", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmailOrGoogleID resolves an OAuth identity to an existing account,
// matching by email first, then by the provider id.
func (r *userRepository) GetByEmailOrGoogleID(email, googleID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ? OR google_id = ?", models.NormalizeEmail(email), googleID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether another account already uses the address.
func (r *userRepository) EmailTaken(email string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("email = ? AND id <> ?", models.NormalizeEmail(email), exceptID).
		Count(&count).Error
	return count > 0, err
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// ListWithStats retrieves a filtered, paginated user listing with report
// and comment totals per user.
func (r *userRepository) ListWithStats(role, search string, offset, limit int) ([]UserWithStats, int64, error) {
	query := r.db.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if search != "" {
		pattern := "%" + strings.TrimSpace(search) + "%"
		query = query.Where("name LIKE ? OR surname LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	usersWithStats := make([]UserWithStats, 0, len(users))
	for _, user := range users {
		var reports, comments int64
		if err := r.db.Model(&models.Report{}).Where("user_id = ?", user.ID).Count(&reports).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to count reports for user %d: %w", user.ID, err)
		}
		if err := r.db.Model(&models.Comment{}).Where("user_id = ?", user.ID).Count(&comments).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to count comments for user %d: %w", user.ID, err)
		}
		usersWithStats = append(usersWithStats, UserWithStats{
			User:          user,
			TotalReports:  reports,
			TotalComments: comments,
		})
	}

	return usersWithStats, total, nil
}

// GetStatsByUserID returns aggregate statistics for the admin user detail view.
func (r *userRepository) GetStatsByUserID(userID uint) (*UserStats, error) {
	stats := &UserStats{}

	if err := r.db.Model(&models.Report{}).Where("user_id = ?", userID).Count(&stats.TotalReports).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Comment{}).Where("user_id = ?", userID).Count(&stats.TotalComments).Error; err != nil {
		return nil, err
	}

	statusCounts := map[string]*int64{
		models.StatusReported:   &stats.Reported,
		models.StatusInProgress: &stats.InProgress,
		models.StatusResolved:   &stats.Resolved,
	}
	for status, target := range statusCounts {
		if err := r.db.Model(&models.Report{}).
			Where("user_id = ? AND status = ?", userID, status).
			Count(target).Error; err != nil {
			return nil, err
		}
	}

	var recent []models.Report
	if err := r.db.Where("user_id = ?", userID).
		Order("reported_at DESC").Limit(5).Find(&recent).Error; err != nil {
		return nil, err
	}
	for _, report := range recent {
		var votes int64
		if err := r.db.Model(&models.ReportVote{}).Where("report_id = ?", report.ID).Count(&votes).Error; err != nil {
			return nil, err
		}
		stats.RecentReports = append(stats.RecentReports, RecentReport{
			ID:         report.ID,
			Title:      report.Title,
			Status:     report.Status,
			ReportedAt: report.ReportedAt,
			TotalVotes: votes,
		})
	}

	return stats, nil
}

// DeleteCascade removes the user together with their reports, their
// comments, comments left on those reports, and their votes on other
// reports, all in one transaction.
func (r *userRepository) DeleteCascade(userID uint) (*CascadeResult, error) {
	result := &CascadeResult{}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var reportIDs []uint
		if err := tx.Model(&models.Report{}).Where("user_id = ?", userID).Pluck("id", &reportIDs).Error; err != nil {
			return err
		}
		result.Reports = int64(len(reportIDs))

		if err := tx.Model(&models.Comment{}).Where("user_id = ?", userID).Count(&result.Comments).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ReportVote{}).Where("user_id = ?", userID).Count(&result.Votes).Error; err != nil {
			return err
		}

		if len(reportIDs) > 0 {
			// Comments and votes on the user's own reports go with them.
			if err := tx.Where("report_id IN ?", reportIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("report_id IN ?", reportIDs).Delete(&models.ReportVote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", userID).Delete(&models.Report{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ReportVote{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
