package repository

import (
	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
)

// commentRepository implements the CommentRepository interface
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository instance
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create creates a new comment in the database
func (r *commentRepository) Create(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// ListByReport returns a report's comments, newest first, with authors preloaded
func (r *commentRepository) ListByReport(reportID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Preload("User").
		Where("report_id = ?", reportID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}
