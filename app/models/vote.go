package models

import (
	"time"

	"gorm.io/gorm"
)

// ReportVote records a single user's endorsement of a report. The
// composite unique index enforces at most one vote per user and report.
type ReportVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReportID  uint      `gorm:"uniqueIndex:idx_report_votes_report_user;not null" json:"report_id"`
	Report    *Report   `gorm:"foreignKey:ReportID" json:"report,omitempty"`
	UserID    uint      `gorm:"uniqueIndex:idx_report_votes_report_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ToggleVote adds or removes the user's vote on a report and returns
// the new membership state.
func ToggleVote(db *gorm.DB, reportID, userID uint) (bool, error) {
	var vote ReportVote
	result := db.Where("report_id = ? AND user_id = ?", reportID, userID).First(&vote)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			newVote := ReportVote{
				ReportID: reportID,
				UserID:   userID,
			}
			if err := db.Create(&newVote).Error; err != nil {
				return false, err
			}
			return true, nil
		}
		return false, result.Error
	}

	if err := db.Delete(&vote).Error; err != nil {
		return false, err
	}
	return false, nil
}
