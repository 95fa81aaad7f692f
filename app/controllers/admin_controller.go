package controllers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
	"github.com/bachesrosario/baches-api/app/repository"
	"github.com/bachesrosario/baches-api/internal/pkg/broadcast"
	"github.com/bachesrosario/baches-api/internal/pkg/cache"
	"github.com/bachesrosario/baches-api/internal/pkg/usercontext"
)

const statsCacheKey = "admin:stats"
const statsCacheTTL = 60 * time.Second

// HandleAdminStats serves the dashboard aggregates, cached briefly so a
// busy dashboard does not hammer the database.
func HandleAdminStats(c *fiber.Ctx) error {
	if cached, err := cache.Get(statsCacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	repo := repository.GetGlobalFactory().GetReportRepository()
	stats, err := repo.SystemStats()
	if err != nil {
		return internalError(c, err)
	}

	response := fiber.Map{
		"reports": fiber.Map{
			"total":                   stats.TotalReports,
			"pending_moderation":      stats.PendingModeration,
			"reported":                stats.Reported,
			"in_progress":             stats.InProgress,
			"resolved":                stats.Resolved,
			"average_resolution_days": stats.AverageResolutionDays,
		},
		"users": fiber.Map{
			"total": stats.TotalUsers,
		},
		"comments": fiber.Map{
			"total": stats.TotalComments,
		},
	}

	if encoded, err := json.Marshal(response); err == nil {
		// Cache being down only costs us the shortcut.
		_ = cache.Set(statsCacheKey, string(encoded), statsCacheTTL)
	}

	return c.JSON(response)
}

// HandleAdminListReports lists reports for moderation with filters and
// pagination.
func HandleAdminListReports(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	filter := repository.AdminReportFilter{Offset: offset, Limit: limit}

	if status := c.Query("status"); status != "" {
		if !models.IsValidStatus(status) {
			return validationError(c, "Invalid status filter")
		}
		filter.Status = status
	}
	if moderation := c.Query("moderation_status"); moderation != "" {
		if !models.IsValidModerationStatus(moderation) {
			return validationError(c, "Invalid moderation status filter")
		}
		filter.ModerationStatus = moderation
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return validationError(c, "from must be a date (YYYY-MM-DD)")
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return validationError(c, "to must be a date (YYYY-MM-DD)")
		}
		filter.To = &t
	}

	repo := repository.GetGlobalFactory().GetReportRepository()
	reports, total, err := repo.ListAdmin(filter)
	if err != nil {
		return internalError(c, err)
	}

	out := make([]fiber.Map, 0, len(reports))
	for i := range reports {
		out = append(out, reportJSON(&reports[i]))
	}

	return c.JSON(fiber.Map{
		"reports":    out,
		"pagination": paginationMap(page, limit, total),
	})
}

// HandleApproveReport publishes a pending report. Re-reviewing an
// already decided report is a conflict.
func HandleApproveReport(c *fiber.Ctx) error {
	report, errResp := loadPendingReport(c)
	if report == nil {
		return errResp
	}

	report.ModerationStatus = models.ModerationApproved
	report.RejectionReason = ""

	repo := repository.GetGlobalFactory().GetReportRepository()
	if err := repo.Update(report); err != nil {
		return internalError(c, err)
	}

	cache.Delete(statsCacheKey)
	broadcast.Default().Publish(broadcast.EventNewReport, reportJSON(report))

	return c.JSON(fiber.Map{
		"message": "Report approved. It is now publicly visible.",
		"report":  reportJSON(report),
	})
}

// HandleRejectReport rejects a pending report with an optional reason.
// No broadcast: rejected reports never become public.
func HandleRejectReport(c *fiber.Ctx) error {
	report, errResp := loadPendingReport(c)
	if report == nil {
		return errResp
	}

	var body struct {
		Reason string `json:"reason"`
	}
	// The body is optional; a bare POST rejects without a reason.
	_ = c.BodyParser(&body)

	report.ModerationStatus = models.ModerationRejected
	report.RejectionReason = strings.TrimSpace(body.Reason)

	repo := repository.GetGlobalFactory().GetReportRepository()
	if err := repo.Update(report); err != nil {
		return internalError(c, err)
	}

	cache.Delete(statsCacheKey)

	return c.JSON(fiber.Map{
		"message": "Report rejected.",
		"report":  reportJSON(report),
	})
}

// loadPendingReport fetches the :id report and enforces that it still
// awaits moderation. On failure the response has already been written.
func loadPendingReport(c *fiber.Ctx) (*models.Report, error) {
	id, err := parseIDParam(c)
	if err != nil {
		return nil, validationError(c, "Invalid report id")
	}

	repo := repository.GetGlobalFactory().GetReportRepository()
	report, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(c, "Report not found")
		}
		return nil, internalError(c, err)
	}

	if !report.IsPendingModeration() {
		return nil, conflict(c, "The report was already reviewed (approved or rejected)")
	}

	return report, nil
}

// HandleAdminListUsers lists users with role filter, free-text search
// and pagination; every row carries report and comment totals.
func HandleAdminListUsers(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)

	role := c.Query("role")
	if role != "" && role != models.ROLE_USER && role != models.ROLE_ADMIN {
		return validationError(c, "Invalid role filter")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	users, total, err := repo.ListWithStats(role, c.Query("search"), offset, limit)
	if err != nil {
		return internalError(c, err)
	}

	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		out = append(out, fiber.Map{
			"id":              u.User.ID,
			"email":           u.User.Email,
			"name":            u.User.Name,
			"surname":         u.User.Surname,
			"age":             u.User.Age,
			"sex":             u.User.Sex,
			"role":            u.User.Role,
			"register_method": u.User.RegisterMethod,
			"email_verified":  u.User.EmailVerified,
			"created_at":      u.User.CreatedAt,
			"total_reports":   u.TotalReports,
			"total_comments":  u.TotalComments,
		})
	}

	return c.JSON(fiber.Map{
		"users":      out,
		"pagination": paginationMap(page, limit, total),
	})
}

// HandleAdminGetUser returns a user with aggregated activity statistics.
func HandleAdminGetUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return validationError(c, "Invalid user id")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, err)
	}

	stats, err := repo.GetStatsByUserID(id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"user": user,
		"statistics": fiber.Map{
			"total_reports":  stats.TotalReports,
			"total_comments": stats.TotalComments,
			"reports_by_status": fiber.Map{
				"reported":    stats.Reported,
				"in_progress": stats.InProgress,
				"resolved":    stats.Resolved,
			},
			"recent_reports": stats.RecentReports,
		},
	})
}

// HandleAdminUpdateUser updates a user's profile fields on their behalf.
func HandleAdminUpdateUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return validationError(c, "Invalid user id")
	}

	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return validationError(c, "Malformed request body")
	}
	if err := validator.New().Struct(&req); err != nil {
		return validationError(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, err)
	}

	if err := applyUserUpdate(repo, user, req.Name, req.Surname, req.Email, req.Age, req.Sex); err != nil {
		if errors.Is(err, errEmailTaken) {
			return conflict(c, "The email is already in use")
		}
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User updated",
		"user":    user,
	})
}

// HandleAdminDeleteUser removes a user and everything they own: their
// reports (with attached comments and votes), their comments elsewhere,
// and their votes on other reports. Admins cannot delete themselves.
func HandleAdminDeleteUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return validationError(c, "Invalid user id")
	}

	if id == usercontext.GetUserID(c) {
		return validationError(c, "You cannot delete your own account")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, err)
	}

	result, err := repo.DeleteCascade(id)
	if err != nil {
		return internalError(c, err)
	}

	cache.Delete(statsCacheKey)

	return c.JSON(fiber.Map{
		"message": "User deleted",
		"deleted_user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
		"deleted_data": fiber.Map{
			"reports":  result.Reports,
			"comments": result.Comments,
			"votes":    result.Votes,
		},
	})
}
