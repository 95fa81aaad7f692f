package controllers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/bachesrosario/baches-api/app/models"
	"github.com/bachesrosario/baches-api/internal/pkg/env"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// internalError logs the cause and answers with a generic message in
// production; development gets the real error text.
func internalError(c *fiber.Ctx, err error) error {
	log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), err)
	message := "Internal server error"
	if env.IsDev() && err != nil {
		message = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": message})
}

func validationError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": message})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": message})
}

func forbidden(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": message})
}

func conflict(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": message})
}

// parseIDParam reads the :id route parameter as an unsigned integer.
func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, err
	}
	return uint(id), nil
}

// parsePagination reads page/limit query parameters with sane bounds.
func parsePagination(c *fiber.Ctx) (page, limit, offset int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, (page - 1) * limit
}

// paginationMap builds the pagination envelope used by list endpoints.
func paginationMap(page, limit int, total int64) fiber.Map {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return fiber.Map{
		"page":  page,
		"limit": limit,
		"total": total,
		"pages": pages,
	}
}

// userSummary is the public shape of a report's author.
func userSummary(u *models.User) fiber.Map {
	if u == nil {
		return nil
	}
	return fiber.Map{
		"id":      u.ID,
		"name":    u.Name,
		"surname": u.Surname,
		"email":   u.Email,
	}
}

// reportJSON shapes a report for API responses: author reduced to a
// summary, votes collapsed to a total.
func reportJSON(r *models.Report) fiber.Map {
	m := fiber.Map{
		"id":                r.ID,
		"title":             r.Title,
		"description":       r.Description,
		"address":           r.Address,
		"lat":               r.Lat,
		"lng":               r.Lng,
		"images":            r.Images,
		"lane_position":     r.LanePosition,
		"status":            r.Status,
		"moderation_status": r.ModerationStatus,
		"reported_at":       r.ReportedAt,
		"total_votes":       r.VoteCount(),
		"view_count":        r.ViewCount,
		"user":              userSummary(r.User),
		"created_at":        r.CreatedAt,
		"updated_at":        r.UpdatedAt,
	}
	if r.RejectionReason != "" {
		m["rejection_reason"] = r.RejectionReason
	}
	if r.ResolvedAt != nil {
		m["resolved_at"] = r.ResolvedAt
	}
	if r.ResolutionDays != nil {
		m["resolution_days"] = *r.ResolutionDays
	}
	if r.PhotoTakenAt != nil {
		m["photo_taken_at"] = r.PhotoTakenAt
	}
	return m
}

// commentJSON shapes a comment with its author summary.
func commentJSON(cm *models.Comment) fiber.Map {
	return fiber.Map{
		"id":         cm.ID,
		"content":    cm.Content,
		"report_id":  cm.ReportID,
		"user":       userSummary(cm.User),
		"created_at": cm.CreatedAt,
	}
}
