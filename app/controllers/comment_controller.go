package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
	"github.com/bachesrosario/baches-api/app/repository"
	"github.com/bachesrosario/baches-api/internal/pkg/broadcast"
	"github.com/bachesrosario/baches-api/internal/pkg/usercontext"
)

// HandleListComments returns a report's comments, newest first.
func HandleListComments(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return validationError(c, "Invalid report id")
	}

	repo := repository.GetGlobalFactory().GetCommentRepository()
	comments, err := repo.ListByReport(id)
	if err != nil {
		return internalError(c, err)
	}

	out := make([]fiber.Map, 0, len(comments))
	for i := range comments {
		out = append(out, commentJSON(&comments[i]))
	}
	return c.JSON(out)
}

// HandleCreateComment adds a comment to an existing report and
// broadcasts it to connected clients.
func HandleCreateComment(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return validationError(c, "Invalid report id")
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "Malformed request body")
	}

	reportRepo := repository.GetGlobalFactory().GetReportRepository()
	report, err := reportRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Report not found")
		}
		return internalError(c, err)
	}

	// Unapproved reports answer 404 to everyone but their owner and
	// admins, same as the detail view.
	if !report.IsPublic() {
		uc := usercontext.GetUserContext(c)
		if !uc.IsAdmin && uc.UserID != report.UserID {
			return notFound(c, "Report not found")
		}
	}

	comment := &models.Comment{
		Content:  strings.TrimSpace(body.Content),
		UserID:   usercontext.GetUserID(c),
		ReportID: id,
	}
	if err := comment.Validate(); err != nil {
		return validationError(c, err.Error())
	}

	repo := repository.GetGlobalFactory().GetCommentRepository()
	if err := repo.Create(comment); err != nil {
		return internalError(c, err)
	}

	if author, err := repository.GetGlobalFactory().GetUserRepository().GetByID(comment.UserID); err == nil {
		comment.User = author
	}

	broadcast.Default().Publish(broadcast.EventNewComment, fiber.Map{
		"report_id": id,
		"comment":   commentJSON(comment),
	})

	return c.Status(fiber.StatusCreated).JSON(commentJSON(comment))
}
