package controllers

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/bachesrosario/baches-api/app/models"
	"github.com/bachesrosario/baches-api/app/repository"
	"github.com/bachesrosario/baches-api/internal/pkg/broadcast"
	"github.com/bachesrosario/baches-api/internal/pkg/metrics/counter"
	"github.com/bachesrosario/baches-api/internal/pkg/upload"
	"github.com/bachesrosario/baches-api/internal/pkg/usercontext"
)

// MinImagesAtCreation is the evidence floor for a new report.
const MinImagesAtCreation = 2

// HandleListReports returns the public report listing: approved records
// only, newest first, optionally narrowed by status and by an
// approximate radius (km) around a center point.
func HandleListReports(c *fiber.Ctx) error {
	filter := repository.PublicReportFilter{}

	if status := c.Query("status"); status != "" {
		if !models.IsValidStatus(status) {
			return validationError(c, "Invalid status filter")
		}
		filter.Status = status
	}

	latStr, lngStr, radiusStr := c.Query("lat"), c.Query("lng"), c.Query("radius")
	if latStr != "" && lngStr != "" && radiusStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		radius, errRadius := strconv.ParseFloat(radiusStr, 64)
		if errLat != nil || errLng != nil || errRadius != nil || radius < 0 {
			return validationError(c, "Invalid geographic filter")
		}
		filter.Lat, filter.Lng, filter.RadiusKm = &lat, &lng, &radius
	}

	repo := repository.GetGlobalFactory().GetReportRepository()
	reports, err := repo.ListPublic(filter)
	if err != nil {
		return internalError(c, err)
	}

	out := make([]fiber.Map, 0, len(reports))
	for i := range reports {
		out = append(out, reportJSON(&reports[i]))
	}
	return c.JSON(out)
}

// HandleGetReport returns a single report. Reports that are not
// publicly visible answer 404 to everyone but their owner and admins,
// so their existence does not leak.
func HandleGetReport(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return validationError(c, "Invalid report id")
	}

	repo := repository.GetGlobalFactory().GetReportRepository()
	report, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Report not found")
		}
		return internalError(c, err)
	}

	if !report.IsPublic() {
		uc := usercontext.GetUserContext(c)
		if !uc.IsAdmin && uc.UserID != report.UserID {
			return notFound(c, "Report not found")
		}
	}

	// View counting is best-effort; a cache hiccup must not fail the read.
	_ = counter.AddReportView(report.ID)

	return c.JSON(reportJSON(report))
}

// HandleCreateReport creates a report from a multipart form. At least
// two valid images are required; the record starts pending moderation
// and is not broadcast until approved.
func HandleCreateReport(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return validationError(c, "Expected multipart form data")
	}

	lat, errLat := strconv.ParseFloat(c.FormValue("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.FormValue("lng"), 64)
	if errLat != nil || errLng != nil {
		return validationError(c, "Invalid coordinates")
	}

	lane := c.FormValue("lane_position")
	if !models.IsValidLanePosition(lane) {
		return validationError(c, "Invalid lane position")
	}

	files := form.File["images"]
	if len(files) < MinImagesAtCreation {
		return validationError(c, "A minimum of 2 images is required")
	}

	report := &models.Report{
		Title:        strings.TrimSpace(c.FormValue("title")),
		Description:  strings.TrimSpace(c.FormValue("description")),
		Address:      strings.TrimSpace(c.FormValue("address")),
		Lat:          lat,
		Lng:          lng,
		LanePosition: lane,
		Status:       models.StatusReported,
		ReportedAt:   time.Now(),
		UserID:       usercontext.GetUserID(c),
	}

	// Field validation comes first so a rejected report leaves no
	// orphaned files on disk.
	if err := report.Validate(); err != nil {
		return validationError(c, err.Error())
	}

	paths, err := upload.SaveImages(files)
	if err != nil {
		return validationError(c, err.Error())
	}
	report.Images = models.StringList(paths)
	report.PhotoTakenAt = upload.ExtractTakenAt(localPath(paths[0]))

	repo := repository.GetGlobalFactory().GetReportRepository()
	if err := repo.Create(report); err != nil {
		return internalError(c, err)
	}

	created, err := repo.GetByID(report.ID)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(reportJSON(created))
}

// HandleUpdateReport edits report fields and appends images. Only the
// owner or an admin may update.
func HandleUpdateReport(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return validationError(c, "Invalid report id")
	}

	repo := repository.GetGlobalFactory().GetReportRepository()
	report, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Report not found")
		}
		return internalError(c, err)
	}

	uc := usercontext.GetUserContext(c)
	if uc.UserID != report.UserID && !uc.IsAdmin {
		return forbidden(c, "You are not allowed to update this report")
	}

	if title := strings.TrimSpace(c.FormValue("title")); title != "" {
		report.Title = title
	}
	if description := strings.TrimSpace(c.FormValue("description")); description != "" {
		report.Description = description
	}
	if address := strings.TrimSpace(c.FormValue("address")); address != "" {
		report.Address = address
	}
	if latStr, lngStr := c.FormValue("lat"), c.FormValue("lng"); latStr != "" && lngStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lng, errLng := strconv.ParseFloat(lngStr, 64)
		if errLat != nil || errLng != nil {
			return validationError(c, "Invalid coordinates")
		}
		report.Lat, report.Lng = lat, lng
	}
	if lane := c.FormValue("lane_position"); lane != "" {
		if !models.IsValidLanePosition(lane) {
			return validationError(c, "Invalid lane position")
		}
		report.LanePosition = lane
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if files := form.File["images"]; len(files) > 0 {
			paths, err := upload.SaveImages(files)
			if err != nil {
				return validationError(c, err.Error())
			}
			report.Images = append(report.Images, paths...)
		}
	}

	if err := report.Validate(); err != nil {
		return validationError(c, err.Error())
	}
	if err := repo.Update(report); err != nil {
		return internalError(c, err)
	}

	return c.JSON(reportJSON(report))
}

// HandleUpdateStatus moves a report through its repair lifecycle.
// Admins may set any status; the owning user must attach at least one
// new evidence image in the same request. The first transition into
// resolved stamps the resolution time and elapsed days, and the change
// is broadcast to connected clients.
func HandleUpdateStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return validationError(c, "Invalid report id")
	}

	status := c.FormValue("status")
	if status == "" {
		// JSON fallback for admin dashboards that do not attach images.
		var body struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&body); err == nil {
			status = body.Status
		}
	}
	if !models.IsValidStatus(status) {
		return validationError(c, "Invalid status")
	}

	repo := repository.GetGlobalFactory().GetReportRepository()
	report, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Report not found")
		}
		return internalError(c, err)
	}

	uc := usercontext.GetUserContext(c)

	var evidence []string
	if !uc.IsAdmin {
		if uc.UserID != report.UserID {
			return forbidden(c, "You are not allowed to change this report's status")
		}
		form, err := c.MultipartForm()
		if err != nil || len(form.File["images"]) == 0 {
			return forbidden(c, "Attach at least one evidence image to change the status")
		}
		evidence, err = upload.SaveImages(form.File["images"])
		if err != nil {
			return validationError(c, err.Error())
		}
	} else if form, err := c.MultipartForm(); err == nil && form != nil {
		if files := form.File["images"]; len(files) > 0 {
			evidence, err = upload.SaveImages(files)
			if err != nil {
				return validationError(c, err.Error())
			}
		}
	}

	report.Images = append(report.Images, evidence...)
	report.SetStatus(status, time.Now())

	if err := repo.Update(report); err != nil {
		return internalError(c, err)
	}

	payload := fiber.Map{
		"id":     report.ID,
		"status": report.Status,
	}
	if report.ResolutionDays != nil {
		payload["resolution_days"] = *report.ResolutionDays
	}
	broadcast.Default().Publish(broadcast.EventReportUpdated, payload)

	return c.JSON(reportJSON(report))
}

// HandleVoteReport toggles the requesting user's vote on a report and
// returns the new membership state with the total.
func HandleVoteReport(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return validationError(c, "Invalid report id")
	}

	repo := repository.GetGlobalFactory().GetReportRepository()
	report, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Report not found")
		}
		return internalError(c, err)
	}

	if !report.IsPublic() {
		uc := usercontext.GetUserContext(c)
		if !uc.IsAdmin && uc.UserID != report.UserID {
			return notFound(c, "Report not found")
		}
	}

	voted, total, err := repo.ToggleVote(report.ID, usercontext.GetUserID(c))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"voted":       voted,
		"total_votes": total,
	})
}

// localPath maps a public /uploads path back to the file on disk.
func localPath(publicPath string) string {
	return filepath.Join(upload.Dir(), strings.TrimPrefix(publicPath, "/uploads/"))
}
