package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bachesrosario/baches-api/app/models"
	"github.com/bachesrosario/baches-api/internal/pkg/usercontext"
)

// pngHead returns the PNG file signature, enough for content sniffing
// to accept the upload.
func pngHead() []byte {
	return []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
}

func multipartBody(t *testing.T, fields map[string]string, imageCount int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for i := 0; i < imageCount; i++ {
		fw, err := w.CreateFormFile("images", fmt.Sprintf("photo%d.png", i))
		require.NoError(t, err)
		_, err = fw.Write(pngHead())
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func reportFields() map[string]string {
	return map[string]string{
		"title":         "Deep pothole on Pellegrini",
		"description":   "Half a meter wide, right before the crossing",
		"address":       "Av. Pellegrini 1200",
		"lat":           "-32.9520",
		"lng":           "-60.6430",
		"lane_position": "right",
	}
}

func approvedReport(id, ownerID uint) *models.Report {
	return &models.Report{
		ID:               id,
		Title:            "Pothole near the school",
		Description:      "Grows every time it rains",
		Address:          "Mendoza 4500",
		Lat:              -32.94,
		Lng:              -60.65,
		LanePosition:     models.LaneCenter,
		Status:           models.StatusReported,
		ModerationStatus: models.ModerationApproved,
		ReportedAt:       time.Now().Add(-48 * time.Hour),
		UserID:           ownerID,
	}
}

func pendingReport(id, ownerID uint) *models.Report {
	r := approvedReport(id, ownerID)
	r.ModerationStatus = models.ModerationPending
	return r
}

func TestHandleCreateReportRequiresTwoImages(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())
	installFakes(t, newFakeUserRepo(), newFakeReportRepo(), newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	app.Post("/api/reports", HandleCreateReport)

	body, contentType := multipartBody(t, reportFields(), 1)
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeJSON(t, resp)
	assert.Contains(t, payload["message"], "minimum of 2 images")
}

func TestHandleCreateReportValidatesBeforeStoringImages(t *testing.T) {
	uploadDir := t.TempDir()
	t.Setenv("UPLOAD_DIR", uploadDir)
	installFakes(t, newFakeUserRepo(), newFakeReportRepo(), newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	app.Post("/api/reports", HandleCreateReport)

	fields := reportFields()
	fields["title"] = ""
	body, contentType := multipartBody(t, fields, 2)
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "a rejected report must not leave files on disk")
}

func TestHandleCreateReportStartsPending(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())
	reports := newFakeReportRepo()
	installFakes(t, newFakeUserRepo(), reports, newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	app.Post("/api/reports", HandleCreateReport)

	body, contentType := multipartBody(t, reportFields(), 2)
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	payload := decodeJSON(t, resp)
	assert.Equal(t, models.StatusReported, payload["status"])
	assert.Equal(t, models.ModerationPending, payload["moderation_status"])
	assert.Len(t, payload["images"], 2)
}

func TestHandleVoteReportTogglePair(t *testing.T) {
	reports := newFakeReportRepo(approvedReport(1, 3))
	installFakes(t, newFakeUserRepo(), reports, newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 9, IsLoggedIn: true})
	app.Post("/api/reports/:id/vote", HandleVoteReport)

	vote := func() map[string]interface{} {
		req := httptest.NewRequest(http.MethodPost, "/api/reports/1/vote", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decodeJSON(t, resp)
	}

	first := vote()
	assert.Equal(t, true, first["voted"])
	assert.Equal(t, float64(1), first["total_votes"])

	second := vote()
	assert.Equal(t, false, second["voted"])
	assert.Equal(t, float64(0), second["total_votes"])
}

func TestHandleVoteReportHidesUnapprovedFromStrangers(t *testing.T) {
	reports := newFakeReportRepo(pendingReport(1, 3))
	installFakes(t, newFakeUserRepo(), reports, newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 9, IsLoggedIn: true})
	app.Post("/api/reports/:id/vote", HandleVoteReport)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/1/vote", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleVoteReportOwnerCanVoteOwnPending(t *testing.T) {
	reports := newFakeReportRepo(pendingReport(1, 3))
	installFakes(t, newFakeUserRepo(), reports, newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 3, IsLoggedIn: true})
	app.Post("/api/reports/:id/vote", HandleVoteReport)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/1/vote", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleCreateCommentHidesUnapprovedFromStrangers(t *testing.T) {
	reports := newFakeReportRepo(pendingReport(1, 3))
	installFakes(t, newFakeUserRepo(), reports, newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 9, IsLoggedIn: true})
	app.Post("/api/reports/:id/comments", HandleCreateComment)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/1/comments", strings.NewReader(`{"content":"Any update?"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleCreateCommentOwnerOnOwnPending(t *testing.T) {
	reports := newFakeReportRepo(pendingReport(1, 3))
	installFakes(t, newFakeUserRepo(), reports, newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 3, IsLoggedIn: true})
	app.Post("/api/reports/:id/comments", HandleCreateComment)

	req := httptest.NewRequest(http.MethodPost, "/api/reports/1/comments", strings.NewReader(`{"content":"Adding more photos soon"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	payload := decodeJSON(t, resp)
	assert.Equal(t, "Adding more photos soon", payload["content"])
}

func TestHandleUpdateStatusOwnerNeedsEvidence(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())
	reports := newFakeReportRepo(approvedReport(1, 3))
	installFakes(t, newFakeUserRepo(), reports, newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 3, IsLoggedIn: true})
	app.Patch("/api/reports/:id/status", HandleUpdateStatus)

	body, contentType := multipartBody(t, map[string]string{"status": models.StatusResolved}, 0)
	req := httptest.NewRequest(http.MethodPatch, "/api/reports/1/status", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.StatusReported, reports.reports[1].Status)
}

func TestHandleUpdateStatusOwnerWithEvidenceResolves(t *testing.T) {
	t.Setenv("UPLOAD_DIR", t.TempDir())
	report := approvedReport(1, 3)
	report.ReportedAt = time.Now().Add(-25 * time.Hour)
	reports := newFakeReportRepo(report)
	installFakes(t, newFakeUserRepo(), reports, newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 3, IsLoggedIn: true})
	app.Patch("/api/reports/:id/status", HandleUpdateStatus)

	body, contentType := multipartBody(t, map[string]string{"status": models.StatusResolved}, 1)
	req := httptest.NewRequest(http.MethodPatch, "/api/reports/1/status", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeJSON(t, resp)
	assert.Equal(t, models.StatusResolved, payload["status"])
	assert.Equal(t, float64(2), payload["resolution_days"])

	stored := reports.reports[1]
	require.NotNil(t, stored.ResolvedAt)
	assert.Len(t, stored.Images, 1)
}

func TestHandleUpdateStatusAdminWithoutEvidence(t *testing.T) {
	reports := newFakeReportRepo(approvedReport(1, 3))
	installFakes(t, newFakeUserRepo(), reports, newFakeCommentRepo())

	app := testApp(usercontext.UserContext{UserID: 50, IsLoggedIn: true, IsAdmin: true})
	app.Patch("/api/reports/:id/status", HandleUpdateStatus)

	req := httptest.NewRequest(http.MethodPatch, "/api/reports/1/status", strings.NewReader(`{"status":"in_progress"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusInProgress, reports.reports[1].Status)
}
