package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolutionDaysRoundsUp(t *testing.T) {
	t.Parallel()

	reported := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	// One hour later is still a one-day fix.
	assert.Equal(t, 1, ResolutionDays(reported, reported.Add(time.Hour)))

	// Exactly 24 hours stays at one day.
	assert.Equal(t, 1, ResolutionDays(reported, reported.Add(24*time.Hour)))

	// A minute past the day boundary rounds up to two.
	assert.Equal(t, 2, ResolutionDays(reported, reported.Add(24*time.Hour+time.Minute)))

	assert.Equal(t, 10, ResolutionDays(reported, reported.Add(10*24*time.Hour)))
}

func TestResolutionDaysNonPositive(t *testing.T) {
	t.Parallel()

	reported := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ResolutionDays(reported, reported))
	assert.Equal(t, 0, ResolutionDays(reported, reported.Add(-time.Hour)))
}

func TestSetStatusStampsFirstResolutionOnly(t *testing.T) {
	t.Parallel()

	reported := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &Report{Status: StatusInProgress, ReportedAt: reported}

	first := reported.Add(49 * time.Hour)
	r.SetStatus(StatusResolved, first)

	require.NotNil(t, r.ResolvedAt)
	require.NotNil(t, r.ResolutionDays)
	assert.Equal(t, first, *r.ResolvedAt)
	assert.Equal(t, 3, *r.ResolutionDays)

	// Re-entering resolved must not move the stamps.
	r.SetStatus(StatusResolved, first.Add(72*time.Hour))
	assert.Equal(t, first, *r.ResolvedAt)
	assert.Equal(t, 3, *r.ResolutionDays)
}

func TestSetStatusLeavesResolutionWhenReopened(t *testing.T) {
	t.Parallel()

	reported := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &Report{Status: StatusReported, ReportedAt: reported}

	r.SetStatus(StatusResolved, reported.Add(time.Hour))
	require.NotNil(t, r.ResolvedAt)

	r.SetStatus(StatusInProgress, reported.Add(2*time.Hour))
	assert.Equal(t, StatusInProgress, r.Status)
	// The original resolution record survives a reopen.
	assert.NotNil(t, r.ResolvedAt)
}

func TestIsPublic(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Report{ModerationStatus: ModerationApproved}).IsPublic())
	assert.False(t, (&Report{ModerationStatus: ModerationPending}).IsPublic())
	assert.False(t, (&Report{ModerationStatus: ModerationRejected}).IsPublic())

	// Rows written before moderation existed count as approved.
	assert.True(t, (&Report{ModerationStatus: ""}).IsPublic())
}

func TestStatusValidators(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidStatus(StatusReported))
	assert.True(t, IsValidStatus(StatusInProgress))
	assert.True(t, IsValidStatus(StatusResolved))
	assert.False(t, IsValidStatus("fixed"))
	assert.False(t, IsValidStatus(""))

	assert.True(t, IsValidLanePosition(LaneCenter))
	assert.False(t, IsValidLanePosition("middle"))

	assert.True(t, IsValidModerationStatus(ModerationPending))
	assert.False(t, IsValidModerationStatus("waiting"))
}

func TestStringListRoundTrip(t *testing.T) {
	t.Parallel()

	value, err := StringList{"/uploads/a.jpg", "/uploads/b.jpg"}.Value()
	require.NoError(t, err)

	var scanned StringList
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, StringList{"/uploads/a.jpg", "/uploads/b.jpg"}, scanned)

	var fromNil StringList
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)
}

func TestReportValidate(t *testing.T) {
	t.Parallel()

	r := &Report{
		Title:        "Deep pothole on Mitre",
		Description:  "Large pothole near the intersection",
		Address:      "Mitre 782",
		Lat:          -32.9442,
		Lng:          -60.6505,
		LanePosition: LaneRight,
		Status:       StatusReported,
		UserID:       1,
	}
	assert.NoError(t, r.Validate())

	r.LanePosition = "sidewalk"
	assert.Error(t, r.Validate())
}
