package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/worklens/server/database"
	"github.com/worklens/worklens/server/overlay"
	"github.com/worklens/worklens/server/timeline"
	"github.com/worklens/worklens/zapctx"
)

// ========== Activity Ingest ==========

type intervalLog struct {
	Timestamp      time.Time             `json:"timestamp" binding:"required"`
	IntervalStart  time.Time             `json:"interval_start" binding:"required"`
	IntervalEnd    time.Time             `json:"interval_end" binding:"required"`
	KeyboardEvents uint32                `json:"keyboard_events"`
	MouseEvents    uint32                `json:"mouse_events"`
	MouseDistance  float64               `json:"mouse_distance"`
	ActivityScore  float64               `json:"activity_score"`
	Idle           bool                  `json:"idle"`
	ActiveWindow   database.ActiveWindow `json:"active_window"`
}

type ingestRequest struct {
	SessionID string        `json:"session_id" binding:"required"`
	Logs      []intervalLog `json:"logs" binding:"required,min=1"`
}

// ingestActivityHandler persists one agent batch. Validation covers the whole
// batch before anything is written, so a bad entry rejects it atomically.
// Retried batches after an ambiguous network failure are not deduplicated and
// double-count.
func ingestActivityHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zapctx.Warn(ctx, "Invalid activity batch", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	for i, entry := range req.Logs {
		if entry.ActivityScore < 0 || entry.ActivityScore > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "activity_score out of range", "index": i})
			return
		}
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	s, err := store.GetSession(ctx, sessionID)
	if err != nil {
		respondStoreError(c, err, "Failed to load session")
		return
	}
	if !s.OwnedBy(ident.UserID, ident.CompanyID) {
		respondStoreError(c, database.ErrOwnership, "")
		return
	}

	intervals := make([]database.ActivityInterval, len(req.Logs))
	for i, entry := range req.Logs {
		iv := database.ActivityInterval{
			UserID:         s.UserID,
			CompanyID:      s.CompanyID,
			SessionID:      s.ID.String(),
			Timestamp:      entry.Timestamp,
			IntervalStart:  entry.IntervalStart,
			IntervalEnd:    entry.IntervalEnd,
			KeyboardEvents: entry.KeyboardEvents,
			MouseEvents:    entry.MouseEvents,
			MouseDistance:  entry.MouseDistance,
			ActivityScore:  entry.ActivityScore,
			Idle:           entry.Idle,
			Window:         entry.ActiveWindow,
		}
		iv.Duration = iv.ClampedDuration()
		intervals[i] = iv
	}

	if err := db.InsertIntervalBatch(ctx, intervals); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save activity"})
		return
	}

	if err := store.ApplyBatchSummary(ctx, s.ID, ident.UserID, ident.CompanyID, database.SummarizeBatch(intervals)); err != nil {
		respondStoreError(c, err, "Failed to update session summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "count": len(intervals)})
}

// ========== Activity Queries ==========

// resolveUserFilter applies the ownership contract for read queries: an
// employee sees themselves, an admin may name any user (or, where allowed,
// no one for tenant-wide results).
func resolveUserFilter(c *gin.Context, requested string, allowAll bool) (string, bool) {
	ident := identityFrom(c)
	if requested == "" {
		if allowAll && ident.IsAdmin() {
			return "", true
		}
		return ident.UserID, true
	}
	if requested != ident.UserID && !ident.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin role required for other users"})
		return "", false
	}
	return requested, true
}

// overlaidIntervals fetches one user's observations for [from, to) with
// approved time claims already applied.
func overlaidIntervals(c *gin.Context, userID string, from, to time.Time) ([]database.ActivityInterval, error) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	intervals, err := db.IntervalsByUser(ctx, ident.CompanyID, userID, from, to)
	if err != nil {
		return nil, err
	}
	claims, err := store.ApprovedClaims(ctx, ident.CompanyID, userID, from, to.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	return overlay.Apply(intervals, claims, appLocation), nil
}

func timelineHandler(c *gin.Context) {
	userID, ok := resolveUserFilter(c, c.Query("user_id"), false)
	if !ok {
		return
	}

	from, to, err := dateRange(c.Query("start_date"), c.Query("end_date"), appLocation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intervals, err := overlaidIntervals(c, userID, from, to)
	if err != nil {
		respondStoreError(c, err, "Failed to build timeline")
		return
	}

	type dayTimeline struct {
		UserID   string             `json:"user_id"`
		Date     string             `json:"date"`
		Segments []timeline.Segment `json:"segments"`
	}

	days := timeline.SplitByUserDay(intervals, appLocation)
	out := make([]dayTimeline, 0, len(days))
	for _, day := range days {
		out = append(out, dayTimeline{
			UserID:   day.UserID,
			Date:     day.Date,
			Segments: timeline.Reconstruct(day.Intervals),
		})
	}
	c.JSON(http.StatusOK, out)
}

func usageHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	userID, ok := resolveUserFilter(c, c.Query("userId"), true)
	if !ok {
		return
	}

	period := c.Query("period")
	from, to, err := periodRange(period, time.Now(), appLocation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apps, err := db.AppUsageReport(ctx, ident.CompanyID, userID, from, to)
	if err != nil {
		respondStoreError(c, err, "Failed to get usage report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "apps": apps})
}

func productivityHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	userID, ok := resolveUserFilter(c, c.Query("userId"), true)
	if !ok {
		return
	}

	period := c.Query("period")
	from, to, err := periodRange(period, time.Now(), appLocation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	categories, err := db.CategoryUsageReport(ctx, ident.CompanyID, userID, from, to)
	if err != nil {
		respondStoreError(c, err, "Failed to get productivity report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "categories": categories})
}
