package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worklens/worklens/server/database"
	"github.com/worklens/worklens/server/overlay"
	"github.com/worklens/worklens/server/timeline"
)

// ========== Report Handlers ==========

const topAppsInSummary = 5

func companySummaryHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	period := c.Query("period")
	from, to, err := periodRange(period, time.Now(), appLocation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	totals, err := db.ActivityTotals(ctx, ident.CompanyID, "", from, to)
	if err != nil {
		respondStoreError(c, err, "Failed to get summary")
		return
	}

	apps, err := db.AppUsageReport(ctx, ident.CompanyID, "", from, to)
	if err != nil {
		respondStoreError(c, err, "Failed to get summary")
		return
	}
	if len(apps) > topAppsInSummary {
		apps = apps[:topAppsInSummary]
	}

	c.JSON(http.StatusOK, gin.H{"period": period, "totals": totals, "top_apps": apps})
}

func mySummaryHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	period := c.Query("period")
	from, to, err := periodRange(period, time.Now(), appLocation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	totals, err := db.ActivityTotals(ctx, ident.CompanyID, ident.UserID, from, to)
	if err != nil {
		respondStoreError(c, err, "Failed to get summary")
		return
	}

	out := gin.H{"period": period, "totals": totals}
	if s, err := store.RunningSession(ctx, ident.UserID, ident.CompanyID); err == nil {
		out["session"] = viewSession(s)
	}
	c.JSON(http.StatusOK, out)
}

func userReportHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	period := c.Query("period")
	from, to, err := periodRange(period, time.Now(), appLocation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	users, err := db.UserActivityRows(ctx, ident.CompanyID, from, to)
	if err != nil {
		respondStoreError(c, err, "Failed to get user report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "users": users})
}

// attendanceHandler builds per-day attendance rows. Full segment
// reconstruction is opt-in via detailed=true since it is the most
// expensive path.
func attendanceHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	userID, ok := resolveUserFilter(c, c.Query("userId"), true)
	if !ok {
		return
	}

	from, to, err := dateRange(c.Query("startDate"), c.Query("endDate"), appLocation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	detailed := c.Query("detailed") == "true"

	var intervals []database.ActivityInterval
	if userID != "" {
		intervals, err = db.IntervalsByUser(ctx, ident.CompanyID, userID, from, to)
	} else {
		intervals, err = db.IntervalsByCompany(ctx, ident.CompanyID, from, to)
	}
	if err != nil {
		respondStoreError(c, err, "Failed to get attendance")
		return
	}

	// Claims are per user; fetch each user's approved set once and apply
	// the overlay per user-day bucket.
	days := timeline.SplitByUserDay(intervals, appLocation)
	claimsByUser := make(map[string][]database.TimeClaim)
	for i := range days {
		claims, ok := claimsByUser[days[i].UserID]
		if !ok {
			claims, err = store.ApprovedClaims(ctx, ident.CompanyID, days[i].UserID, from, to.AddDate(0, 0, -1))
			if err != nil {
				respondStoreError(c, err, "Failed to get attendance")
				return
			}
			claimsByUser[days[i].UserID] = claims
		}
		days[i].Intervals = overlay.Apply(days[i].Intervals, claims, appLocation)
	}

	if detailed {
		type detailedRow struct {
			UserID   string             `json:"user_id"`
			Date     string             `json:"date"`
			Segments []timeline.Segment `json:"segments"`
		}
		rows := make([]detailedRow, 0, len(days))
		for _, day := range days {
			rows = append(rows, detailedRow{
				UserID:   day.UserID,
				Date:     day.Date,
				Segments: timeline.Reconstruct(day.Intervals),
			})
		}
		c.JSON(http.StatusOK, rows)
		return
	}

	rows := make([]timeline.DaySummary, 0, len(days))
	for _, day := range days {
		rows = append(rows, timeline.Summarize(day))
	}
	c.JSON(http.StatusOK, rows)
}
