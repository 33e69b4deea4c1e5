package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/worklens/server/session"
	"github.com/worklens/worklens/zapctx"
)

// ========== Session Lifecycle Handlers ==========

type sessionResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user_id"`
	CompanyID string          `json:"company_id"`
	DeviceID  string          `json:"device_id"`
	StartTime time.Time       `json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`
	Status    session.Status  `json:"status"`
	Events    []session.Event `json:"events"`
	Summary   session.Summary `json:"summary"`
}

func viewSession(s *session.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		CompanyID: s.CompanyID,
		DeviceID:  s.DeviceID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    s.Status,
		Events:    s.Events,
		Summary:   s.Summarize(time.Now()),
	}
}

func startSessionHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	var req struct {
		DeviceID  string     `json:"device_id" binding:"required"`
		Timestamp *time.Time `json:"timestamp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		zapctx.Warn(ctx, "Invalid start session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	s, created, err := store.StartSession(ctx, ident.UserID, ident.CompanyID, req.DeviceID, ts)
	if err != nil {
		respondStoreError(c, err, "Failed to start session")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		zapctx.Info(ctx, "Session started",
			zap.String("session_id", s.ID.String()),
			zap.String("user_id", ident.UserID),
			zap.String("device_id", req.DeviceID),
		)
	}
	c.JSON(status, gin.H{"session_id": s.ID, "created": created, "session": viewSession(s)})
}

func transitionSessionHandler(ev session.EventType) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ident := identityFrom(c)

		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
			return
		}

		s, err := store.Transition(ctx, id, ident.UserID, ident.CompanyID, ev, time.Now())
		if err != nil {
			respondStoreError(c, err, "Failed to update session")
			return
		}

		zapctx.Info(ctx, "Session transition",
			zap.String("session_id", id.String()),
			zap.String("event", string(ev)),
			zap.String("status", string(s.Status)),
		)
		c.JSON(http.StatusOK, viewSession(s))
	}
}

func getActiveSessionHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	s, err := store.RunningSession(ctx, ident.UserID, ident.CompanyID)
	if err != nil {
		respondStoreError(c, err, "Failed to get active session")
		return
	}
	c.JSON(http.StatusOK, viewSession(s))
}

func listSessionsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	userID := c.Query("user_id")
	if userID == "" {
		userID = ident.UserID
	}
	if userID != ident.UserID && !ident.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin role required for other users"})
		return
	}

	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, appLocation)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, use YYYY-MM-DD"})
			return
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, appLocation)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, use YYYY-MM-DD"})
			return
		}
		end := t.AddDate(0, 0, 1)
		to = &end
	}

	sessions, err := store.ListSessions(ctx, ident.CompanyID, userID, from, to)
	if err != nil {
		respondStoreError(c, err, "Failed to list sessions")
		return
	}

	views := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		views = append(views, viewSession(&sessions[i]))
	}
	c.JSON(http.StatusOK, views)
}

// ========== Live Status (admin) ==========

// LiveSession joins a running session with its most recent observation.
// Idle and LastSeen are nil when the session has no observations yet.
type LiveSession struct {
	SessionID uuid.UUID      `json:"session_id"`
	UserID    string         `json:"user_id"`
	DeviceID  string         `json:"device_id"`
	Status    session.Status `json:"status"`
	StartTime time.Time      `json:"start_time"`
	Idle      *bool          `json:"idle,omitempty"`
	LastSeen  *time.Time     `json:"last_seen,omitempty"`
}

func liveStatusHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	rows, err := liveCache.Get(ctx, ident.CompanyID, func(ctx context.Context) ([]LiveSession, error) {
		return fetchLiveStatus(ctx, ident.CompanyID)
	})
	if err != nil {
		respondStoreError(c, err, "Failed to get live status")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func fetchLiveStatus(ctx context.Context, companyID string) ([]LiveSession, error) {
	sessions, err := store.RunningSessions(ctx, companyID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID.String())
	}
	presences, err := db.SessionPresences(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]LiveSession, 0, len(sessions))
	for _, s := range sessions {
		row := LiveSession{
			SessionID: s.ID,
			UserID:    s.UserID,
			DeviceID:  s.DeviceID,
			Status:    s.Status,
			StartTime: s.StartTime,
		}
		if p, ok := presences[s.ID.String()]; ok {
			idle := p.Idle
			lastSeen := p.LastSeen
			row.Idle = &idle
			row.LastSeen = &lastSeen
		}
		rows = append(rows, row)
	}
	return rows, nil
}
