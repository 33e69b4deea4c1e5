package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/worklens/server/database"
	"github.com/worklens/worklens/zapctx"
)

// ========== Time Claim Handlers ==========

func createClaimHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	var req struct {
		Date      string `json:"date" binding:"required"`
		StartTime string `json:"start_time" binding:"required"`
		EndTime   string `json:"end_time" binding:"required"`
		Type      string `json:"type" binding:"required"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		zapctx.Warn(ctx, "Invalid claim request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, appLocation)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, use YYYY-MM-DD"})
		return
	}

	claim := &database.TimeClaim{
		UserID:    ident.UserID,
		CompanyID: ident.CompanyID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Type:      database.ClaimType(req.Type),
		Reason:    req.Reason,
	}
	if err := store.CreateClaim(ctx, claim); err != nil {
		respondStoreError(c, err, "Failed to create claim")
		return
	}

	zapctx.Info(ctx, "Time claim submitted",
		zap.String("claim_id", claim.ID.String()),
		zap.String("user_id", ident.UserID),
		zap.String("date", req.Date),
	)
	c.JSON(http.StatusCreated, claim)
}

func listClaimsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	userID, ok := resolveUserFilter(c, c.Query("user_id"), true)
	if !ok {
		return
	}

	claims, err := store.ListClaims(ctx, ident.CompanyID, userID, database.ClaimStatus(c.Query("status")))
	if err != nil {
		respondStoreError(c, err, "Failed to list claims")
		return
	}
	c.JSON(http.StatusOK, claims)
}

func approveClaimHandler(c *gin.Context) {
	resolveClaimHandler(c, database.ClaimApproved, "")
}

func rejectClaimHandler(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
		return
	}
	resolveClaimHandler(c, database.ClaimRejected, req.Reason)
}

func resolveClaimHandler(c *gin.Context, status database.ClaimStatus, rejectionReason string) {
	ctx := c.Request.Context()
	ident := identityFrom(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid claim id"})
		return
	}

	claim, err := store.ResolveClaim(ctx, id, ident.CompanyID, status, rejectionReason)
	if err != nil {
		respondStoreError(c, err, "Failed to resolve claim")
		return
	}

	zapctx.Info(ctx, "Time claim resolved",
		zap.String("claim_id", id.String()),
		zap.String("status", string(status)),
		zap.String("resolved_by", ident.UserID),
	)
	c.JSON(http.StatusOK, claim)
}
