package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/worklens/worklens/server/config"
	"github.com/worklens/worklens/server/database"
	"github.com/worklens/worklens/server/session"
	"github.com/worklens/worklens/zapctx"
)

var (
	logger      *zap.Logger
	cfg         *config.Config
	db          *database.Database
	store       *database.Store
	appLocation *time.Location
	liveCache   *LiveStatusCache
)

func main() {
	var err error

	logger, err = zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to init logger")
	}
	defer logger.Sync()

	cfg, err = config.Load("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	appLocation, err = time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		logger.Fatal("Failed to load timezone", zap.Error(err), zap.String("timezone", cfg.Server.Timezone))
	}

	ctx := zapctx.WithLogger(context.Background(), logger)

	db, err = database.New(
		cfg.ClickHouse.Host,
		cfg.ClickHouse.Port,
		cfg.ClickHouse.Database,
		cfg.ClickHouse.Username,
		cfg.ClickHouse.Password,
	)
	if err != nil {
		logger.Fatal("Failed to connect to ClickHouse", zap.Error(err))
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure interval schema", zap.Error(err))
	}

	logger.Info("Connecting to Postgres", zap.String("dsn", cfg.Postgres.DSNForLog()))
	store, err = database.NewStore(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer store.Close()

	liveCache = NewLiveStatusCache(10 * time.Second)

	if cfg.Server.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), loggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := router.Group("/api", identityMiddleware())
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("/start", startSessionHandler)
			sessions.PUT("/:id/pause", transitionSessionHandler(session.EventPause))
			sessions.PUT("/:id/resume", transitionSessionHandler(session.EventResume))
			sessions.PUT("/:id/end", transitionSessionHandler(session.EventEnd))
			sessions.GET("/active", getActiveSessionHandler)
			sessions.GET("/live-status", requireAdmin(), liveStatusHandler)
			sessions.GET("", listSessionsHandler)
		}

		activity := api.Group("/activity")
		{
			activity.POST("", ingestActivityHandler)
			activity.GET("/timeline", timelineHandler)
			activity.GET("/usage", usageHandler)
			activity.GET("/productivity", productivityHandler)
		}

		claims := api.Group("/claims")
		{
			claims.POST("", createClaimHandler)
			claims.GET("", listClaimsHandler)
			claims.PUT("/:id/approve", requireAdmin(), approveClaimHandler)
			claims.PUT("/:id/reject", requireAdmin(), rejectClaimHandler)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/summary", requireAdmin(), companySummaryHandler)
			reports.GET("/my-summary", mySummaryHandler)
			reports.GET("/users", requireAdmin(), userReportHandler)
			reports.GET("/attendance", attendanceHandler)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func healthHandler(c *gin.Context) {
	ctx := c.Request.Context()
	if err := db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "clickhouse": err.Error()})
		return
	}
	if err := store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
