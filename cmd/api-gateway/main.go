package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sis-progress-api/api/swagger"
	"github.com/noah-isme/sis-progress-api/internal/handler"
	"github.com/noah-isme/sis-progress-api/internal/middleware"
	"github.com/noah-isme/sis-progress-api/internal/repository"
	"github.com/noah-isme/sis-progress-api/internal/service"
	"github.com/noah-isme/sis-progress-api/pkg/cache"
	"github.com/noah-isme/sis-progress-api/pkg/config"
	"github.com/noah-isme/sis-progress-api/pkg/database"
	"github.com/noah-isme/sis-progress-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sis-progress-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sis-progress-api/pkg/middleware/requestid"
)

// @title SIS Progress API
// @version 0.1.0
// @description Student progress analytics and risk-assessment pipeline
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Snapshot.CacheTTL, logr, redisClient != nil)

	activityRepo := repository.NewActivityRepository(db)
	weeklyRepo := repository.NewWeeklyRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	workingDaysSvc := service.NewWorkingDaysService(calendarRepo, cacheSvc, cfg.Calendar.ConfigCacheTTL, cfg.Calendar.WeekendDays, logr)

	validate := validator.New()
	weeklySvc := service.NewWeeklyService(weeklyRepo, activityRepo, workingDaysSvc, cacheSvc, validate, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var alertSink service.RiskAlertSink
	if cfg.Alerts.Enabled {
		alertSvc := service.NewAlertService(alertRepo, metricsSvc, cfg.Alerts.GuardWindow, cfg.Alerts.Workers, logr)
		alertSvc.Start(ctx)
		defer alertSvc.Stop()
		alertSink = alertSvc
	}

	snapshotSvc := service.NewSnapshotService(
		snapshotRepo,
		studentRepo,
		weeklyRepo,
		activityRepo,
		alertSink,
		cacheSvc,
		metricsSvc,
		service.SnapshotServiceConfig{
			WeeklyWindow:    cfg.Snapshot.WeeklyWindow,
			DailyWindowDays: cfg.Snapshot.DailyWindowDays,
			RecalcInterval:  cfg.Snapshot.RecalcInterval,
			CacheTTL:        cfg.Snapshot.CacheTTL,
		},
		logr,
	)

	batchSvc := service.NewBatchService(
		snapshotSvc,
		snapshotRepo,
		studentRepo,
		metricsSvc,
		service.BatchServiceConfig{
			DueBatchSize:  cfg.Batch.DueBatchSize,
			DuePause:      cfg.Batch.DuePause,
			DueLimit:      cfg.Batch.DueLimit,
			FullBatchSize: cfg.Batch.FullBatchSize,
			FullPause:     cfg.Batch.FullPause,
		},
		logr,
	)

	exportSvc := service.NewExportService(snapshotSvc, weeklySvc, logr)

	snapshotHandler := handler.NewSnapshotHandler(snapshotSvc)
	weeklyHandler := handler.NewWeeklyHandler(weeklySvc, exportSvc)
	batchHandler := handler.NewBatchHandler(batchSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/students/:id/snapshot", snapshotHandler.Get)
		api.POST("/students/:id/snapshot/recalculate", snapshotHandler.Recalculate)
		api.GET("/snapshots/attention", snapshotHandler.ListAttention)

		api.POST("/students/:id/weekly", weeklyHandler.Generate)
		api.GET("/students/:id/weekly", weeklyHandler.History)
		api.PATCH("/weekly/:id/commentary", weeklyHandler.UpdateCommentary)

		if cfg.Exports.Enabled {
			api.GET("/students/:id/report", weeklyHandler.Report)
		}

		jobs := api.Group("", middleware.JWT(cfg.JWT.Secret))
		{
			jobs.POST("/jobs/recalculate-due", batchHandler.RecalculateDue)
			jobs.POST("/jobs/recalculate-full", batchHandler.RecalculateFull)
			jobs.POST("/classrooms/:id/recalculate", batchHandler.RecalculateClassroom)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
