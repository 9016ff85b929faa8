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
	"go.uber.org/zap"

	_ "github.com/wardline/roster-api/api/swagger"
	"github.com/wardline/roster-api/internal/handler"
	"github.com/wardline/roster-api/internal/middleware"
	"github.com/wardline/roster-api/internal/models"
	"github.com/wardline/roster-api/internal/repository"
	"github.com/wardline/roster-api/internal/service"
	"github.com/wardline/roster-api/pkg/cache"
	"github.com/wardline/roster-api/pkg/config"
	"github.com/wardline/roster-api/pkg/database"
	"github.com/wardline/roster-api/pkg/logger"
	corsmiddleware "github.com/wardline/roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/wardline/roster-api/pkg/middleware/requestid"
)

// @title Ward Roster API
// @version 1.0.0
// @description Shift schedule reconciliation with override and swap approval workflows
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	eventsSvc := buildEvents(cfg, logr)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventsSvc.Start(ctx)
	defer eventsSvc.Stop()

	shiftRepo := repository.NewShiftRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	interchangeRepo := repository.NewInterchangeRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authSvc := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	scheduleSvc := service.NewScheduleService(shiftRepo, overrideRepo, auditRepo, metricsSvc,
		service.ScheduleRange{DefaultDays: cfg.Roster.DefaultRangeDays, MaxDays: cfg.Roster.MaxRangeDays}, logr)
	overrideSvc := service.NewOverrideService(overrideRepo, auditRepo, eventsSvc, metricsSvc, validate, logr)
	interchangeSvc := service.NewInterchangeService(interchangeRepo, shiftRepo, overrideRepo, rosterRepo,
		auditRepo, eventsSvc, metricsSvc, validate, logr)
	rosterSvc := service.NewRosterService(rosterRepo)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	overrideHandler := handler.NewOverrideHandler(overrideSvc)
	interchangeHandler := handler.NewInterchangeHandler(interchangeSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)

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
	api.Use(middleware.JWT(authSvc))

	api.GET("/schedule", scheduleHandler.View)
	api.GET("/schedule/acknowledgments/pending", scheduleHandler.PendingAcknowledgments)
	api.POST("/schedule/shifts/:id/acknowledge", scheduleHandler.Acknowledge)
	if cfg.Exports.Enabled {
		api.GET("/schedule/export", scheduleHandler.Export)
	}

	api.POST("/overrides", overrideHandler.Create)
	api.GET("/overrides", overrideHandler.List)
	review := api.Group("/overrides", middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin))
	review.POST("/:id/approve", overrideHandler.Approve)
	review.POST("/:id/reject", overrideHandler.Reject)

	if cfg.Interchange.Enabled {
		swaps := api.Group("/interchanges")
		swaps.POST("", interchangeHandler.Propose)
		swaps.GET("/outgoing", interchangeHandler.Outgoing)
		swaps.GET("/incoming", interchangeHandler.Incoming)
		swaps.GET("/:id", interchangeHandler.Get)
		swaps.POST("/:id/respond", interchangeHandler.Respond)
		swaps.POST("/:id/withdraw", interchangeHandler.Withdraw)
	}

	api.GET("/roster/colleagues", rosterHandler.Colleagues)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildEvents(cfg *config.Config, logr *zap.Logger) *service.EventService {
	if !cfg.Events.Enabled {
		return nil
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, events disabled", "error", err)
		return nil
	}
	return service.NewEventService(service.NewRedisPublisher(client), service.EventServiceConfig{
		Channel:    cfg.Events.Channel,
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
	}, logr)
}
