package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/unisupport-api/api/swagger"
	"github.com/noah-isme/unisupport-api/internal/handler"
	"github.com/noah-isme/unisupport-api/internal/middleware"
	"github.com/noah-isme/unisupport-api/internal/models"
	"github.com/noah-isme/unisupport-api/internal/service"
	"github.com/noah-isme/unisupport-api/pkg/config"
	"github.com/noah-isme/unisupport-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/unisupport-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/unisupport-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth      *service.AuthService
	catalog   *service.CatalogService
	wellbeing *service.WellbeingService
	exports   *service.ExportService
	metrics   *service.MetricsService
	audit     userStore
	probes    map[string]handler.ReadinessProbe
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.probes)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(deps.auth)
	wellbeingHandler := handler.NewWellbeingHandler(deps.wellbeing, deps.exports)
	catalogHandler := handler.NewCatalogHandler(deps.catalog)

	api := r.Group(cfg.APIPrefix)

	public := api.Group("/auth")
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, logr)
		public.POST("/register", limiter.Middleware(), authHandler.Register)
		public.POST("/login", limiter.Middleware(), authHandler.Login)
	} else {
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
	}
	public.POST("/refresh", authHandler.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))
	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/me", authHandler.Me)

	secured.GET("/dashboard", wellbeingHandler.Dashboard)
	secured.POST("/mood", wellbeingHandler.LogMood)
	secured.GET("/mood", wellbeingHandler.MoodHistory)
	secured.GET("/mood/export", wellbeingHandler.ExportMood)
	secured.POST("/appointments", wellbeingHandler.BookAppointment)
	secured.GET("/appointments", wellbeingHandler.Appointments)
	secured.GET("/appointments/export", wellbeingHandler.ExportAppointments)

	services := secured.Group("/services")
	services.GET("", catalogHandler.List)
	services.GET("/:id", catalogHandler.Get)
	services.GET("/:id/slots", catalogHandler.Slots)

	admin := services.Group("", middleware.RequireRoles(models.RoleAdmin))
	admin.POST("", middleware.Audit(deps.audit, logr, models.AuditActionServiceCreate, "support_service"), catalogHandler.Create)
	admin.POST("/:id/replenish", catalogHandler.Replenish)

	return r
}
