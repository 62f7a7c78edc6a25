package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/aac-therapy-api/api/swagger"
	"github.com/noah-isme/aac-therapy-api/internal/handler"
	"github.com/noah-isme/aac-therapy-api/internal/middleware"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/pkg/config"
	"github.com/noah-isme/aac-therapy-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/aac-therapy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/aac-therapy-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, svc services, db handler.Pinger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(svc.metrics))
	}

	metricsHandler := handler.NewMetricsHandler(svc.metrics, db)
	r.GET("/health", metricsHandler.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	goals := handler.NewGoalHandler(svc.goals)
	tasks := handler.NewTaskHandler(svc.tasks)
	profiles := handler.NewProfileHandler(svc.profiles)
	sessions := handler.NewSessionHandler(svc.sessions)
	reports := handler.NewReportHandler(svc.reports)
	collab := handler.NewCollaborationHandler(svc.collaboration)

	staff := middleware.RequireRoles(models.RoleTherapist, models.RoleAdmin)
	staffOrSelf := middleware.RequireRolesOrSelf("id", models.RoleTherapist, models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	if svc.exports != nil {
		// Download links carry their own signature and are reachable without a bearer token.
		api.GET("/exports/download/:token", handler.NewExportHandler(svc.exports).Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(svc.auth))

	secured.POST("/goals", staff, goals.Create)
	secured.GET("/goals/:id", staff, goals.Get)
	secured.POST("/goals/:id/measurements", staff, goals.ApplyMeasurement)
	secured.GET("/goals/:id/measurements", staff, goals.ListMeasurements)
	secured.PATCH("/goals/:id/status", staff, goals.SetStatus)
	secured.GET("/goals/:id/tasks", staff, tasks.ListByGoal)

	secured.POST("/tasks", staff, tasks.Create)
	secured.GET("/tasks/:id", staff, tasks.Get)
	secured.PATCH("/tasks/:id", staff, tasks.Edit)
	secured.PATCH("/tasks/:id/progress", staff, tasks.UpdateProgress)

	secured.POST("/sessions", staff, sessions.Create)
	secured.GET("/sessions/:id", staff, sessions.Get)

	secured.POST("/reports", staff, reports.Generate)
	secured.GET("/reports/:id", staff, reports.Get)

	patients := secured.Group("/patients/:id")
	patients.GET("/goals", staffOrSelf, goals.ListByPatient)
	patients.GET("/sessions", staffOrSelf, sessions.ListByPatient)
	patients.GET("/reports", staffOrSelf, reports.ListByPatient)
	patients.GET("/profile", staffOrSelf, profiles.Get)
	patients.PUT("/profile", staff, profiles.Upsert)
	patients.GET("/recommended-tasks", staffOrSelf, tasks.Recommended)

	if svc.exports != nil {
		exports := handler.NewExportHandler(svc.exports)
		secured.POST("/reports/:id/exports", staff, exports.Request)
		secured.GET("/exports/:id", staff, exports.Status)
	}

	requesters := middleware.RequireRoles(models.RolePatient, models.RoleParent, models.RoleAdmin)
	collabRoutes := secured.Group("/collaboration")
	collabRoutes.POST("/requests", requesters, collab.CreateRequest)
	collabRoutes.GET("/requests", collab.ListRequests)
	collabRoutes.POST("/requests/:id/accept", staff, collab.Accept)
	collabRoutes.POST("/requests/:id/decline", staff, collab.Decline)
	collabRoutes.GET("/relationships", staff, collab.ListRelationships)

	return r
}
