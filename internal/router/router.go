package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"project-field-api/internal/client"
	"project-field-api/internal/database"
	"project-field-api/internal/handler"
	"project-field-api/internal/metrics"
	"project-field-api/internal/middleware"
	"project-field-api/internal/repository"
	"project-field-api/internal/service"
)

// Config holds the dependencies the router wires together
type Config struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Logger    *zap.Logger
	JWTSecret string
	BasePath  string
	Metrics   *metrics.Metrics
	Exporter  client.UsageExporter
}

// Setup builds the Gin engine with all routes and middleware
func Setup(cfg Config) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.CORS())
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Repositories
	definitionRepo := repository.NewFieldDefinitionRepository(cfg.DB)
	boardRepo := repository.NewBoardRepository(cfg.DB)
	usageRepo := repository.NewUsageRepository(cfg.DB, cfg.Redis)

	// Services
	definitionService := service.NewFieldDefinitionService(definitionRepo, cfg.Metrics)
	valueService := service.NewFieldValueService(boardRepo, definitionRepo, cfg.Metrics)
	usageService := service.NewUsageService(usageRepo, definitionRepo, cfg.Exporter, cfg.Metrics)

	// Handlers
	definitionHandler := handler.NewFieldDefinitionHandler(definitionService)
	valueHandler := handler.NewFieldValueHandler(valueService)
	usageHandler := handler.NewUsageHandler(usageService)

	// Health and metrics are exposed at the root and under the base path so
	// both the load balancer and in-cluster probes can reach them
	registerOps(r.Group(""))
	base := r.Group(cfg.BasePath)
	if cfg.BasePath != "" {
		registerOps(base)
	}

	base.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := base.Group("")
	api.Use(middleware.Auth(cfg.JWTSecret))
	{
		api.POST("/definitions", definitionHandler.CreateGlobalDefinition)
		api.GET("/definitions/:definitionId", definitionHandler.GetDefinition)
		api.PATCH("/definitions/:definitionId", definitionHandler.UpdateDefinition)
		api.DELETE("/definitions/:definitionId", definitionHandler.DeleteDefinition)

		api.GET("/projects/:projectId/definitions", definitionHandler.GetDefinitions)
		api.POST("/projects/:projectId/definitions", definitionHandler.CreateDefinition)

		api.POST("/projects/:projectId/boards", valueHandler.CreateBoard)
		api.GET("/boards/:boardId/values", valueHandler.GetBoardValues)
		api.PUT("/boards/:boardId/values", valueHandler.SetBoardValues)
		api.POST("/boards/:boardId/refresh", valueHandler.RefreshBoard)

		api.POST("/usage/events", usageHandler.RecordEvent)
		api.GET("/projects/:projectId/usage", usageHandler.GetUsageReport)
		api.POST("/projects/:projectId/usage/export", usageHandler.ExportUsageCSV)
	}

	return r
}

// registerOps wires the unauthenticated operational endpoints on a group
func registerOps(g *gin.RouterGroup) {
	// Always 200 so the pod stays up while the background database retry
	// runs; the payload carries the connection state for dashboards
	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": database.IsConnected(),
		})
	})
	g.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
