package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/meta-shift/internal/http/handlers"
	"github.com/phambaophuc/meta-shift/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	shiftHandler  *handlers.ShiftHandler
	maxUploadSize int64
	logger        *zap.Logger
}

func NewRouter(
	shiftHandler *handlers.ShiftHandler,
	maxUploadSize int64,
	logger *zap.Logger,
) *Router {
	return &Router{
		shiftHandler:  shiftHandler,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	upload := []gin.HandlerFunc{middleware.MaxBodySize(r.maxUploadSize), middleware.RequireMultipart()}

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.shiftHandler.HealthCheck)
		v1.GET("/stats", r.shiftHandler.GetStats)

		templates := v1.Group("/templates")
		{
			templates.GET("", r.shiftHandler.ListTemplates)
			templates.GET("/:id", r.shiftHandler.GetTemplate)
		}

		v1.POST("/shift", append(upload, r.shiftHandler.ShiftFile)...)

		batches := v1.Group("/batches")
		{
			batches.POST("", append(upload, r.shiftHandler.SubmitBatch)...)
			batches.GET("/:id", r.shiftHandler.GetBatch)
			batches.GET("/:id/download", r.shiftHandler.DownloadBatch)
			batches.GET("/:id/files/:fileID", r.shiftHandler.DownloadBatchFile)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Metadata shifting is running",
		})
	})

	return router
}
