package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/meta-shift/internal/config"
	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/queue"
	"github.com/phambaophuc/meta-shift/internal/services/storage"
	"github.com/phambaophuc/meta-shift/internal/services/templates"
	"go.uber.org/zap"
)

const (
	fileParamKey  = "file"
	filesParamKey = "files"

	templateHeader = "X-Metashift-Template"
)

// HealthReporter is anything that can describe its own health in one line.
type HealthReporter interface {
	HealthCheck() string
}

type ShiftHandler struct {
	templates       *templates.Registry
	newOrchestrator queue.OrchestratorFactory
	queue           *queue.QueueService
	storage         *storage.StorageService
	toolkit         HealthReporter
	logger          *zap.Logger
	config          *config.Config
}

func NewShiftHandler(
	templates *templates.Registry,
	newOrchestrator queue.OrchestratorFactory,
	queue *queue.QueueService,
	storage *storage.StorageService,
	toolkit HealthReporter,
	logger *zap.Logger,
	config *config.Config,
) *ShiftHandler {
	return &ShiftHandler{
		templates:       templates,
		newOrchestrator: newOrchestrator,
		queue:           queue,
		storage:         storage,
		toolkit:         toolkit,
		logger:          logger,
		config:          config,
	}
}

// === MAIN API ENDPOINTS ===

// ShiftFile transforms one uploaded file synchronously and answers with the
// shifted bytes.
func (h *ShiftHandler) ShiftFile(c *gin.Context) {
	req, err := h.parseShiftForm(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	src, err := h.readUploadedFile(c, fileParamKey)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "No file provided: "+err.Error())
		return
	}

	o := h.newOrchestrator()
	queued := o.Add(src)
	if _, err := o.Run(c.Request.Context(), req); err != nil {
		h.respondError(c, statusForError(err), err.Error())
		return
	}

	result, _ := o.Get(queued.ID)
	if result.Status != models.StatusDone {
		h.logger.Warn("Shift failed",
			zap.String("name", src.Name),
			zap.String("error", result.Error))
		h.respondError(c, statusForError(result.Err), result.Error)
		return
	}

	h.respondWithFile(c, result)
}

// SubmitBatch queues every uploaded file as one background job.
func (h *ShiftHandler) SubmitBatch(c *gin.Context) {
	req, err := h.parseShiftForm(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	files, err := h.readUploadedFiles(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	job := &models.ProcessingJob{Request: req, Files: files}
	if err := h.queue.PublishJob(c.Request.Context(), job); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, queue.ErrQueueFull):
			status = http.StatusTooManyRequests
		case errors.Is(err, queue.ErrQueueClosed):
			status = http.StatusServiceUnavailable
		}
		h.respondError(c, status, err.Error())
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    h.buildBatchResponse(job),
	})
}

// GetBatch reports the job status with one entry per file.
func (h *ShiftHandler) GetBatch(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    h.buildBatchResponse(job),
	})
}

// DownloadBatchFile answers with the shifted bytes of one file of a job.
func (h *ShiftHandler) DownloadBatchFile(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}

	fileID := c.Param("fileID")
	for _, f := range job.Results {
		if f.ID != fileID {
			continue
		}
		if !f.HasOutput() {
			h.respondError(c, http.StatusConflict, "File has no output: "+string(f.Status))
			return
		}
		h.respondWithFile(c, f)
		return
	}
	h.respondError(c, http.StatusNotFound, "File not found")
}

// DownloadBatch answers with a zip of every shifted output of a job.
func (h *ShiftHandler) DownloadBatch(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}
	if job.Status != models.JobCompleted {
		h.respondError(c, http.StatusConflict, "Job is "+job.Status)
		return
	}
	h.respondWithArchive(c, job)
}

// HealthCheck
func (h *ShiftHandler) HealthCheck(c *gin.Context) {
	services := h.storage.HealthCheck(c.Request.Context())
	services["queue"] = h.queue.HealthCheck()
	if h.toolkit != nil {
		services["toolkit"] = h.toolkit.HealthCheck()
	}
	overall := h.calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
			Templates: h.templates.Len(),
		},
	})
}

func (h *ShiftHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: gin.H{
			"queue":     h.queue.GetQueueStats(),
			"cache":     h.storage.GetCacheStats(c.Request.Context()),
			"timestamp": time.Now(),
		},
	})
}
