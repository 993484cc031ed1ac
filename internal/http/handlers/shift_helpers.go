package handlers

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/batch"
	"github.com/phambaophuc/meta-shift/internal/services/queue"
	"github.com/phambaophuc/meta-shift/pkg/utils"
	"go.uber.org/zap"
)

// shiftForm is the batch-wide part of an upload.
type shiftForm struct {
	Template  string `form:"template" binding:"omitempty,max=64"`
	AlterHash *bool  `form:"alter_hash"`
}

// === REQUEST PARSING ===

func (h *ShiftHandler) parseShiftForm(c *gin.Context) (models.ShiftRequest, error) {
	var form shiftForm
	if err := c.ShouldBind(&form); err != nil {
		return models.ShiftRequest{}, fmt.Errorf("invalid form: %v", err)
	}

	id := form.Template
	if id == "" {
		id = h.config.Shift.DefaultTemplate
	}
	alterHash := h.config.Shift.AlterHash
	if form.AlterHash != nil {
		alterHash = *form.AlterHash
	}

	req := models.ShiftRequest{Selection: models.NewSelection(id), AlterHash: alterHash}
	if err := h.templates.Validate(req.Selection); err != nil {
		return models.ShiftRequest{}, err
	}
	return req, nil
}

// === FILE OPERATIONS ===

func (h *ShiftHandler) readUploadedFile(c *gin.Context, paramKey string) (models.SourceFile, error) {
	header, err := c.FormFile(paramKey)
	if err != nil {
		return models.SourceFile{}, err
	}
	return readFileHeader(header)
}

func (h *ShiftHandler) readUploadedFiles(c *gin.Context) ([]models.SourceFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("failed to parse form data: %v", err)
	}

	headers := form.File[filesParamKey]
	headers = append(headers, form.File[filesParamKey+"[]"]...)
	if len(headers) == 0 {
		return nil, errors.New("no files provided")
	}

	files := make([]models.SourceFile, 0, len(headers))
	for _, fh := range headers {
		src, err := readFileHeader(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %v", fh.Filename, err)
		}
		files = append(files, src)
	}
	return files, nil
}

func readFileHeader(fh *multipart.FileHeader) (models.SourceFile, error) {
	f, err := fh.Open()
	if err != nil {
		return models.SourceFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.SourceFile{}, err
	}

	name := filepath.Base(fh.Filename)
	mt := utils.DetectMIME(name, fh.Header.Get("Content-Type"), data)
	return models.SourceFile{
		Name:     name,
		MimeType: mt,
		Kind:     models.KindFromMIME(mt),
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

func (h *ShiftHandler) lookupJob(c *gin.Context) (*models.ProcessingJob, bool) {
	job, err := h.queue.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, queue.ErrJobNotFound) {
			status = http.StatusNotFound
		}
		h.respondError(c, status, err.Error())
		return nil, false
	}
	return job, true
}

// === RESPONSE HANDLING ===

func (h *ShiftHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *ShiftHandler) respondWithFile(c *gin.Context, f models.QueuedFile) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.OutputName}))
	c.Header(templateHeader, f.TemplateID)
	c.Data(http.StatusOK, f.OutputMIME, f.Processed)
}

func (h *ShiftHandler) respondWithArchive(c *gin.Context, job *models.ProcessingJob) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "shifted_" + job.ID + ".zip"}))
	c.Header("Content-Type", "application/zip")
	c.Status(http.StatusOK)

	zw := zip.NewWriter(c.Writer)
	used := map[string]bool{}
	for _, f := range job.Results {
		if !f.HasOutput() {
			continue
		}
		name := f.OutputName
		if used[name] {
			name = utils.GenerateStorageKey(name)
		}
		used[name] = true

		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err == nil {
			_, err = w.Write(f.Processed)
		}
		if err != nil {
			h.logger.Error("Failed to write archive entry", zap.String("job_id", job.ID), zap.Error(err))
			return
		}
	}
	if err := zw.Close(); err != nil {
		h.logger.Error("Failed to finish archive", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (h *ShiftHandler) buildBatchResponse(job *models.ProcessingJob) models.BatchResponse {
	resp := models.BatchResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Selection:   job.Request.Selection.String(),
		AlterHash:   job.Request.AlterHash,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		Error:       job.Error,
	}
	for _, f := range job.Results {
		resp.Files = append(resp.Files, models.NewFileResult(f))
	}
	return resp
}

// === UTILITY METHODS ===

// calculateOverallHealth treats an unwritable output dir as fatal and any
// other unhealthy service as degraded.
func (h *ShiftHandler) calculateOverallHealth(services map[string]string) string {
	overall := "healthy"
	for name, status := range services {
		if !strings.HasPrefix(status, "unhealthy") {
			continue
		}
		if name == "output_dir" {
			return "unhealthy"
		}
		overall = "degraded"
	}
	return overall
}

// statusForError maps the file error taxonomy to HTTP status codes.
func statusForError(err error) int {
	var (
		unsupported *models.UnsupportedKindError
		decodeErr   *models.DecodeError
		encodeErr   *models.EncodeError
		transcode   *models.TranscodeError
		loadErr     *models.ToolkitLoadError
	)
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case errors.Is(err, models.ErrTemplateNotFound):
		return http.StatusBadRequest
	case errors.Is(err, batch.ErrRunInProgress):
		return http.StatusConflict
	case errors.As(err, &unsupported):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &decodeErr), errors.As(err, &transcode):
		return http.StatusUnprocessableEntity
	case errors.As(err, &loadErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &encodeErr):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
