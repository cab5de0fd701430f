package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/service"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/response"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/spreadsheet"
)

// ImportHandler accepts score spreadsheets and serves the blank template.
type ImportHandler struct {
	importer     *service.ImportService
	exporter     *service.ExportService
	metrics      *service.MetricsService
	maxFileBytes int64
	maxRows      int
}

// NewImportHandler creates a new handler.
func NewImportHandler(importer *service.ImportService, exporter *service.ExportService, metrics *service.MetricsService, maxFileBytes int64, maxRows int) *ImportHandler {
	return &ImportHandler{importer: importer, exporter: exporter, metrics: metrics, maxFileBytes: maxFileBytes, maxRows: maxRows}
}

// Import godoc
// @Summary Import score spreadsheet
// @Description Process an uploaded xlsx file into the registry, returning the per-row outcome
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Score spreadsheet (xlsx)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /admin/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "thiếu file điểm"))
		return
	}

	if h.maxFileBytes > 0 && fileHeader.Size > h.maxFileBytes {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file vượt quá giới hạn %d MB", h.maxFileBytes/(1<<20))))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể đọc file"))
		return
	}
	defer file.Close()

	rows, err := spreadsheet.ReadRows(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file không đúng định dạng Excel"))
		return
	}

	if h.maxRows > 0 && len(rows) > h.maxRows {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file vượt quá giới hạn %d dòng", h.maxRows)))
		return
	}

	start := time.Now()
	summary, err := h.importer.ImportBatch(c.Request.Context(), rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveImport(summary.SuccessCount, len(summary.Errors), time.Since(start))

	response.JSON(c, http.StatusOK, summary, nil)
}

// Template godoc
// @Summary Download import template
// @Description Download the blank spreadsheet whose header row the importer expects
// @Tags Import
// @Produce octet-stream
// @Success 200 {file} binary
// @Router /admin/import/template [get]
func (h *ImportHandler) Template(c *gin.Context) {
	file, err := h.exporter.Template(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
