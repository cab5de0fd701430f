package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/service"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/response"
)

// RecordHandler serves the admin record table.
type RecordHandler struct {
	records  *service.RecordService
	importer *service.ImportService
	exporter *service.ExportService
}

// NewRecordHandler creates a new handler.
func NewRecordHandler(records *service.RecordService, importer *service.ImportService, exporter *service.ExportService) *RecordHandler {
	return &RecordHandler{records: records, importer: importer, exporter: exporter}
}

// List godoc
// @Summary List score records
// @Description Returns one page of score records with candidate fields attached
// @Tags Records
// @Produce json
// @Param search query string false "Match candidate name or registration number"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/records [get]
func (h *RecordHandler) List(c *gin.Context) {
	filter := models.RecordFilter{
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	details, pagination, err := h.records.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, details, pagination)
}

// Create godoc
// @Summary Create one score record
// @Description Register a candidate and their subject score manually
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body service.CreateRecordRequest true "Record payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/records [post]
func (h *RecordHandler) Create(c *gin.Context) {
	var req service.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}

	if err := h.importer.CreateRecord(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"so_bao_danh": req.RegistrationNumber, "mon_thi": req.Subject})
}

// Update godoc
// @Summary Update one score record
// @Description Edit a score row and its candidate's identity fields
// @Tags Records
// @Accept json
// @Produce json
// @Param id path string true "Score record ID"
// @Param payload body service.UpdateRecordRequest true "Record payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/records/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	var req service.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}

	detail, err := h.records.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete one score record
// @Description Remove a single score row, keeping the candidate registered
// @Tags Records
// @Produce json
// @Param id path string true "Score record ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/records/{id} [delete]
func (h *RecordHandler) Delete(c *gin.Context) {
	if err := h.records.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Wipe godoc
// @Summary Delete all records
// @Description Remove every score and candidate and empty the subject catalog
// @Tags Records
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/records [delete]
func (h *RecordHandler) Wipe(c *gin.Context) {
	if err := h.records.Wipe(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Registry statistics
// @Description Candidate and score counts for the admin dashboard
// @Tags Records
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/stats [get]
func (h *RecordHandler) Stats(c *gin.Context) {
	stats, err := h.records.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export score records
// @Description Download the full record table as xlsx, csv or pdf
// @Tags Records
// @Produce octet-stream
// @Param format query string false "Export format (xlsx|csv|pdf)" default(xlsx)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /admin/records/export [get]
func (h *RecordHandler) Export(c *gin.Context) {
	file, err := h.exporter.ExportRecords(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
