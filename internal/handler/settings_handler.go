package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/service"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/response"
)

// SettingsHandler exposes the portal configuration to both surfaces.
type SettingsHandler struct {
	service *service.SettingsService
}

// NewSettingsHandler creates a new handler.
func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// PublicSettings godoc
// @Summary Get public portal settings
// @Description Returns the configuration the lookup page needs, without admin-only fields
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) PublicSettings(c *gin.Context) {
	settings := h.service.Load(c.Request.Context())
	response.JSON(c, http.StatusOK, h.service.PublicView(settings), nil)
}

// GetSettings godoc
// @Summary Get portal settings
// @Description Returns the full configuration document
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Load(c.Request.Context()), nil)
}

// UpdateSettings godoc
// @Summary Update portal settings
// @Description Replace the configuration document
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.PortalSettings true "Settings document"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var settings models.PortalSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}

	if err := h.service.Save(c.Request.Context(), settings); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, h.service.Load(c.Request.Context()), nil)
}

// ResyncSubjects godoc
// @Summary Rebuild subject catalog
// @Description Rebuild the cached subject list from the scores table
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/settings/subjects/resync [post]
func (h *SettingsHandler) ResyncSubjects(c *gin.Context) {
	if err := h.service.ResyncSubjects(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.service.Load(c.Request.Context()).Subjects, nil)
}
