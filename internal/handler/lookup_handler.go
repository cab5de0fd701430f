package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/service"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/response"
)

// LookupHandler serves the public lookup surface: the lookup itself plus the
// captcha challenge endpoints it depends on.
type LookupHandler struct {
	lookup  *service.LookupService
	captcha *service.CaptchaService
	metrics *service.MetricsService
}

// NewLookupHandler creates a new handler.
func NewLookupHandler(lookup *service.LookupService, captcha *service.CaptchaService, metrics *service.MetricsService) *LookupHandler {
	return &LookupHandler{lookup: lookup, captcha: captcha, metrics: metrics}
}

// Lookup godoc
// @Summary Look up exam scores
// @Description Resolve a visitor's identifying fields into their subject scores
// @Tags Lookup
// @Accept json
// @Produce json
// @Param payload body models.LookupRequest true "Lookup payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /lookup [post]
func (h *LookupHandler) Lookup(c *gin.Context) {
	var req models.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lookup payload"))
		return
	}

	result, err := h.lookup.Lookup(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		h.metrics.ObserveLookup("rejected")
		response.Error(c, err)
		return
	}

	if result.Found {
		h.metrics.ObserveLookup("found")
	} else {
		h.metrics.ObserveLookup("empty")
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// NewCaptcha godoc
// @Summary Issue captcha challenge
// @Description Create a new captcha challenge and return its identifier
// @Tags Lookup
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /captcha [get]
func (h *LookupHandler) NewCaptcha(c *gin.Context) {
	id := h.captcha.New()
	response.JSON(c, http.StatusOK, gin.H{"captcha_id": id}, nil)
}

// CaptchaImage godoc
// @Summary Render captcha image
// @Description Render the challenge identified by id as a PNG
// @Tags Lookup
// @Produce png
// @Param id path string true "Captcha identifier"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /captcha/{id} [get]
func (h *LookupHandler) CaptchaImage(c *gin.Context) {
	id := c.Param("id")
	image, ok := h.captcha.Image(id)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "captcha not found or expired"))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", image)
}
