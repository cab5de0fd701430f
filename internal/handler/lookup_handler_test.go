package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/service"
)

type lookupCandidatesStub struct {
	candidates []models.Candidate
}

func (s *lookupCandidatesStub) Search(context.Context, models.LookupFilter, int) ([]models.Candidate, error) {
	return s.candidates, nil
}

type lookupScoresStub struct {
	scores []models.Score
}

func (s *lookupScoresStub) FindByCandidate(context.Context, string) ([]models.Score, error) {
	return s.scores, nil
}

type lookupSettingsStub struct {
	settings models.PortalSettings
}

func (s *lookupSettingsStub) Load(context.Context) models.PortalSettings {
	return s.settings
}

func openPortal() models.PortalSettings {
	settings := models.DefaultPortalSettings()
	settings.Security.EnableCaptcha = false
	return settings
}

func newLookupHandler(candidates *lookupCandidatesStub, scores *lookupScoresStub, settings models.PortalSettings) *LookupHandler {
	lookup := service.NewLookupService(candidates, scores, &lookupSettingsStub{settings: settings}, nil, nil, nil)
	captcha := service.NewCaptchaService(240, 80, 6, time.Minute)
	return NewLookupHandler(lookup, captcha, service.NewMetricsService())
}

func TestLookupHandlerInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newLookupHandler(&lookupCandidatesStub{}, &lookupScoresStub{}, openPortal())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Lookup(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupHandlerFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newLookupHandler(
		&lookupCandidatesStub{candidates: []models.Candidate{{ID: "cand-1", RegistrationNumber: "HSG001", FullName: "NGUYỄN VĂN AN"}}},
		&lookupScoresStub{scores: []models.Score{{CandidateID: "cand-1", Subject: "TOÁN", Value: 8.5}}},
		openPortal(),
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(`{"so_bao_danh":"hsg001"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Lookup(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			Found  bool `json:"found"`
			Scores []struct {
				Subject string `json:"mon_thi"`
			} `json:"scores"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Found)
	assert.Len(t, envelope.Data.Scores, 1)
	assert.Equal(t, "TOÁN", envelope.Data.Scores[0].Subject)
}

func TestLookupHandlerClosedExam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	settings := openPortal()
	settings.Exam.IsOpen = false
	handler := newLookupHandler(&lookupCandidatesStub{}, &lookupScoresStub{}, settings)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/lookup", strings.NewReader(`{"so_bao_danh":"HSG001"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Lookup(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLookupHandlerCaptchaRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newLookupHandler(&lookupCandidatesStub{}, &lookupScoresStub{}, openPortal())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/captcha", nil)

	handler.NewCaptcha(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			CaptchaID string `json:"captcha_id"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.CaptchaID)

	imgRec := httptest.NewRecorder()
	imgCtx, _ := gin.CreateTestContext(imgRec)
	imgCtx.Request = httptest.NewRequest(http.MethodGet, "/captcha/"+envelope.Data.CaptchaID, nil)
	imgCtx.Params = gin.Params{{Key: "id", Value: envelope.Data.CaptchaID}}

	handler.CaptchaImage(imgCtx)

	assert.Equal(t, http.StatusOK, imgRec.Code)
	assert.Equal(t, "image/png", imgRec.Header().Get("Content-Type"))
	assert.NotEmpty(t, imgRec.Body.Bytes())
}

func TestLookupHandlerCaptchaImageUnknownID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newLookupHandler(&lookupCandidatesStub{}, &lookupScoresStub{}, openPortal())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/captcha/ghost", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.CaptchaImage(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
