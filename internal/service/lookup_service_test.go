package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
)

type candidateSearchStub struct {
	candidates []models.Candidate
	filters    []models.LookupFilter
	err        error
}

func (s *candidateSearchStub) Search(ctx context.Context, filter models.LookupFilter, limit int) ([]models.Candidate, error) {
	s.filters = append(s.filters, filter)
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

type scoreListStub struct {
	scores []models.Score
	err    error
}

func (s *scoreListStub) FindByCandidate(ctx context.Context, candidateID string) ([]models.Score, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

type settingsLoaderStub struct {
	settings models.PortalSettings
}

func (s settingsLoaderStub) Load(ctx context.Context) models.PortalSettings {
	return s.settings
}

type captchaStub struct {
	ok bool
}

func (s captchaStub) Verify(id, answer string) bool { return s.ok }

type limiterStub struct {
	allowed bool
	err     error
	keys    []string
}

func (s *limiterStub) Allow(ctx context.Context, key string, limit int) (bool, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return false, s.err
	}
	return s.allowed, nil
}

func lookupSettings() models.PortalSettings {
	settings := models.DefaultPortalSettings()
	settings.Security.EnableCaptcha = false
	return settings
}

func TestLookupReturnsCandidateWithScores(t *testing.T) {
	candidates := &candidateSearchStub{candidates: []models.Candidate{
		{ID: "cand-1", RegistrationNumber: "HSG001", FullName: "NGUYỄN VĂN AN"},
	}}
	scores := &scoreListStub{scores: []models.Score{
		{CandidateID: "cand-1", Subject: "TOÁN", Value: 8.5},
	}}
	svc := NewLookupService(candidates, scores, settingsLoaderStub{lookupSettings()}, nil, nil, nil)

	result, err := svc.Lookup(context.Background(), models.LookupRequest{RegistrationNumber: "hsg001"}, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Found)
	require.NotNil(t, result.Candidate)
	assert.Equal(t, "HSG001", result.Candidate.RegistrationNumber)
	require.Len(t, result.Scores, 1)
	assert.Equal(t, 8.5, result.Scores[0].Value)

	require.Len(t, candidates.filters, 1)
	assert.Equal(t, "HSG001", candidates.filters[0].RegistrationNumber)
}

func TestLookupClosedExam(t *testing.T) {
	settings := lookupSettings()
	settings.Exam.IsOpen = false
	svc := NewLookupService(&candidateSearchStub{}, &scoreListStub{}, settingsLoaderStub{settings}, nil, nil, nil)

	_, err := svc.Lookup(context.Background(), models.LookupRequest{RegistrationNumber: "HSG001"}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLookupClosed.Code, appErrors.FromError(err).Code)
}

func TestLookupRejectsWrongCaptcha(t *testing.T) {
	settings := lookupSettings()
	settings.Security.EnableCaptcha = true
	svc := NewLookupService(&candidateSearchStub{}, &scoreListStub{}, settingsLoaderStub{settings}, captchaStub{ok: false}, nil, nil)

	_, err := svc.Lookup(context.Background(), models.LookupRequest{RegistrationNumber: "HSG001", CaptchaID: "c1", CaptchaAnswer: "123"}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCaptchaMismatch.Code, appErrors.FromError(err).Code)
}

func TestLookupRateLimited(t *testing.T) {
	limiter := &limiterStub{allowed: false}
	svc := NewLookupService(&candidateSearchStub{}, &scoreListStub{}, settingsLoaderStub{lookupSettings()}, nil, limiter, nil)

	_, err := svc.Lookup(context.Background(), models.LookupRequest{RegistrationNumber: "HSG001"}, "1.2.3.4")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRateLimited.Code, appErrors.FromError(err).Code)
	require.Len(t, limiter.keys, 1)
	assert.Equal(t, "lookup:1.2.3.4", limiter.keys[0])
}

func TestLookupSurvivesLimiterOutage(t *testing.T) {
	limiter := &limiterStub{err: errors.New("redis down")}
	candidates := &candidateSearchStub{candidates: []models.Candidate{
		{ID: "cand-1", RegistrationNumber: "HSG001", FullName: "NGUYỄN VĂN AN"},
	}}
	svc := NewLookupService(candidates, &scoreListStub{}, settingsLoaderStub{lookupSettings()}, nil, limiter, nil)

	result, err := svc.Lookup(context.Background(), models.LookupRequest{RegistrationNumber: "HSG001"}, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Found)
}

func TestLookupRequiresConfiguredFields(t *testing.T) {
	svc := NewLookupService(&candidateSearchStub{}, &scoreListStub{}, settingsLoaderStub{lookupSettings()}, nil, nil, nil)

	// Registration number is visible and required by default.
	_, err := svc.Lookup(context.Background(), models.LookupRequest{}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLookupIgnoresHiddenFields(t *testing.T) {
	settings := lookupSettings()
	settings.Fields.RegistrationNumber = models.FieldConfig{Visible: true, Required: false, Label: "Số báo danh"}
	candidates := &candidateSearchStub{candidates: []models.Candidate{
		{ID: "cand-1", RegistrationNumber: "HSG001"},
	}}
	svc := NewLookupService(candidates, &scoreListStub{}, settingsLoaderStub{settings}, nil, nil, nil)

	// Full name is hidden by default, so it must never reach the filter.
	_, err := svc.Lookup(context.Background(), models.LookupRequest{RegistrationNumber: "HSG001", FullName: "Ai Đó"}, "")
	require.NoError(t, err)
	require.Len(t, candidates.filters, 1)
	assert.Empty(t, candidates.filters[0].FullName)
}

func TestLookupEmptyFilterReturnsNoMatch(t *testing.T) {
	settings := lookupSettings()
	settings.Fields.RegistrationNumber = models.FieldConfig{Visible: true, Required: false, Label: "Số báo danh"}
	candidates := &candidateSearchStub{}
	svc := NewLookupService(candidates, &scoreListStub{}, settingsLoaderStub{settings}, nil, nil, nil)

	result, err := svc.Lookup(context.Background(), models.LookupRequest{}, "")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, candidates.filters, "no search must run for an empty filter")
}

func TestLookupAmbiguousWithoutRegistrationNumber(t *testing.T) {
	settings := lookupSettings()
	settings.Fields.RegistrationNumber = models.FieldConfig{Visible: false}
	settings.Fields.FullName = models.FieldConfig{Visible: true, Required: true, Label: "Họ và tên"}
	candidates := &candidateSearchStub{candidates: []models.Candidate{
		{ID: "cand-1", RegistrationNumber: "HSG001", FullName: "NGUYỄN VĂN AN"},
		{ID: "cand-2", RegistrationNumber: "HSG002", FullName: "NGUYỄN VĂN AN"},
	}}
	svc := NewLookupService(candidates, &scoreListStub{}, settingsLoaderStub{settings}, nil, nil, nil)

	result, err := svc.Lookup(context.Background(), models.LookupRequest{FullName: "Nguyễn Văn An"}, "")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Nil(t, result.Candidate)
}

func TestLookupSearchFailure(t *testing.T) {
	candidates := &candidateSearchStub{err: errors.New("connection refused")}
	svc := NewLookupService(candidates, &scoreListStub{}, settingsLoaderStub{lookupSettings()}, nil, nil, nil)

	_, err := svc.Lookup(context.Background(), models.LookupRequest{RegistrationNumber: "HSG001"}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
