package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
)

type lookupCandidateRepo interface {
	Search(ctx context.Context, filter models.LookupFilter, limit int) ([]models.Candidate, error)
}

type lookupScoreRepo interface {
	FindByCandidate(ctx context.Context, candidateID string) ([]models.Score, error)
}

type settingsLoader interface {
	Load(ctx context.Context) models.PortalSettings
}

type captchaVerifier interface {
	Verify(id, answer string) bool
}

type rateLimiter interface {
	Allow(ctx context.Context, key string, limit int) (bool, error)
}

// LookupService answers public score lookups. Which identifying fields take
// part in the filter is driven by the portal settings, never by the client.
type LookupService struct {
	candidates lookupCandidateRepo
	scores     lookupScoreRepo
	settings   settingsLoader
	captcha    captchaVerifier
	limiter    rateLimiter
	logger     *zap.Logger
}

// NewLookupService constructs the lookup service. Captcha and limiter may be
// nil when the deployment disables them.
func NewLookupService(candidates lookupCandidateRepo, scores lookupScoreRepo, settings settingsLoader, captcha captchaVerifier, limiter rateLimiter, logger *zap.Logger) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{candidates: candidates, scores: scores, settings: settings, captcha: captcha, limiter: limiter, logger: logger}
}

// Lookup resolves one visitor request into the candidate's scores.
//
// A request whose visible fields yield no usable filter term returns an empty
// result, never "match everything". When the registration number is not part
// of the filter and more than one candidate matches, the ambiguous request
// also comes back empty rather than exposing an arbitrary first row.
func (s *LookupService) Lookup(ctx context.Context, req models.LookupRequest, clientIP string) (*models.LookupResult, error) {
	settings := s.settings.Load(ctx)

	if !settings.Exam.IsOpen {
		return nil, appErrors.ErrLookupClosed
	}

	if settings.Security.EnableCaptcha && s.captcha != nil {
		if !s.captcha.Verify(req.CaptchaID, req.CaptchaAnswer) {
			return nil, appErrors.ErrCaptchaMismatch
		}
	}

	if s.limiter != nil && clientIP != "" {
		key := fmt.Sprintf("lookup:%s", clientIP)
		allowed, err := s.limiter.Allow(ctx, key, settings.Security.MaxLookupsPerMinute)
		if err != nil {
			// The limiter failing must not take the lookup page down.
			s.logger.Warn("rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, appErrors.ErrRateLimited
		}
	}

	if err := checkRequiredFields(settings.Fields, req); err != nil {
		return nil, err
	}

	filter := buildFilter(settings.Fields, req)
	empty := &models.LookupResult{Found: false, Scores: []models.Score{}, Display: settings.Results}
	if filter.Empty() {
		return empty, nil
	}

	candidates, err := s.candidates.Search(ctx, filter, 2)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "hệ thống đang bận, vui lòng thử lại")
	}
	if len(candidates) == 0 {
		return empty, nil
	}
	if filter.RegistrationNumber == "" && len(candidates) > 1 {
		return empty, nil
	}

	candidate := candidates[0]
	scores, err := s.scores.FindByCandidate(ctx, candidate.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "hệ thống đang bận, vui lòng thử lại")
	}
	if scores == nil {
		scores = []models.Score{}
	}

	return &models.LookupResult{Found: true, Candidate: &candidate, Scores: scores, Display: settings.Results}, nil
}

func checkRequiredFields(fields models.FieldsConfig, req models.LookupRequest) error {
	type check struct {
		cfg   models.FieldConfig
		value string
	}
	for _, c := range []check{
		{fields.RegistrationNumber, req.RegistrationNumber},
		{fields.FullName, req.FullName},
		{fields.NationalID, req.NationalID},
		{fields.DateOfBirth, req.DateOfBirth},
	} {
		if c.cfg.Visible && c.cfg.Required && strings.TrimSpace(c.value) == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("vui lòng nhập %s", strings.ToLower(c.cfg.Label)))
		}
	}
	return nil
}

func buildFilter(fields models.FieldsConfig, req models.LookupRequest) models.LookupFilter {
	filter := models.LookupFilter{}
	if fields.RegistrationNumber.Visible {
		filter.RegistrationNumber = upperTrim(req.RegistrationNumber)
	}
	if fields.FullName.Visible {
		filter.FullName = upperTrim(req.FullName)
	}
	if fields.NationalID.Visible {
		filter.NationalID = strings.TrimSpace(req.NationalID)
	}
	if fields.DateOfBirth.Visible {
		filter.DateOfBirth = normalizeDate(req.DateOfBirth)
	}
	return filter
}
