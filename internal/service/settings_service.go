package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
)

type settingsStore interface {
	Get(ctx context.Context) (json.RawMessage, error)
	Save(ctx context.Context, data json.RawMessage) error
}

type subjectSource interface {
	DistinctSubjects(ctx context.Context) ([]string, error)
}

// SettingsService reads and writes the singleton portal settings document.
type SettingsService struct {
	repo     settingsStore
	subjects subjectSource
	logger   *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo settingsStore, subjects subjectSource, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, subjects: subjects, logger: logger}
}

// Load returns the stored settings merged over the built-in defaults. A
// missing or unreadable document degrades to pure defaults: showing the
// lookup page with default branding beats showing nothing.
func (s *SettingsService) Load(ctx context.Context) models.PortalSettings {
	raw, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Debug("settings document unavailable, using defaults", zap.Error(err))
		return models.DefaultPortalSettings()
	}
	return models.MergePortalSettings(raw)
}

// Save persists the document wholesale.
func (s *SettingsService) Save(ctx context.Context, settings models.PortalSettings) error {
	if settings.Subjects == nil {
		settings.Subjects = []string{}
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode settings")
	}
	if err := s.repo.Save(ctx, raw); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	return nil
}

// PublicView strips back-office-only knobs from the document before it is
// served to the lookup page.
func (s *SettingsService) PublicView(settings models.PortalSettings) models.PortalSettings {
	settings.Security.MaxLookupsPerMinute = 0
	settings.Template = models.TemplateConfig{}
	return settings
}

// ResyncSubjects rebuilds the cached subject catalog from the scores table.
// The scores table is canonical; the catalog only exists so subject pickers
// render without a scan.
func (s *SettingsService) ResyncSubjects(ctx context.Context) error {
	distinct, err := s.subjects.DistinctSubjects(ctx)
	if err != nil {
		return err
	}

	set := make(map[string]struct{}, len(distinct))
	for _, subject := range distinct {
		cleaned := strings.ToUpper(strings.TrimSpace(subject))
		if cleaned == "" {
			continue
		}
		set[cleaned] = struct{}{}
	}
	catalog := make([]string, 0, len(set))
	for subject := range set {
		catalog = append(catalog, subject)
	}
	sort.Strings(catalog)

	settings := s.Load(ctx)
	settings.Subjects = catalog
	return s.Save(ctx, settings)
}

// ResetSubjects empties the catalog after a full wipe.
func (s *SettingsService) ResetSubjects(ctx context.Context) error {
	settings := s.Load(ctx)
	settings.Subjects = []string{}
	return s.Save(ctx, settings)
}
