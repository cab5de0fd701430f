package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
)

type settingsStoreStub struct {
	raw     json.RawMessage
	getErr  error
	saveErr error
	saved   []json.RawMessage
}

func (s *settingsStoreStub) Get(ctx context.Context) (json.RawMessage, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.raw, nil
}

func (s *settingsStoreStub) Save(ctx context.Context, data json.RawMessage) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, data)
	s.raw = data
	return nil
}

type subjectSourceStub struct {
	subjects []string
	err      error
}

func (s subjectSourceStub) DistinctSubjects(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.subjects, nil
}

func TestSettingsLoadMergesOverDefaults(t *testing.T) {
	store := &settingsStoreStub{raw: json.RawMessage(`{"exam":{"name":"KỲ THI THỬ","isOpen":false}}`)}
	svc := NewSettingsService(store, subjectSourceStub{}, nil)

	settings := svc.Load(context.Background())
	assert.Equal(t, "KỲ THI THỬ", settings.Exam.Name)
	assert.False(t, settings.Exam.IsOpen)
	// Untouched sections keep their defaults.
	assert.True(t, settings.Fields.RegistrationNumber.Visible)
	assert.Equal(t, 10, settings.Security.MaxLookupsPerMinute)
}

func TestSettingsLoadDegradesToDefaults(t *testing.T) {
	store := &settingsStoreStub{getErr: errors.New("relation does not exist")}
	svc := NewSettingsService(store, subjectSourceStub{}, nil)

	settings := svc.Load(context.Background())
	assert.Equal(t, models.DefaultPortalSettings().Exam.Name, settings.Exam.Name)
	assert.True(t, settings.Exam.IsOpen)
}

func TestSettingsLoadIgnoresCorruptDocument(t *testing.T) {
	store := &settingsStoreStub{raw: json.RawMessage(`{"exam":`)}
	svc := NewSettingsService(store, subjectSourceStub{}, nil)

	settings := svc.Load(context.Background())
	assert.Equal(t, models.DefaultPortalSettings().Exam.Name, settings.Exam.Name)
}

func TestSettingsSaveRoundTrips(t *testing.T) {
	store := &settingsStoreStub{}
	svc := NewSettingsService(store, subjectSourceStub{}, nil)

	settings := models.DefaultPortalSettings()
	settings.Exam.Name = "KỲ THI MỚI"
	require.NoError(t, svc.Save(context.Background(), settings))

	reloaded := svc.Load(context.Background())
	assert.Equal(t, "KỲ THI MỚI", reloaded.Exam.Name)
}

func TestSettingsPublicViewHidesAdminKnobs(t *testing.T) {
	svc := NewSettingsService(&settingsStoreStub{}, subjectSourceStub{}, nil)

	public := svc.PublicView(models.DefaultPortalSettings())
	assert.Zero(t, public.Security.MaxLookupsPerMinute)
	assert.Empty(t, public.Template.FileName)
	assert.Empty(t, public.Template.RequiredHeaders)
	assert.True(t, public.Security.EnableCaptcha, "the lookup page needs the captcha switch")
}

func TestResyncSubjectsNormalizesAndSorts(t *testing.T) {
	store := &settingsStoreStub{}
	svc := NewSettingsService(store, subjectSourceStub{subjects: []string{"Văn", " toán ", "TOÁN", ""}}, nil)

	require.NoError(t, svc.ResyncSubjects(context.Background()))
	settings := svc.Load(context.Background())
	assert.Equal(t, []string{"TOÁN", "VĂN"}, settings.Subjects)
}

func TestResyncSubjectsPropagatesSourceError(t *testing.T) {
	svc := NewSettingsService(&settingsStoreStub{}, subjectSourceStub{err: errors.New("timeout")}, nil)
	assert.Error(t, svc.ResyncSubjects(context.Background()))
}

func TestResetSubjects(t *testing.T) {
	store := &settingsStoreStub{}
	svc := NewSettingsService(store, subjectSourceStub{}, nil)

	settings := models.DefaultPortalSettings()
	settings.Subjects = []string{"TOÁN", "VĂN"}
	require.NoError(t, svc.Save(context.Background(), settings))

	require.NoError(t, svc.ResetSubjects(context.Background()))
	assert.Empty(t, svc.Load(context.Background()).Subjects)
}
