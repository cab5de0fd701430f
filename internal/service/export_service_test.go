package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
)

type exportScoreRepoStub struct {
	details []models.ScoreDetail
	err     error
}

func (s exportScoreRepoStub) ListAllDetails(ctx context.Context) ([]models.ScoreDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.details, nil
}

func exportFixture() []models.ScoreDetail {
	return []models.ScoreDetail{
		{
			Score:              models.Score{Subject: "TOÁN", Value: 8.5},
			RegistrationNumber: "HSG001",
			FullName:           "NGUYỄN VĂN AN",
			DateOfBirth:        "01/01/2005",
			School:             "THCS SUỐI LƯ",
		},
	}
}

func TestExportRecordsCSV(t *testing.T) {
	svc := NewExportService(exportScoreRepoStub{details: exportFixture()}, settingsLoaderStub{models.DefaultPortalSettings()}, nil)

	file, err := svc.ExportRecords(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "danh_sach_diem.csv", file.FileName)
	assert.True(t, bytes.HasPrefix(file.Content, []byte{0xEF, 0xBB, 0xBF}), "csv must carry a UTF-8 BOM")

	body := string(file.Content)
	assert.Contains(t, body, "Họ và Tên")
	assert.Contains(t, body, "NGUYỄN VĂN AN")
	assert.Contains(t, body, "8.5")
}

func TestExportRecordsXLSX(t *testing.T) {
	svc := NewExportService(exportScoreRepoStub{details: exportFixture()}, settingsLoaderStub{models.DefaultPortalSettings()}, nil)

	file, err := svc.ExportRecords(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "danh_sach_diem.xlsx", file.FileName)

	workbook, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer workbook.Close() //nolint:errcheck

	rows, err := workbook.GetRows("DanhSachDiem")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Họ và Tên", rows[0][0])
	assert.Equal(t, "NGUYỄN VĂN AN", rows[1][0])
	assert.Equal(t, "HSG001", rows[1][1])
}

func TestExportRecordsPDF(t *testing.T) {
	svc := NewExportService(exportScoreRepoStub{details: exportFixture()}, settingsLoaderStub{models.DefaultPortalSettings()}, nil)

	file, err := svc.ExportRecords(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestExportRecordsUnsupportedFormat(t *testing.T) {
	svc := NewExportService(exportScoreRepoStub{}, settingsLoaderStub{models.DefaultPortalSettings()}, nil)

	_, err := svc.ExportRecords(context.Background(), "docx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportRecordsRepositoryFailure(t *testing.T) {
	svc := NewExportService(exportScoreRepoStub{err: errors.New("connection refused")}, settingsLoaderStub{models.DefaultPortalSettings()}, nil)

	_, err := svc.ExportRecords(context.Background(), "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestTemplateUsesConfiguredHeaders(t *testing.T) {
	settings := models.DefaultPortalSettings()
	settings.Template.FileName = "Mau_Diem.xlsx"
	settings.Template.RequiredHeaders = []string{"SO_BAO_DANH", "MON_THI", "DIEM"}
	svc := NewExportService(exportScoreRepoStub{}, settingsLoaderStub{settings}, nil)

	file, err := svc.Template(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mau_Diem.xlsx", file.FileName)

	workbook, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer workbook.Close() //nolint:errcheck

	rows, err := workbook.GetRows("NhapDiem")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"SO_BAO_DANH", "MON_THI", "DIEM"}, rows[0])
}

func TestTemplateFallsBackToDefaults(t *testing.T) {
	settings := models.DefaultPortalSettings()
	settings.Template = models.TemplateConfig{}
	svc := NewExportService(exportScoreRepoStub{}, settingsLoaderStub{settings}, nil)

	file, err := svc.Template(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "File_Mau_Nhap_Diem.xlsx", file.FileName)
	assert.True(t, strings.HasSuffix(file.FileName, ".xlsx"))
}
