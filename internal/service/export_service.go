package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/export"
)

// Export formats supported by the admin download endpoint.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

var exportHeaders = []string{
	"Họ và Tên", "Số Báo Danh", "Ngày Sinh", "Giới Tính", "CCCD", "Trường", "Môn Thi", "Điểm Số",
}

type exportScoreRepo interface {
	ListAllDetails(ctx context.Context) ([]models.ScoreDetail, error)
}

type templateSource interface {
	Load(ctx context.Context) models.PortalSettings
}

// ExportFile is a rendered download: bytes plus the metadata the handler
// needs to set the response headers.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders the full record table into downloadable files and
// produces the blank import template.
type ExportService struct {
	scores   exportScoreRepo
	settings templateSource
	csv      *export.CSVExporter
	xlsx     *export.XLSXExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(scores exportScoreRepo, settings templateSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		scores:   scores,
		settings: settings,
		csv:      export.NewCSVExporter(),
		xlsx:     export.NewXLSXExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// ExportRecords renders every score record in the requested format.
func (s *ExportService) ExportRecords(ctx context.Context, format string) (*ExportFile, error) {
	details, err := s.scores.ListAllDetails(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể tải dữ liệu xuất file")
	}

	data := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(details))}
	for _, d := range details {
		data.Rows = append(data.Rows, map[string]string{
			"Họ và Tên":   d.FullName,
			"Số Báo Danh": d.RegistrationNumber,
			"Ngày Sinh":   d.DateOfBirth,
			"Giới Tính":   d.Gender,
			"CCCD":        d.NationalID,
			"Trường":      d.School,
			"Môn Thi":     d.Subject,
			"Điểm Số":     formatScore(d.Value),
		})
	}

	switch strings.ToLower(format) {
	case FormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể tạo file CSV")
		}
		return &ExportFile{FileName: "danh_sach_diem.csv", ContentType: "text/csv; charset=utf-8", Content: content}, nil
	case FormatPDF:
		exam := s.settings.Load(ctx).Exam
		title := strings.TrimSpace(fmt.Sprintf("%s %s", exam.Name, exam.SchoolYear))
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể tạo file PDF")
		}
		return &ExportFile{FileName: "danh_sach_diem.pdf", ContentType: "application/pdf", Content: content}, nil
	case FormatXLSX, "":
		content, err := s.xlsx.Render(data, "DanhSachDiem")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể tạo file Excel")
		}
		return &ExportFile{
			FileName:    "danh_sach_diem.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("định dạng không được hỗ trợ: %s", format))
	}
}

// Template renders the blank import spreadsheet. Its header row comes from the
// portal settings so renamed columns reach administrators immediately.
func (s *ExportService) Template(ctx context.Context) (*ExportFile, error) {
	template := s.settings.Load(ctx).Template
	headers := template.RequiredHeaders
	if len(headers) == 0 {
		headers = models.DefaultPortalSettings().Template.RequiredHeaders
	}
	fileName := template.FileName
	if fileName == "" {
		fileName = models.DefaultPortalSettings().Template.FileName
	}

	content, err := s.xlsx.Render(export.Dataset{Headers: headers}, "NhapDiem")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể tạo file mẫu")
	}
	return &ExportFile{
		FileName:    fileName,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
