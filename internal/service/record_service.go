package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
)

type recordScoreRepo interface {
	ListDetails(ctx context.Context, filter models.RecordFilter) ([]models.ScoreDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Score, error)
	Update(ctx context.Context, score *models.Score) error
	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type recordCandidateRepo interface {
	FindByID(ctx context.Context, id string) (*models.Candidate, error)
	FindByRegistrationNumber(ctx context.Context, reg string) (*models.Candidate, error)
	UpdateDisplayFields(ctx context.Context, candidate *models.Candidate) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type subjectCatalog interface {
	ResyncSubjects(ctx context.Context) error
	ResetSubjects(ctx context.Context) error
}

// UpdateRecordRequest carries an admin edit of one score row together with
// its owning candidate's display fields.
type UpdateRecordRequest struct {
	FullName           string  `json:"ho_ten" validate:"required"`
	RegistrationNumber string  `json:"so_bao_danh" validate:"required"`
	NationalID         string  `json:"cccd"`
	School             string  `json:"truong"`
	DateOfBirth        string  `json:"ngay_sinh"`
	Gender             string  `json:"gioi_tinh"`
	Subject            string  `json:"mon_thi" validate:"required"`
	Value              float64 `json:"diem" validate:"gte=0"`
}

// RecordService serves the admin record table: listing, editing, deleting and
// the full registry wipe.
type RecordService struct {
	scores     recordScoreRepo
	candidates recordCandidateRepo
	catalog    subjectCatalog
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewRecordService constructs a RecordService.
func NewRecordService(scores recordScoreRepo, candidates recordCandidateRepo, catalog subjectCatalog, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{scores: scores, candidates: candidates, catalog: catalog, validate: validate, logger: logger}
}

// List returns one page of score records with candidate fields attached.
func (s *RecordService) List(ctx context.Context, filter models.RecordFilter) ([]models.ScoreDetail, *models.Pagination, error) {
	details, total, err := s.scores.ListDetails(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể tải danh sách điểm")
	}
	if details == nil {
		details = []models.ScoreDetail{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return details, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update edits one score row and its candidate's identity fields. Moving the
// row onto another candidate's registration number is rejected.
func (s *RecordService) Update(ctx context.Context, scoreID string, req UpdateRecordRequest) (*models.ScoreDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "dữ liệu bản ghi không hợp lệ")
	}

	score, err := s.scores.FindByID(ctx, scoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "không tìm thấy bản ghi điểm")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể tải bản ghi điểm")
	}

	candidate, err := s.candidates.FindByID(ctx, score.CandidateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể tải thí sinh")
	}

	reg := upperTrim(req.RegistrationNumber)
	if reg != candidate.RegistrationNumber {
		existing, err := s.candidates.FindByRegistrationNumber(ctx, reg)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể kiểm tra số báo danh")
		}
		if existing != nil && existing.ID != candidate.ID {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("số báo danh %s đã thuộc về thí sinh khác", reg))
		}
	}

	candidate.RegistrationNumber = reg
	candidate.FullName = upperTrim(req.FullName)
	candidate.NationalID = strings.TrimSpace(req.NationalID)
	candidate.School = strings.TrimSpace(req.School)
	candidate.DateOfBirth = normalizeDate(req.DateOfBirth)
	candidate.Gender = strings.TrimSpace(req.Gender)
	if err := s.candidates.UpdateDisplayFields(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể cập nhật thí sinh")
	}

	score.Subject = upperTrim(req.Subject)
	score.Value = req.Value
	if err := s.scores.Update(ctx, score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể cập nhật điểm")
	}

	s.resync(ctx)

	return &models.ScoreDetail{
		Score:              *score,
		RegistrationNumber: candidate.RegistrationNumber,
		FullName:           candidate.FullName,
		NationalID:         candidate.NationalID,
		School:             candidate.School,
		DateOfBirth:        candidate.DateOfBirth,
		Gender:             candidate.Gender,
	}, nil
}

// Delete removes one score row. The candidate stays registered even when this
// was their last score.
func (s *RecordService) Delete(ctx context.Context, scoreID string) error {
	if _, err := s.scores.FindByID(ctx, scoreID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "không tìm thấy bản ghi điểm")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể tải bản ghi điểm")
	}
	if err := s.scores.DeleteByID(ctx, scoreID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể xóa bản ghi điểm")
	}
	s.resync(ctx)
	return nil
}

// Wipe deletes every score and every candidate, then empties the subject
// catalog. Scores go first so the registry is never left referencing them.
func (s *RecordService) Wipe(ctx context.Context) error {
	if err := s.scores.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể xóa dữ liệu điểm")
	}
	if err := s.candidates.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể xóa danh sách thí sinh")
	}
	if s.catalog != nil {
		if err := s.catalog.ResetSubjects(ctx); err != nil {
			s.logger.Warn("failed to reset subject catalog after wipe", zap.Error(err))
		}
	}
	return nil
}

// Stats reports registry volume for the admin dashboard.
func (s *RecordService) Stats(ctx context.Context) (*models.RegistryStats, error) {
	candidateCount, err := s.candidates.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể đếm thí sinh")
	}
	scoreCount, err := s.scores.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể đếm bản ghi điểm")
	}
	return &models.RegistryStats{CandidateCount: candidateCount, ScoreCount: scoreCount}, nil
}

func (s *RecordService) resync(ctx context.Context) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.ResyncSubjects(ctx); err != nil {
		s.logger.Warn("failed to resync subject catalog", zap.Error(err))
	}
}
