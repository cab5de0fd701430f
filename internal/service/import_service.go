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
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/repository"
	appErrors "github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/errors"
	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/pkg/spreadsheet"
)

type importCandidateReader interface {
	FindByRegistrationNumber(ctx context.Context, reg string) (*models.Candidate, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Candidate, error)
}

type importScoreReader interface {
	ExistsForSubject(ctx context.Context, candidateID, subject string) (bool, error)
}

type importRowWriter interface {
	ApplyRow(ctx context.Context, plan repository.RowPlan) error
}

type subjectCatalogSyncer interface {
	ResyncSubjects(ctx context.Context) error
}

// CreateRecordRequest holds the payload of a manual single-record creation.
type CreateRecordRequest struct {
	RegistrationNumber string  `json:"so_bao_danh" validate:"required"`
	FullName           string  `json:"ho_ten" validate:"required"`
	Subject            string  `json:"mon_thi" validate:"required"`
	Score              float64 `json:"diem"`
	NationalID         string  `json:"cccd"`
	School             string  `json:"truong"`
	DateOfBirth        string  `json:"ngay_sinh"`
	Gender             string  `json:"gioi_tinh"`
}

// ImportService reconciles incoming score-sheet rows against the candidate
// registry and applies idempotent writes.
type ImportService struct {
	candidates importCandidateReader
	scores     importScoreReader
	writer     importRowWriter
	catalog    subjectCatalogSyncer
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(candidates importCandidateReader, scores importScoreReader, writer importRowWriter, catalog subjectCatalogSyncer, validate *validator.Validate, logger *zap.Logger) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{candidates: candidates, scores: scores, writer: writer, catalog: catalog, validator: validate, logger: logger}
}

// importRow is one canonicalized batch row.
type importRow struct {
	RegistrationNumber string
	FullName           string
	NationalID         string
	School             string
	Subject            string
	Score              float64
	DateOfBirth        string
	Gender             string
}

func canonicalizeRow(fields map[string]string) importRow {
	// national_id and gender keep their original case, only whitespace goes.
	row := importRow{
		RegistrationNumber: upperTrim(fields[fieldRegistrationNumber]),
		FullName:           upperTrim(fields[fieldFullName]),
		NationalID:         strings.TrimSpace(fields[fieldNationalID]),
		School:             upperTrim(fields[fieldSchool]),
		Subject:            upperTrim(fields[fieldSubject]),
		DateOfBirth:        normalizeDate(fields[fieldDateOfBirth]),
		Gender:             strings.TrimSpace(fields[fieldGender]),
	}
	if raw, ok := fields[fieldScore]; ok {
		row.Score = parseScore(raw)
	}
	return row
}

// ImportBatch runs the full reconciliation over an ordered sequence of raw
// rows. Row-level problems become error strings and never abort the batch; a
// registry that cannot be read at all aborts with an operation-level error.
// The subject catalog is resynchronized after the batch regardless of row
// errors; a resync failure is logged, never surfaced.
func (s *ImportService) ImportBatch(ctx context.Context, rows []spreadsheet.Row) (*models.ImportSummary, error) {
	summary := &models.ImportSummary{Errors: []string{}}
	// One candidate may legitimately occupy several rows, one per subject.
	// The duplicate is the same registration number with the same subject.
	seenPair := make(map[string]struct{})
	nidOwner := make(map[string]string)

	for _, raw := range rows {
		row := canonicalizeRow(normalizeRow(raw))
		if row.RegistrationNumber == "" {
			// Rows without a registration number are not importable and are
			// skipped without being reported.
			continue
		}

		pair := row.RegistrationNumber + "\x00" + row.Subject
		if _, dup := seenPair[pair]; dup {
			summary.Errors = append(summary.Errors, fmt.Sprintf("SBD %s: trùng số báo danh trong file", row.RegistrationNumber))
			continue
		}
		seenPair[pair] = struct{}{}

		if row.NationalID != "" {
			if owner, seen := nidOwner[row.NationalID]; seen && owner != row.RegistrationNumber {
				summary.Errors = append(summary.Errors, fmt.Sprintf("SBD %s: trùng số CCCD %s trong file", row.RegistrationNumber, row.NationalID))
				continue
			}
			nidOwner[row.NationalID] = row.RegistrationNumber
		}

		plan, rowErr, err := s.reconcile(ctx, row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể truy cập dữ liệu thí sinh")
		}
		if rowErr != "" {
			summary.Errors = append(summary.Errors, rowErr)
			continue
		}

		if err := s.writer.ApplyRow(ctx, plan); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("SBD %s: %v", row.RegistrationNumber, err))
			continue
		}
		summary.SuccessCount++
	}

	if err := s.catalog.ResyncSubjects(ctx); err != nil {
		s.logger.Warn("subject catalog resync failed", zap.Error(err))
	}

	return summary, nil
}

// reconcile maps one canonicalized row onto a write plan. It returns a
// non-empty rowErr for business-rule rejections and err only when the
// registry itself is unreachable.
func (s *ImportService) reconcile(ctx context.Context, row importRow) (repository.RowPlan, string, error) {
	existing, err := s.candidates.FindByRegistrationNumber(ctx, row.RegistrationNumber)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return repository.RowPlan{}, "", err
	}

	plan := repository.RowPlan{}

	if existing != nil {
		if existing.FullName != row.FullName && row.FullName != "" {
			return plan, fmt.Sprintf("SBD %s: đã có tên %s, file ghi %s", row.RegistrationNumber, existing.FullName, row.FullName), nil
		}
		if existing.NationalID != "" && row.NationalID != "" && existing.NationalID != row.NationalID {
			return plan, fmt.Sprintf("SBD %s: số CCCD không khớp với dữ liệu đã có", row.RegistrationNumber), nil
		}

		merged := *existing
		changed := false
		if merged.NationalID == "" && row.NationalID != "" {
			merged.NationalID = row.NationalID
			changed = true
		}
		if merged.School == "" && row.School != "" {
			merged.School = row.School
			changed = true
		}
		if merged.DateOfBirth == "" && row.DateOfBirth != "" {
			merged.DateOfBirth = row.DateOfBirth
			changed = true
		}
		if merged.Gender == "" && row.Gender != "" {
			merged.Gender = row.Gender
			changed = true
		}
		if changed {
			plan.UpdateCandidate = &merged
		}
		if row.Subject != "" {
			plan.Score = &models.Score{CandidateID: existing.ID, Subject: row.Subject, Value: row.Score}
		}
		return plan, "", nil
	}

	if row.NationalID != "" {
		owner, err := s.candidates.FindByNationalID(ctx, row.NationalID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return plan, "", err
		}
		if owner != nil {
			return plan, fmt.Sprintf("SBD %s: số CCCD %s đã thuộc về SBD %s", row.RegistrationNumber, row.NationalID, owner.RegistrationNumber), nil
		}
	}

	if row.FullName == "" {
		return plan, fmt.Sprintf("SBD %s: thiếu họ tên cho thí sinh mới", row.RegistrationNumber), nil
	}

	plan.InsertCandidate = &models.Candidate{
		RegistrationNumber: row.RegistrationNumber,
		FullName:           row.FullName,
		NationalID:         row.NationalID,
		School:             row.School,
		DateOfBirth:        row.DateOfBirth,
		Gender:             row.Gender,
	}
	if row.Subject != "" {
		plan.Score = &models.Score{Subject: row.Subject, Value: row.Score}
	}
	return plan, "", nil
}

// CreateRecord applies the reconciliation rules to one admin-supplied record.
// Unlike batch import, an existing score for the same subject is rejected
// instead of overwritten.
func (s *ImportService) CreateRecord(ctx context.Context, req CreateRecordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "thiếu thông tin bắt buộc")
	}

	row := importRow{
		RegistrationNumber: upperTrim(req.RegistrationNumber),
		FullName:           upperTrim(req.FullName),
		NationalID:         strings.TrimSpace(req.NationalID),
		School:             upperTrim(req.School),
		Subject:            upperTrim(req.Subject),
		Score:              req.Score,
		DateOfBirth:        normalizeDate(req.DateOfBirth),
		Gender:             strings.TrimSpace(req.Gender),
	}

	plan, rowErr, err := s.reconcile(ctx, row)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể truy cập dữ liệu thí sinh")
	}
	if rowErr != "" {
		return appErrors.Clone(appErrors.ErrConflict, rowErr)
	}

	if plan.InsertCandidate == nil {
		candidateID := ""
		if plan.UpdateCandidate != nil {
			candidateID = plan.UpdateCandidate.ID
		} else if plan.Score != nil {
			candidateID = plan.Score.CandidateID
		}
		exists, err := s.scores.ExistsForSubject(ctx, candidateID, row.Subject)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể kiểm tra điểm hiện có")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("SBD %s: thí sinh đã có điểm môn %s", row.RegistrationNumber, row.Subject))
		}
	}

	if err := s.writer.ApplyRow(ctx, plan); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "không thể lưu bản ghi")
	}

	if err := s.catalog.ResyncSubjects(ctx); err != nil {
		s.logger.Warn("subject catalog resync failed", zap.Error(err))
	}
	return nil
}
