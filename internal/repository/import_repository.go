package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
)

// RowPlan is the write set of one reconciled import row. At most one of
// InsertCandidate / UpdateCandidate is set; Score is optional.
type RowPlan struct {
	InsertCandidate *models.Candidate
	UpdateCandidate *models.Candidate
	Score           *models.Score
}

// ImportRepository applies reconciled import rows to the store.
type ImportRepository struct {
	db *sqlx.DB
}

// NewImportRepository constructs an ImportRepository.
func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// ApplyRow executes one row's candidate write plus score upsert inside a
// single transaction, so a row is either fully applied or not at all.
func (r *ImportRepository) ApplyRow(ctx context.Context, plan RowPlan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import row tx: %w", err)
	}

	now := time.Now().UTC()
	candidateID := ""

	if plan.InsertCandidate != nil {
		candidate := plan.InsertCandidate
		if candidate.ID == "" {
			candidate.ID = uuid.NewString()
		}
		candidate.CreatedAt = now
		candidate.UpdatedAt = now
		const query = `INSERT INTO candidates (id, registration_number, full_name, national_id, school, date_of_birth, gender, created_at, updated_at)
            VALUES (:id, :registration_number, :full_name, :national_id, :school, :date_of_birth, :gender, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, candidate); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert candidate: %w", err)
		}
		candidateID = candidate.ID
	}

	if plan.UpdateCandidate != nil {
		candidate := plan.UpdateCandidate
		candidate.UpdatedAt = now
		const query = `UPDATE candidates SET national_id = :national_id, school = :school,
            date_of_birth = :date_of_birth, gender = :gender, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, query, candidate); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update candidate: %w", err)
		}
		candidateID = candidate.ID
	}

	if plan.Score != nil {
		score := plan.Score
		if score.CandidateID == "" {
			score.CandidateID = candidateID
		}
		if score.ID == "" {
			score.ID = uuid.NewString()
		}
		score.CreatedAt = now
		score.UpdatedAt = now
		const query = `INSERT INTO scores (id, candidate_id, subject, score, created_at, updated_at)
            VALUES (:id, :candidate_id, :subject, :score, :created_at, :updated_at)
            ON CONFLICT (candidate_id, subject)
            DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, query, score); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import row: %w", err)
	}
	return nil
}
