package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
)

const candidateColumns = "id, registration_number, full_name, national_id, school, date_of_birth, gender, created_at, updated_at"

// CandidateRepository manages persistence for the candidate registry.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository constructs a CandidateRepository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// FindByRegistrationNumber fetches the candidate holding the given key.
// Returns sql.ErrNoRows when absent.
func (r *CandidateRepository) FindByRegistrationNumber(ctx context.Context, reg string) (*models.Candidate, error) {
	query := fmt.Sprintf("SELECT %s FROM candidates WHERE registration_number = $1", candidateColumns)
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, reg); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// FindByID fetches one candidate by primary key. Returns sql.ErrNoRows when absent.
func (r *CandidateRepository) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	query := fmt.Sprintf("SELECT %s FROM candidates WHERE id = $1", candidateColumns)
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, id); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// FindByNationalID fetches the candidate holding the given national ID.
// Returns sql.ErrNoRows when absent.
func (r *CandidateRepository) FindByNationalID(ctx context.Context, nationalID string) (*models.Candidate, error) {
	query := fmt.Sprintf("SELECT %s FROM candidates WHERE national_id = $1 LIMIT 1", candidateColumns)
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, nationalID); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// Search returns candidates matching every non-empty filter term, up to limit.
func (r *CandidateRepository) Search(ctx context.Context, filter models.LookupFilter, limit int) ([]models.Candidate, error) {
	conditions := []string{}
	args := []interface{}{}

	if filter.RegistrationNumber != "" {
		conditions = append(conditions, fmt.Sprintf("registration_number = $%d", len(args)+1))
		args = append(args, filter.RegistrationNumber)
	}
	if filter.FullName != "" {
		conditions = append(conditions, fmt.Sprintf("full_name = $%d", len(args)+1))
		args = append(args, filter.FullName)
	}
	if filter.NationalID != "" {
		conditions = append(conditions, fmt.Sprintf("national_id = $%d", len(args)+1))
		args = append(args, filter.NationalID)
	}
	if filter.DateOfBirth != "" {
		conditions = append(conditions, fmt.Sprintf("date_of_birth = $%d", len(args)+1))
		args = append(args, filter.DateOfBirth)
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	if limit <= 0 {
		limit = 2
	}
	query := fmt.Sprintf("SELECT %s FROM candidates WHERE %s ORDER BY registration_number ASC LIMIT %d",
		candidateColumns, strings.Join(conditions, " AND "), limit)

	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	return candidates, nil
}

// UpdateDisplayFields rewrites the candidate's identity fields from an admin edit.
func (r *CandidateRepository) UpdateDisplayFields(ctx context.Context, candidate *models.Candidate) error {
	candidate.UpdatedAt = time.Now().UTC()
	const query = `UPDATE candidates SET full_name = :full_name, registration_number = :registration_number,
        national_id = :national_id, school = :school, date_of_birth = :date_of_birth, gender = :gender,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, candidate); err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	return nil
}

// Count returns the number of registered candidates.
func (r *CandidateRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM candidates"); err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return total, nil
}

// DeleteAll wipes the registry. Callers must remove dependent scores first.
func (r *CandidateRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM candidates"); err != nil {
		return fmt.Errorf("delete all candidates: %w", err)
	}
	return nil
}
