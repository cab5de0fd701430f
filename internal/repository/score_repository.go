package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
)

const scoreDetailColumns = `s.id, s.candidate_id, s.subject, s.score, s.created_at, s.updated_at,
        c.registration_number, c.full_name, c.national_id, c.school, c.date_of_birth, c.gender`

// ScoreRepository manages persistence for subject scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs a ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ListDetails returns one page of scores joined with candidate fields plus the
// total count. Search matches the candidate name or registration number
// case-insensitively. Out-of-range pages come back empty.
func (r *ScoreRepository) ListDetails(ctx context.Context, filter models.RecordFilter) ([]models.ScoreDetail, int, error) {
	base := "FROM scores s JOIN candidates c ON c.id = s.candidate_id"
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.full_name) LIKE $%d OR LOWER(c.registration_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY c.registration_number ASC, s.subject ASC LIMIT %d OFFSET %d`,
		scoreDetailColumns, base, size, offset)

	var details []models.ScoreDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list scores: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count scores: %w", err)
	}
	return details, total, nil
}

// ListAllDetails returns every score joined with candidate fields, for export.
func (r *ScoreRepository) ListAllDetails(ctx context.Context) ([]models.ScoreDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM scores s JOIN candidates c ON c.id = s.candidate_id
        ORDER BY c.registration_number ASC, s.subject ASC`, scoreDetailColumns)
	var details []models.ScoreDetail
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, fmt.Errorf("list all scores: %w", err)
	}
	return details, nil
}

// FindByCandidate returns all scores belonging to one candidate.
func (r *ScoreRepository) FindByCandidate(ctx context.Context, candidateID string) ([]models.Score, error) {
	const query = `SELECT id, candidate_id, subject, score, created_at, updated_at
        FROM scores WHERE candidate_id = $1 ORDER BY subject ASC`
	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, candidateID); err != nil {
		return nil, fmt.Errorf("find scores by candidate: %w", err)
	}
	return scores, nil
}

// FindByID fetches a single score row. Returns sql.ErrNoRows when absent.
func (r *ScoreRepository) FindByID(ctx context.Context, id string) (*models.Score, error) {
	const query = `SELECT id, candidate_id, subject, score, created_at, updated_at FROM scores WHERE id = $1`
	var score models.Score
	if err := r.db.GetContext(ctx, &score, query, id); err != nil {
		return nil, err
	}
	return &score, nil
}

// ExistsForSubject checks whether the candidate already has a score in subject.
func (r *ScoreRepository) ExistsForSubject(ctx context.Context, candidateID, subject string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM scores WHERE candidate_id = $1 AND subject = $2 LIMIT 1", candidateID, subject)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check score: %w", err)
	}
	return true, nil
}

// Update rewrites the subject and value of an existing score row.
func (r *ScoreRepository) Update(ctx context.Context, score *models.Score) error {
	score.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scores SET subject = :subject, score = :score, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}

// DeleteByID removes one score row.
func (r *ScoreRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM scores WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	return nil
}

// DeleteAll removes every score row. Run before wiping candidates.
func (r *ScoreRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM scores"); err != nil {
		return fmt.Errorf("delete all scores: %w", err)
	}
	return nil
}

// DistinctSubjects returns the sorted set of subject names present in scores.
func (r *ScoreRepository) DistinctSubjects(ctx context.Context) ([]string, error) {
	var subjects []string
	if err := r.db.SelectContext(ctx, &subjects, "SELECT DISTINCT subject FROM scores ORDER BY subject ASC"); err != nil {
		return nil, fmt.Errorf("distinct subjects: %w", err)
	}
	return subjects, nil
}

// Count returns the number of score rows.
func (r *ScoreRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM scores"); err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return total, nil
}
