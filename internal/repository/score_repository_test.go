package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
)

func scoreDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "candidate_id", "subject", "score", "created_at", "updated_at",
		"registration_number", "full_name", "national_id", "school", "date_of_birth", "gender",
	})
}

func TestScoreRepositoryListDetails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT .+ FROM scores s JOIN candidates c ON c.id = s.candidate_id WHERE 1=1 ORDER BY c.registration_number ASC, s.subject ASC LIMIT 20 OFFSET 0").
		WillReturnRows(scoreDetailRows().
			AddRow("score-1", "cand-1", "TOÁN", 8.5, now, now, "HSG001", "NGUYỄN VĂN AN", "", "", "", "").
			AddRow("score-2", "cand-1", "VĂN", 7.0, now, now, "HSG001", "NGUYỄN VĂN AN", "", "", "", ""))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM scores s JOIN candidates c").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	details, total, err := repo.ListDetails(context.Background(), models.RecordFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, details, 2)
	assert.Equal(t, "TOÁN", details[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryListDetailsSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectQuery("LOWER\\(c.full_name\\) LIKE \\$1 OR LOWER\\(c.registration_number\\) LIKE \\$1").
		WithArgs("%an%").
		WillReturnRows(scoreDetailRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM scores").
		WithArgs("%an%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	details, total, err := repo.ListDetails(context.Background(), models.RecordFilter{Search: "AN"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFindByCandidate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM scores WHERE candidate_id = \\$1 ORDER BY subject ASC").
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "candidate_id", "subject", "score", "created_at", "updated_at"}).
			AddRow("score-1", "cand-1", "TOÁN", 8.5, now, now))

	scores, err := repo.FindByCandidate(context.Background(), "cand-1")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 8.5, scores[0].Value, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectQuery("FROM scores WHERE id = \\$1").
		WithArgs("score-404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "score-404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestScoreRepositoryExistsForSubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectQuery("SELECT 1 FROM scores WHERE candidate_id = \\$1 AND subject = \\$2").
		WithArgs("cand-1", "TOÁN").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM scores WHERE candidate_id = \\$1 AND subject = \\$2").
		WithArgs("cand-1", "LÝ").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsForSubject(context.Background(), "cand-1", "TOÁN")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForSubject(context.Background(), "cand-1", "LÝ")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryDistinctSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectQuery("SELECT DISTINCT subject FROM scores ORDER BY subject ASC").
		WillReturnRows(sqlmock.NewRows([]string{"subject"}).AddRow("TOÁN").AddRow("VĂN"))

	subjects, err := repo.DistinctSubjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"TOÁN", "VĂN"}, subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec("DELETE FROM scores").WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.DeleteAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
