package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
)

func TestImportRepositoryApplyRowInsertWithScore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewImportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO candidates").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO scores .+ ON CONFLICT \\(candidate_id, subject\\)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	plan := RowPlan{
		InsertCandidate: &models.Candidate{RegistrationNumber: "HSG001", FullName: "NGUYỄN VĂN AN"},
		Score:           &models.Score{Subject: "TOÁN", Value: 8.5},
	}
	require.NoError(t, repo.ApplyRow(context.Background(), plan))

	assert.NotEmpty(t, plan.InsertCandidate.ID, "insert must mint a candidate id")
	assert.Equal(t, plan.InsertCandidate.ID, plan.Score.CandidateID, "score must attach to the new candidate")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRepositoryApplyRowUpdateWithScore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewImportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE candidates SET national_id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO scores").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	plan := RowPlan{
		UpdateCandidate: &models.Candidate{ID: "cand-1", NationalID: "012345678901"},
		Score:           &models.Score{Subject: "VĂN", Value: 7},
	}
	require.NoError(t, repo.ApplyRow(context.Background(), plan))
	assert.Equal(t, "cand-1", plan.Score.CandidateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRepositoryApplyRowScoreOnly(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewImportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scores").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	plan := RowPlan{Score: &models.Score{CandidateID: "cand-1", Subject: "TOÁN", Value: 9.25}}
	require.NoError(t, repo.ApplyRow(context.Background(), plan))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportRepositoryApplyRowRollsBackOnScoreFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewImportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO candidates").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO scores").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	plan := RowPlan{
		InsertCandidate: &models.Candidate{RegistrationNumber: "HSG002", FullName: "TRẦN THỊ BÌNH"},
		Score:           &models.Score{Subject: "TOÁN", Value: 6},
	}
	err := repo.ApplyRow(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert score")
	assert.NoError(t, mock.ExpectationsWereMet())
}
