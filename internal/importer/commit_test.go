package importer

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"factoryqa-data/internal/domain"
	"factoryqa-data/internal/repository"
)

// newMockPipeline 构造绑定在 sqlmock 上的 Store 与管线。
// NewStore 启动时逐表自检，先喂满五次存在性查询
func newMockPipeline(t *testing.T) (*Pipeline, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}

	store, err := repository.NewStore(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	return NewPipeline(store, zap.NewNop(), "", ""), mock, db
}

func TestCommit_RejectsAnalysisWithErrors(t *testing.T) {
	pipeline, _, db := newMockPipeline(t)
	defer db.Close()

	analysis := &Analysis{
		Project: &domain.Project{ProjectID: "p1", ProjectCode: "230041"},
		Errors:  []Issue{{Message: "Missing id for component.", Path: "components[0].id"}},
	}

	_, err := pipeline.Commit(context.Background(), analysis)
	assert.ErrorIs(t, err, ErrAnalysisHasErrors)
}

func TestCommit_RejectsMissingProject(t *testing.T) {
	pipeline, _, db := newMockPipeline(t)
	defer db.Close()

	_, err := pipeline.Commit(context.Background(), &Analysis{})
	assert.ErrorIs(t, err, ErrNoNormalizedProject)

	_, err = pipeline.Commit(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoNormalizedProject)
}

func TestCommit_InsertsNewProjectAndComponents(t *testing.T) {
	pipeline, mock, db := newMockPipeline(t)
	defer db.Close()

	analysis := &Analysis{
		Project: &domain.Project{ProjectID: "p1", ProjectCode: "230041"},
		Components: []domain.Component{
			{Type: domain.TypeExternalWall, ProjectID: "p1", GroupCode: "EW_0", ID: "001"},
			{Type: domain.TypeExternalWall, ProjectID: "p1", GroupCode: "EW_0", ID: "002"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT`).WithArgs("p1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO projects`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO components`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO components`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	result, err := pipeline.Commit(context.Background(), analysis)
	require.NoError(t, err)
	assert.True(t, result.ProjectInserted)
	assert.False(t, result.ProjectUpdated)
	assert.Equal(t, 1, result.InsertedComponents)
	assert.Equal(t, 1, result.SkippedComponents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_UpdatesExistingProject(t *testing.T) {
	pipeline, mock, db := newMockPipeline(t)
	defer db.Close()

	analysis := &Analysis{
		Project: &domain.Project{ProjectID: "p1", ProjectCode: "230041", ProjectName: "Alpine Homes"},
	}

	rows := sqlmock.NewRows([]string{
		"project_id", "project_code", "project_name", "status", "start_date", "end_date",
	}).AddRow("p1", "230041", "Old Name", "active", "", "")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT`).WithArgs("p1").WillReturnRows(rows)
	mock.ExpectExec(`UPDATE projects`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := pipeline.Commit(context.Background(), analysis)
	require.NoError(t, err)
	assert.True(t, result.ProjectUpdated)
	assert.False(t, result.ProjectInserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_RollsBackOnFailure(t *testing.T) {
	pipeline, mock, db := newMockPipeline(t)
	defer db.Close()

	analysis := &Analysis{
		Project: &domain.Project{ProjectID: "p1", ProjectCode: "230041"},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT`).WithArgs("p1").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO projects`).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := pipeline.Commit(context.Background(), analysis)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportSeedPayload_ClearExisting(t *testing.T) {
	pipeline, mock, db := newMockPipeline(t)
	defer db.Close()

	payload := &SeedPayload{
		Projects: []domain.Project{{ProjectID: "p1", ProjectCode: "230041"}},
		Components: []domain.Component{
			{Type: domain.TypeExternalWall, ProjectID: "p1", GroupCode: "EW_0", ID: "001"},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM projects`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM components`).WillReturnResult(sqlmock.NewResult(0, 9))
	mock.ExpectExec(`DELETE FROM qa_forms`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM qa_items`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM qa_sessions`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO projects`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO components`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := pipeline.ImportSeedPayload(context.Background(), payload, ImportOptions{ClearExisting: true})
	require.NoError(t, err)
	assert.True(t, result.Cleared)
	assert.Equal(t, 1, result.Counts.Projects)
	assert.Equal(t, 1, result.Counts.Components)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedIfEmpty_SkipsWhenStoreHasData(t *testing.T) {
	pipeline, mock, db := newMockPipeline(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	seeded, err := pipeline.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
