package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factoryqa-data/internal/domain"
)

func setupMockComponentsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresComponentsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresComponentsRepository(db)
}

func TestComponentsGet_NotFound(t *testing.T) {
	db, mock, repo := setupMockComponentsDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("p1", "EW_0", "001").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "p1", "EW_0", "001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComponentsGet_Success(t *testing.T) {
	db, mock, repo := setupMockComponentsDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"project_id", "group_code", "id", "type",
		"panel_id", "template_id", "access_guid", "qa_items", "metadata",
	}).AddRow(
		"p1", "EW_0", "001", "ew",
		"EW_0001", "EW_I1E1", "230041_EW_0001",
		`[{"title":"Framing check for square","result":"yes","photoTaken":"","signee":"","timestamp":""}]`,
		nil,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs("p1", "EW_0", "001").
		WillReturnRows(rows)

	component, err := repo.Get(context.Background(), "p1", "EW_0", "001")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeExternalWall, component.Type)
	assert.Equal(t, "EW_0001", component.PanelID)
	require.Len(t, component.QAItems, 1)
	assert.Equal(t, "yes", component.QAItems[0].Result)
	assert.Nil(t, component.Metadata)
}

// BulkAdd 部分成功：第二条复合键冲突被跳过，第一、三条照常插入
func TestComponentsBulkAdd_PartialSuccess(t *testing.T) {
	db, mock, repo := setupMockComponentsDB(t)
	defer db.Close()

	components := []domain.Component{
		{Type: domain.TypeExternalWall, ProjectID: "p1", GroupCode: "EW_0", ID: "001"},
		{Type: domain.TypeExternalWall, ProjectID: "p1", GroupCode: "EW_0", ID: "002"},
		{Type: domain.TypeInternalWall, ProjectID: "p1", GroupCode: "IW_0", ID: "001"},
	}

	mock.ExpectExec(`INSERT INTO components`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO components`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO components`).WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := repo.BulkAdd(context.Background(), components)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComponentsUpdateQAItems_NotFound(t *testing.T) {
	db, mock, repo := setupMockComponentsDB(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE components`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateQAItems(context.Background(), "p1", "EW_0", "404", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
