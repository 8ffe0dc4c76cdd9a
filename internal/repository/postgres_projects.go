package repository

import (
	"context"
	"database/sql"
	"fmt"

	"factoryqa-data/internal/domain"
)

// PostgresProjectsRepository projects 表实现
type PostgresProjectsRepository struct {
	db DBTX
}

func NewPostgresProjectsRepository(db DBTX) *PostgresProjectsRepository {
	return &PostgresProjectsRepository{db: db}
}

// 确保实现了接口
var _ ProjectsRepository = (*PostgresProjectsRepository)(nil)

const projectColumns = `
	project_id,
	project_code,
	COALESCE(project_name, '') AS project_name,
	COALESCE(status, '') AS status,
	COALESCE(start_date, '') AS start_date,
	COALESCE(end_date, '') AS end_date`

func scanProject(row interface{ Scan(...any) error }) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ProjectID, &p.ProjectCode, &p.ProjectName, &p.Status, &p.StartDate, &p.EndDate)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresProjectsRepository) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT`+projectColumns+` FROM projects WHERE project_id = $1`, projectID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (r *PostgresProjectsRepository) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+projectColumns+` FROM projects ORDER BY project_code, project_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *PostgresProjectsRepository) Add(ctx context.Context, project *domain.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (project_id, project_code, project_name, status, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		project.ProjectID, project.ProjectCode, project.ProjectName,
		project.Status, project.StartDate, project.EndDate)
	if err != nil {
		return fmt.Errorf("failed to add project: %w", err)
	}
	return nil
}

func (r *PostgresProjectsRepository) Update(ctx context.Context, project *domain.Project) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects
		 SET project_code = $2, project_name = $3, status = $4, start_date = $5, end_date = $6
		 WHERE project_id = $1`,
		project.ProjectID, project.ProjectCode, project.ProjectName,
		project.Status, project.StartDate, project.EndDate)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresProjectsRepository) Put(ctx context.Context, project *domain.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (project_id, project_code, project_name, status, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (project_id) DO UPDATE SET
			project_code = EXCLUDED.project_code,
			project_name = EXCLUDED.project_name,
			status       = EXCLUDED.status,
			start_date   = EXCLUDED.start_date,
			end_date     = EXCLUDED.end_date`,
		project.ProjectID, project.ProjectCode, project.ProjectName,
		project.Status, project.StartDate, project.EndDate)
	if err != nil {
		return fmt.Errorf("failed to put project: %w", err)
	}
	return nil
}

func (r *PostgresProjectsRepository) BulkPut(ctx context.Context, projects []domain.Project) error {
	for i := range projects {
		if err := r.Put(ctx, &projects[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresProjectsRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return fmt.Errorf("failed to clear projects: %w", err)
	}
	return nil
}

func (r *PostgresProjectsRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}
