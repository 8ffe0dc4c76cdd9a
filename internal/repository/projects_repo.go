package repository

import (
	"context"

	"factoryqa-data/internal/domain"
)

// ProjectsRepository 项目集合（主键 project_id）
type ProjectsRepository interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)

	// Add 主键冲突时报错（导入区分新增/更新要用到）
	Add(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error

	// Put upsert，后写覆盖
	Put(ctx context.Context, project *domain.Project) error
	BulkPut(ctx context.Context, projects []domain.Project) error

	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
