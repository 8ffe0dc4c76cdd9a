package repository

import (
	"context"

	"factoryqa-data/internal/domain"
)

// ComponentFilters 组件列表过滤器（声明过的二级索引字段）
type ComponentFilters struct {
	Type       domain.ComponentType // 可选
	GroupCode  string               // 可选
	TemplateID string               // 可选
	PanelID    string               // 可选
}

// BulkAddResult 批量插入结果：重复键逐行跳过，不中断整批
type BulkAddResult struct {
	Inserted int
	Skipped  int
}

// ComponentsRepository 组件集合
// 复合主键 (project_id, group_code, id)，创建后不可变
type ComponentsRepository interface {
	Get(ctx context.Context, projectID, groupCode, id string) (*domain.Component, error)
	List(ctx context.Context) ([]domain.Component, error)
	ListByProject(ctx context.Context, projectID string, filters ComponentFilters) ([]domain.Component, error)

	// Put upsert 整条记录
	Put(ctx context.Context, component *domain.Component) error

	// UpdateQAItems 只回写 qa_items 投影（会话保存路径）
	UpdateQAItems(ctx context.Context, projectID, groupCode, id string, items []domain.AccessQAItem) error

	// BulkAdd 部分成功语义：已存在的键计入 Skipped，其余照常插入
	BulkAdd(ctx context.Context, components []domain.Component) (BulkAddResult, error)
	BulkPut(ctx context.Context, components []domain.Component) error

	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
