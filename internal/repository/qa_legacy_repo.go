package repository

import (
	"context"

	"factoryqa-data/internal/domain"
)

// QAFormsRepository 旧版 qa_forms 集合。
// 最终形态不再写入，保留 schema 兼容供 seed/export 往返
type QAFormsRepository interface {
	List(ctx context.Context) ([]domain.QAForm, error)
	BulkPut(ctx context.Context, forms []domain.QAForm) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// QAItemsRepository 旧版 qa_items 集合
type QAItemsRepository interface {
	List(ctx context.Context) ([]domain.QAItem, error)
	BulkPut(ctx context.Context, items []domain.QAItem) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
