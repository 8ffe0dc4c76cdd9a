package repository

import (
	"context"

	"factoryqa-data/internal/domain"
)

// SessionsRepository 可恢复 QA 会话集合（主键 session_id，
// 复合索引 project_id + component_key）
type SessionsRepository interface {
	Get(ctx context.Context, sessionID string) (*domain.QASessionRecord, error)
	List(ctx context.Context) ([]domain.QASessionRecord, error)

	// ListByComponent 同一构件可能挂多条会话（模板切换后旧会话成为孤儿但不删除）
	ListByComponent(ctx context.Context, projectID, componentKey string) ([]domain.QASessionRecord, error)

	// Put upsert——同键永远只有一条记录
	Put(ctx context.Context, record *domain.QASessionRecord) error
	BulkPut(ctx context.Context, records []domain.QASessionRecord) error

	Delete(ctx context.Context, sessionID string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
