package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// DBTX 统一 *sql.DB 与 *sql.Tx，Repository 实现对两者透明，
// 跨表原子操作通过 Store.WithTx 获得绑定在同一事务上的 Repository 组
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store 五个集合的 Repository 聚合
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	Projects   ProjectsRepository
	Components ComponentsRepository
	QAForms    QAFormsRepository
	QAItems    QAItemsRepository
	Sessions   SessionsRepository
}

// 五个集合对应的表，NewStore 启动自检时逐一确认存在
var requiredTables = []string{"projects", "components", "qa_forms", "qa_items", "qa_sessions"}

// NewStore 构造 Store 并做 schema 自检。
// 自检失败返回错误而不是运行期断言——调用方显式注入，不做包级单例
func NewStore(ctx context.Context, db *sql.DB, logger *zap.Logger) (*Store, error) {
	var missing []string
	for _, table := range requiredTables {
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = current_schema() AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to verify schema: %w", err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("store schema incomplete, missing tables: %s (run apply-migration)",
			strings.Join(missing, ", "))
	}

	s := &Store{db: db, logger: logger}
	s.bind(db)
	return s, nil
}

func (s *Store) bind(q DBTX) {
	s.Projects = NewPostgresProjectsRepository(q)
	s.Components = NewPostgresComponentsRepository(q)
	s.QAForms = NewPostgresQAFormsRepository(q)
	s.QAItems = NewPostgresQAItemsRepository(q)
	s.Sessions = NewPostgresSessionsRepository(q)
}

// DB 底层连接（迁移工具等使用）
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx 在单个事务里执行 fn，fn 收到的 Store 所有 Repository
// 都绑定在该事务上；fn 返回错误时回滚
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &Store{db: s.db, logger: s.logger}
	txStore.bind(sqlTx)

	if err := fn(txStore); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("transaction rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
