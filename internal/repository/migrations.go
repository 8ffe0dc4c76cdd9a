package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Migration 一个 schema 版本。
// 键或索引形状不兼容时必须在本版本里显式声明破坏性语句
// （DROP/DELETE），不允许靠推断；Destructive 仅作日志提示
type Migration struct {
	Version     int
	Comment     string
	Destructive bool
	Statements  []string
}

// Migrations 版本历史。版本号与最初的浏览器端 IndexedDB 库保持一致：
// v1 只有 projects；v2 引入 decks+components；v3 移除 decks、组件挂到
// 项目下并清空旧数据；v4 组件改复合主键再次清空；v5 新增 qa_sessions
var Migrations = []Migration{
	{
		Version: 1,
		Comment: "projects only",
		Statements: []string{
			`CREATE TABLE projects (
				project_id   TEXT PRIMARY KEY,
				project_code TEXT NOT NULL,
				project_name TEXT,
				status       TEXT,
				start_date   TEXT,
				end_date     TEXT
			)`,
			`CREATE INDEX idx_projects_project_code ON projects (project_code)`,
			`CREATE INDEX idx_projects_status ON projects (status)`,
		},
	},
	{
		Version: 2,
		Comment: "decks + components",
		Statements: []string{
			`CREATE TABLE decks (
				id         TEXT PRIMARY KEY,
				project_id TEXT NOT NULL,
				name       TEXT
			)`,
			`CREATE TABLE components (
				id      TEXT PRIMARY KEY,
				deck_id TEXT,
				type    TEXT,
				label   TEXT
			)`,
		},
	},
	{
		Version:     3,
		Comment:     "drop decks, Access-style component grouping, qa_forms/qa_items",
		Destructive: true,
		Statements: []string{
			`DROP TABLE IF EXISTS decks`,
			// v2 组件键形状不兼容，显式清掉重建；新 seed 会重新灌入
			`DROP TABLE IF EXISTS components`,
			`CREATE TABLE components (
				id          TEXT PRIMARY KEY,
				project_id  TEXT NOT NULL,
				type        TEXT NOT NULL,
				group_code  TEXT,
				panel_id    TEXT
			)`,
			`CREATE TABLE qa_forms (
				form_id    TEXT PRIMARY KEY,
				project_id TEXT NOT NULL,
				status     TEXT,
				created_at TEXT
			)`,
			`CREATE INDEX idx_qa_forms_project_id ON qa_forms (project_id)`,
			`CREATE INDEX idx_qa_forms_status ON qa_forms (status)`,
			`CREATE INDEX idx_qa_forms_created_at ON qa_forms (created_at)`,
			`CREATE TABLE qa_items (
				item_id   TEXT PRIMARY KEY,
				form_id   TEXT NOT NULL,
				result    TEXT,
				timestamp TEXT
			)`,
			`CREATE INDEX idx_qa_items_form_id ON qa_items (form_id)`,
			`CREATE INDEX idx_qa_items_result ON qa_items (result)`,
		},
	},
	{
		Version:     4,
		Comment:     "components composite primary key (project_id, group_code, id)",
		Destructive: true,
		Statements: []string{
			`DROP TABLE IF EXISTS components`,
			`CREATE TABLE components (
				project_id  TEXT NOT NULL,
				group_code  TEXT NOT NULL,
				id          TEXT NOT NULL,
				type        TEXT NOT NULL,
				panel_id    TEXT NOT NULL DEFAULT '',
				template_id TEXT NOT NULL DEFAULT '',
				access_guid TEXT NOT NULL DEFAULT '',
				qa_items    JSONB NOT NULL DEFAULT '[]'::jsonb,
				metadata    JSONB,
				PRIMARY KEY (project_id, group_code, id)
			)`,
			`CREATE INDEX idx_components_project_id ON components (project_id)`,
			`CREATE INDEX idx_components_group_code ON components (group_code)`,
			`CREATE INDEX idx_components_id ON components (id)`,
			`CREATE INDEX idx_components_type ON components (type)`,
			`CREATE INDEX idx_components_template_id ON components (template_id)`,
			`CREATE INDEX idx_components_panel_id ON components (panel_id)`,
		},
	},
	{
		Version: 5,
		Comment: "resumable qa_sessions",
		Statements: []string{
			`CREATE TABLE qa_sessions (
				session_id    TEXT PRIMARY KEY,
				project_id    TEXT NOT NULL,
				component_key TEXT NOT NULL,
				template_id   TEXT,
				data          JSONB NOT NULL,
				updated_at    TEXT NOT NULL
			)`,
			`CREATE INDEX idx_qa_sessions_component ON qa_sessions (project_id, component_key)`,
		},
	},
}

// SchemaVersion 当前已应用的最高版本；尚未迁移过时返回 0
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = 'schema_migrations'
		)`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_migrations: %w", err)
	}
	if !exists {
		return 0, nil
	}

	var version sql.NullInt64
	err = db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// Migrate 应用所有未执行的迁移，每个版本一个事务
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			comment    TEXT,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		if m.Destructive {
			logger.Warn("applying destructive migration",
				zap.Int("version", m.Version), zap.String("comment", m.Comment))
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		for _, stmt := range m.Statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d failed: %w", m.Version, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, comment) VALUES ($1, $2)`,
			m.Version, m.Comment); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		logger.Info("migration applied",
			zap.Int("version", m.Version), zap.String("comment", m.Comment))
	}
	return nil
}
