package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"factoryqa-data/internal/domain"
)

// PostgresComponentsRepository components 表实现
// qa_items / metadata 以 JSONB 存储，与导出 JSON 的字段形状一致
type PostgresComponentsRepository struct {
	db DBTX
}

func NewPostgresComponentsRepository(db DBTX) *PostgresComponentsRepository {
	return &PostgresComponentsRepository{db: db}
}

var _ ComponentsRepository = (*PostgresComponentsRepository)(nil)

const componentColumns = `
	project_id,
	group_code,
	id,
	type,
	COALESCE(panel_id, '') AS panel_id,
	COALESCE(template_id, '') AS template_id,
	COALESCE(access_guid, '') AS access_guid,
	COALESCE(qa_items, '[]'::jsonb) AS qa_items,
	metadata`

func scanComponent(row interface{ Scan(...any) error }) (*domain.Component, error) {
	var (
		c           domain.Component
		qaItemsRaw  []byte
		metadataRaw []byte
	)
	err := row.Scan(&c.ProjectID, &c.GroupCode, &c.ID, &c.Type,
		&c.PanelID, &c.TemplateID, &c.AccessGUID, &qaItemsRaw, &metadataRaw)
	if err != nil {
		return nil, err
	}
	if len(qaItemsRaw) > 0 {
		if err := json.Unmarshal(qaItemsRaw, &c.QAItems); err != nil {
			return nil, fmt.Errorf("failed to decode qa_items: %w", err)
		}
	}
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &c.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &c, nil
}

func encodeQAItems(items []domain.AccessQAItem) ([]byte, error) {
	if items == nil {
		items = []domain.AccessQAItem{}
	}
	return json.Marshal(items)
}

func encodeMetadata(entries []domain.AccessQAMetadata) (any, error) {
	if entries == nil {
		return nil, nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (r *PostgresComponentsRepository) Get(ctx context.Context, projectID, groupCode, id string) (*domain.Component, error) {
	if projectID == "" || groupCode == "" || id == "" {
		return nil, fmt.Errorf("component composite key is required")
	}
	c, err := scanComponent(r.db.QueryRowContext(ctx,
		`SELECT`+componentColumns+` FROM components
		 WHERE project_id = $1 AND group_code = $2 AND id = $3`,
		projectID, groupCode, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get component: %w", err)
	}
	return c, nil
}

func (r *PostgresComponentsRepository) List(ctx context.Context) ([]domain.Component, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+componentColumns+` FROM components ORDER BY project_id, group_code, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	defer rows.Close()
	return collectComponents(rows)
}

func (r *PostgresComponentsRepository) ListByProject(ctx context.Context, projectID string, filters ComponentFilters) ([]domain.Component, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	query := `SELECT` + componentColumns + ` FROM components WHERE project_id = $1`
	args := []any{projectID}
	if filters.Type != "" {
		args = append(args, string(filters.Type))
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if filters.GroupCode != "" {
		args = append(args, filters.GroupCode)
		query += fmt.Sprintf(` AND group_code = $%d`, len(args))
	}
	if filters.TemplateID != "" {
		args = append(args, filters.TemplateID)
		query += fmt.Sprintf(` AND template_id = $%d`, len(args))
	}
	if filters.PanelID != "" {
		args = append(args, filters.PanelID)
		query += fmt.Sprintf(` AND panel_id = $%d`, len(args))
	}
	query += ` ORDER BY group_code, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	defer rows.Close()
	return collectComponents(rows)
}

func collectComponents(rows *sql.Rows) ([]domain.Component, error) {
	var components []domain.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		components = append(components, *c)
	}
	return components, rows.Err()
}

const componentUpsert = `
	INSERT INTO components (project_id, group_code, id, type, panel_id, template_id, access_guid, qa_items, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (project_id, group_code, id) DO UPDATE SET
		type        = EXCLUDED.type,
		panel_id    = EXCLUDED.panel_id,
		template_id = EXCLUDED.template_id,
		access_guid = EXCLUDED.access_guid,
		qa_items    = EXCLUDED.qa_items,
		metadata    = EXCLUDED.metadata`

func (r *PostgresComponentsRepository) Put(ctx context.Context, component *domain.Component) error {
	qaItems, err := encodeQAItems(component.QAItems)
	if err != nil {
		return fmt.Errorf("failed to encode qa_items: %w", err)
	}
	metadata, err := encodeMetadata(component.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, componentUpsert,
		component.ProjectID, component.GroupCode, component.ID, string(component.Type),
		component.PanelID, component.TemplateID, component.AccessGUID, qaItems, metadata)
	if err != nil {
		return fmt.Errorf("failed to put component: %w", err)
	}
	return nil
}

func (r *PostgresComponentsRepository) UpdateQAItems(ctx context.Context, projectID, groupCode, id string, items []domain.AccessQAItem) error {
	qaItems, err := encodeQAItems(items)
	if err != nil {
		return fmt.Errorf("failed to encode qa_items: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE components SET qa_items = $4
		 WHERE project_id = $1 AND group_code = $2 AND id = $3`,
		projectID, groupCode, id, qaItems)
	if err != nil {
		return fmt.Errorf("failed to update qa_items: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkAdd 逐行 ON CONFLICT DO NOTHING：重复键跳过计数，其余继续。
// 调用方需要整体原子性时套在 Store.WithTx 里
func (r *PostgresComponentsRepository) BulkAdd(ctx context.Context, components []domain.Component) (BulkAddResult, error) {
	var result BulkAddResult
	for i := range components {
		c := &components[i]
		qaItems, err := encodeQAItems(c.QAItems)
		if err != nil {
			return result, fmt.Errorf("failed to encode qa_items: %w", err)
		}
		metadata, err := encodeMetadata(c.Metadata)
		if err != nil {
			return result, fmt.Errorf("failed to encode metadata: %w", err)
		}
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO components (project_id, group_code, id, type, panel_id, template_id, access_guid, qa_items, metadata)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (project_id, group_code, id) DO NOTHING`,
			c.ProjectID, c.GroupCode, c.ID, string(c.Type),
			c.PanelID, c.TemplateID, c.AccessGUID, qaItems, metadata)
		if err != nil {
			return result, fmt.Errorf("failed to bulk add component: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			result.Skipped++
		} else {
			result.Inserted++
		}
	}
	return result, nil
}

func (r *PostgresComponentsRepository) BulkPut(ctx context.Context, components []domain.Component) error {
	for i := range components {
		if err := r.Put(ctx, &components[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresComponentsRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM components`); err != nil {
		return fmt.Errorf("failed to clear components: %w", err)
	}
	return nil
}

func (r *PostgresComponentsRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM components`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count components: %w", err)
	}
	return count, nil
}
