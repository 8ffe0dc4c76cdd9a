package repository

import (
	"context"
	"fmt"

	"factoryqa-data/internal/domain"
)

// PostgresQAFormsRepository qa_forms 表实现
type PostgresQAFormsRepository struct {
	db DBTX
}

func NewPostgresQAFormsRepository(db DBTX) *PostgresQAFormsRepository {
	return &PostgresQAFormsRepository{db: db}
}

var _ QAFormsRepository = (*PostgresQAFormsRepository)(nil)

func (r *PostgresQAFormsRepository) List(ctx context.Context) ([]domain.QAForm, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT form_id, project_id, COALESCE(status, ''), COALESCE(created_at, '')
		 FROM qa_forms ORDER BY created_at, form_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list qa_forms: %w", err)
	}
	defer rows.Close()

	var forms []domain.QAForm
	for rows.Next() {
		var f domain.QAForm
		if err := rows.Scan(&f.FormID, &f.ProjectID, &f.Status, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan qa_form: %w", err)
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

func (r *PostgresQAFormsRepository) BulkPut(ctx context.Context, forms []domain.QAForm) error {
	for i := range forms {
		f := &forms[i]
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO qa_forms (form_id, project_id, status, created_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (form_id) DO UPDATE SET
				project_id = EXCLUDED.project_id,
				status     = EXCLUDED.status,
				created_at = EXCLUDED.created_at`,
			f.FormID, f.ProjectID, f.Status, f.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to put qa_form: %w", err)
		}
	}
	return nil
}

func (r *PostgresQAFormsRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM qa_forms`); err != nil {
		return fmt.Errorf("failed to clear qa_forms: %w", err)
	}
	return nil
}

func (r *PostgresQAFormsRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qa_forms`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count qa_forms: %w", err)
	}
	return count, nil
}

// PostgresQAItemsRepository qa_items 表实现
type PostgresQAItemsRepository struct {
	db DBTX
}

func NewPostgresQAItemsRepository(db DBTX) *PostgresQAItemsRepository {
	return &PostgresQAItemsRepository{db: db}
}

var _ QAItemsRepository = (*PostgresQAItemsRepository)(nil)

func (r *PostgresQAItemsRepository) List(ctx context.Context) ([]domain.QAItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_id, form_id, COALESCE(result, ''), COALESCE(timestamp, '')
		 FROM qa_items ORDER BY item_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list qa_items: %w", err)
	}
	defer rows.Close()

	var items []domain.QAItem
	for rows.Next() {
		var it domain.QAItem
		if err := rows.Scan(&it.ItemID, &it.FormID, &it.Result, &it.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan qa_item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresQAItemsRepository) BulkPut(ctx context.Context, items []domain.QAItem) error {
	for i := range items {
		it := &items[i]
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO qa_items (item_id, form_id, result, timestamp)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (item_id) DO UPDATE SET
				form_id   = EXCLUDED.form_id,
				result    = EXCLUDED.result,
				timestamp = EXCLUDED.timestamp`,
			it.ItemID, it.FormID, it.Result, it.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to put qa_item: %w", err)
		}
	}
	return nil
}

func (r *PostgresQAItemsRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM qa_items`); err != nil {
		return fmt.Errorf("failed to clear qa_items: %w", err)
	}
	return nil
}

func (r *PostgresQAItemsRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qa_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count qa_items: %w", err)
	}
	return count, nil
}
