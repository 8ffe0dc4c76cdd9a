package repository

import (
	"context"
	"database/sql"
	"fmt"

	"factoryqa-data/internal/domain"
)

// PostgresSessionsRepository qa_sessions 表实现
type PostgresSessionsRepository struct {
	db DBTX
}

func NewPostgresSessionsRepository(db DBTX) *PostgresSessionsRepository {
	return &PostgresSessionsRepository{db: db}
}

var _ SessionsRepository = (*PostgresSessionsRepository)(nil)

const sessionColumns = `session_id, project_id, component_key, template_id, data, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*domain.QASessionRecord, error) {
	var (
		rec        domain.QASessionRecord
		templateID sql.NullString
		data       []byte
	)
	if err := row.Scan(&rec.SessionID, &rec.ProjectID, &rec.ComponentKey,
		&templateID, &data, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if templateID.Valid {
		rec.TemplateID = &templateID.String
	}
	rec.Data = data
	return &rec, nil
}

func (r *PostgresSessionsRepository) Get(ctx context.Context, sessionID string) (*domain.QASessionRecord, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	rec, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM qa_sessions WHERE session_id = $1`, sessionID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get qa_session: %w", err)
	}
	return rec, nil
}

func (r *PostgresSessionsRepository) List(ctx context.Context) ([]domain.QASessionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM qa_sessions ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list qa_sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *PostgresSessionsRepository) ListByComponent(ctx context.Context, projectID, componentKey string) ([]domain.QASessionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM qa_sessions
		 WHERE project_id = $1 AND component_key = $2
		 ORDER BY session_id`, projectID, componentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list qa_sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows *sql.Rows) ([]domain.QASessionRecord, error) {
	var records []domain.QASessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan qa_session: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *PostgresSessionsRepository) Put(ctx context.Context, record *domain.QASessionRecord) error {
	var templateID any
	if record.TemplateID != nil {
		templateID = *record.TemplateID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO qa_sessions (session_id, project_id, component_key, template_id, data, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id) DO UPDATE SET
			project_id    = EXCLUDED.project_id,
			component_key = EXCLUDED.component_key,
			template_id   = EXCLUDED.template_id,
			data          = EXCLUDED.data,
			updated_at    = EXCLUDED.updated_at`,
		record.SessionID, record.ProjectID, record.ComponentKey,
		templateID, []byte(record.Data), record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put qa_session: %w", err)
	}
	return nil
}

func (r *PostgresSessionsRepository) BulkPut(ctx context.Context, records []domain.QASessionRecord) error {
	for i := range records {
		if err := r.Put(ctx, &records[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresSessionsRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM qa_sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete qa_session: %w", err)
	}
	return nil
}

func (r *PostgresSessionsRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM qa_sessions`); err != nil {
		return fmt.Errorf("failed to clear qa_sessions: %w", err)
	}
	return nil
}

func (r *PostgresSessionsRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qa_sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count qa_sessions: %w", err)
	}
	return count, nil
}
