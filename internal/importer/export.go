package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"factoryqa-data/internal/domain"
)

// ExportPayload 导出快照：五个集合的深拷贝，与种子载荷同构，
// 导出后重新导入不丢字段
type ExportPayload struct {
	Projects   []domain.Project         `json:"projects"`
	Components []domain.Component       `json:"components"`
	QAForms    []domain.QAForm          `json:"qa_forms"`
	QAItems    []domain.QAItem          `json:"qa_items"`
	QASessions []domain.QASessionRecord `json:"qa_sessions"`
}

// BuildExportPayload 汇出全库快照。
// 所有记录深拷贝，导出结果与存储记录不共享引用
func (p *Pipeline) BuildExportPayload(ctx context.Context) (*ExportPayload, error) {
	projects, err := p.store.Projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export projects: %w", err)
	}
	components, err := p.store.Components.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export components: %w", err)
	}
	forms, err := p.store.QAForms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export qa_forms: %w", err)
	}
	items, err := p.store.QAItems.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export qa_items: %w", err)
	}
	sessions, err := p.store.Sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export qa_sessions: %w", err)
	}

	payload := &ExportPayload{
		Projects:   make([]domain.Project, 0, len(projects)),
		Components: make([]domain.Component, 0, len(components)),
		QAForms:    make([]domain.QAForm, 0, len(forms)),
		QAItems:    make([]domain.QAItem, 0, len(items)),
		QASessions: make([]domain.QASessionRecord, 0, len(sessions)),
	}
	for _, project := range projects {
		payload.Projects = append(payload.Projects, project.Clone())
	}
	for _, component := range components {
		cloned := component.Clone()
		if cloned.QAItems == nil {
			cloned.QAItems = []domain.AccessQAItem{}
		}
		payload.Components = append(payload.Components, cloned)
	}
	payload.QAForms = append(payload.QAForms, forms...)
	payload.QAItems = append(payload.QAItems, items...)
	for _, session := range sessions {
		cloned := session
		if session.Data != nil {
			cloned.Data = append(json.RawMessage(nil), session.Data...)
		}
		if session.TemplateID != nil {
			templateID := *session.TemplateID
			cloned.TemplateID = &templateID
		}
		payload.QASessions = append(payload.QASessions, cloned)
	}
	return payload, nil
}

// ExportJSON 序列化快照（带缩进，与导出文件逐字节一致）
func (p *Pipeline) ExportJSON(ctx context.Context) ([]byte, error) {
	payload, err := p.BuildExportPayload(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export payload: %w", err)
	}
	return raw, nil
}

// FormatExportFilename 导出文件名 factory-qa-export-<YYYYMMDD-HHMMSS>.json
func FormatExportFilename(now time.Time) string {
	return "factory-qa-export-" + now.Format("20060102-150405") + ".json"
}
