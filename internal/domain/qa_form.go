package domain

// QAForm 旧版 QA 表单（对应 qa_forms 表）
// 最终形态已不再使用，保留 schema 兼容以便 seed/export 往返
type QAForm struct {
	FormID    string `db:"form_id" json:"form_id"`
	ProjectID string `db:"project_id" json:"project_id"`
	Status    string `db:"status" json:"status,omitempty"` // draft/submitted/exported
	CreatedAt string `db:"created_at" json:"created_at,omitempty"`
}

// QAItem 旧版 QA 条目（对应 qa_items 表）
type QAItem struct {
	ItemID    string `db:"item_id" json:"item_id"`
	FormID    string `db:"form_id" json:"form_id"`
	Result    string `db:"result" json:"result,omitempty"`
	Timestamp string `db:"timestamp" json:"timestamp,omitempty"`
}
