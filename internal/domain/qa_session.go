package domain

import "encoding/json"

// QASessionRecord 可恢复 QA 会话记录（对应 qa_sessions 表）
// session_id = project_id::component_key::模板（无模板时用 DEFAULT 哨兵），
// 同键永远只有一条记录：首次保存时创建，之后每次保存整条 put 覆盖
type QASessionRecord struct {
	// 主键
	SessionID string `db:"session_id" json:"session_id"`

	// 复合索引 project_id + component_key
	ProjectID    string `db:"project_id" json:"project_id"`
	ComponentKey string `db:"component_key" json:"component_key"` // group_code::id

	// 规范化模板标识；无模板时为 nil（序列化为 null）
	TemplateID *string `db:"template_id" json:"template_id"`

	// 会话负载，对存储层不透明
	Data json.RawMessage `db:"data" json:"data"`

	UpdatedAt string `db:"updated_at" json:"updated_at"`
}
