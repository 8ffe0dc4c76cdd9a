package domain

// 项目状态（planned/active/closed）
const (
	ProjectStatusPlanned = "planned"
	ProjectStatusActive  = "active"
	ProjectStatusClosed  = "closed"
)

// Project 项目领域模型（对应 projects 表）
// 工厂一般只有一个 active 项目，但模型不强制唯一
type Project struct {
	// 主键
	ProjectID string `db:"project_id" json:"project_id"` // UUID 或导入时派生的标识

	// 基本信息
	ProjectCode string `db:"project_code" json:"project_code"`           // 如 "230041"
	ProjectName string `db:"project_name" json:"project_name,omitempty"` // 如 "Alpine Homes"

	// 状态与周期
	Status    string `db:"status" json:"status,omitempty"` // planned/active/closed
	StartDate string `db:"start_date" json:"start_date,omitempty"`
	EndDate   string `db:"end_date" json:"end_date,omitempty"`
}

// Clone 深拷贝（导出快照时禁止与存储记录共享引用）
func (p Project) Clone() Project {
	return p
}
