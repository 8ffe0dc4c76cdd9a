package domain

// ComponentType 预制构件类型
type ComponentType string

const (
	TypeExternalWall   ComponentType = "ew"
	TypeInternalWall   ComponentType = "iw"
	TypeMidFloor       ComponentType = "mf"
	TypeRoof           ComponentType = "r"
	TypeStructuralWall ComponentType = "sw"
)

// TypeLabel 类型显示名（与前端类目页一致）
var TypeLabel = map[ComponentType]string{
	TypeExternalWall:   "External Walls",
	TypeInternalWall:   "Internal Walls",
	TypeMidFloor:       "Mid-floors",
	TypeRoof:           "Roofs",
	TypeStructuralWall: "Structured Walls",
}

// Valid 是否为已知类型
func (t ComponentType) Valid() bool {
	_, ok := TypeLabel[t]
	return ok
}

// AccessQAItem Access 导出的平铺 QA 行
// 每行对应清单中的一个检查项，按 title（忽略大小写、去空白）与规范问题匹配
type AccessQAItem struct {
	Title      string `json:"title"`
	Result     string `json:"result"`
	PhotoTaken string `json:"photoTaken"`
	Signee     string `json:"signee"`
	Timestamp  string `json:"timestamp"`
}

// AccessQAMetadata Access 附加元数据（键值对）
type AccessQAMetadata struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Component 构件（面板）领域模型（对应 components 表）
// 复合主键 (project_id, group_code, id)，创建后不可变；
// panel_id / access_guid 仅用于展示与溯源，不参与身份
type Component struct {
	Type      ComponentType `db:"type" json:"type"`
	ProjectID string        `db:"project_id" json:"project_id"`

	// 身份（group_code + id 可由 panel_id/access_guid 确定性派生）
	GroupCode string `db:"group_code" json:"group_code"` // 如 "EW_0"、"MF_1"
	ID        string `db:"id" json:"id"`                 // Access 子组编号（"001"、"004" ...）

	// 展示与溯源
	PanelID    string `db:"panel_id" json:"panel_id,omitempty"`       // 完整 Access 编号（如 "EW_0001"）
	TemplateID string `db:"template_id" json:"template_id,omitempty"` // QA 模板（如 "EW_I1E1"）
	AccessGUID string `db:"access_guid" json:"access_guid,omitempty"` // Access 工作包编号（如 "42_IW_0006"）

	// QA 数据
	QAItems  []AccessQAItem     `db:"qa_items" json:"qaItems,omitempty"`
	Metadata []AccessQAMetadata `db:"metadata" json:"metadata,omitempty"`
}

// Key 组件键 group_code::id（会话记录的 component_key）
func (c Component) Key() string {
	return c.GroupCode + "::" + c.ID
}

// Clone 深拷贝，切片不共享底层数组
func (c Component) Clone() Component {
	cloned := c
	if c.QAItems != nil {
		cloned.QAItems = make([]AccessQAItem, len(c.QAItems))
		copy(cloned.QAItems, c.QAItems)
	}
	if c.Metadata != nil {
		cloned.Metadata = make([]AccessQAMetadata, len(c.Metadata))
		copy(cloned.Metadata, c.Metadata)
	}
	return cloned
}
