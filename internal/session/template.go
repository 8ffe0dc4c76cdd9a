// Package session 实现按步骤可恢复的 QA 会话：
// 会话状态与构件平铺 qaItems 的双向映射、步骤状态机、
// 以及“会话表 + 构件 qaItems 同写”的持久化策略。
package session

import "strings"

const (
	// StepCount 参考模板的固定步骤数，四个按步索引的数组恒为此长度
	StepCount = 6

	// DefaultTemplateID 构件未绑定模板时的哨兵
	DefaultTemplateID = "DEFAULT"
)

// FinalSignOffRoles 末步签核的角色白名单
var FinalSignOffRoles = []string{"Shift Leader", "Production Manager"}

// TemplateQuestion 模板中的一个规范问题。
// Field 是会话 responses 的键，Title 用于与旧 qaItems 按标题匹配
type TemplateQuestion struct {
	Field string
	Title string
	Step  int  // 所属步骤 0..StepCount-1
	Multi bool // 多选字段：结果以分隔符连接/拆分
}

// Template QA 清单模板
type Template struct {
	ID        string
	Questions []TemplateQuestion
	// StepTitles 每步签核/拍照行在 qaItems 中的规范标题
	StepTitles [StepCount]string
}

// ew_I1E1 外墙 I1E1 模板，字段名与原 Access 表单一致
var ew_I1E1 = Template{
	ID: "EW_I1E1",
	Questions: []TemplateQuestion{
		{Field: "step1-0", Title: "Framing check for square", Step: 0},
		{Field: "step1-1", Title: "Structural fixing in frame as per drawings", Step: 0},
		{Field: "step1-2", Title: "Slings installed as per drawings", Step: 0},

		{Field: "internal-components", Title: "Lining Type", Step: 1, Multi: true},
		{Field: "internal-fixings", Title: "Fixings", Step: 1, Multi: true},
		{Field: "internal-fixing-types", Title: "Fixing Type", Step: 1, Multi: true},

		{Field: "step2-0", Title: "Fire rated wall, use fire rated flush boxes. Do not alter flush box position without approval", Step: 2},
		{Field: "step2-1", Title: "Conduits terminated and run to best practice as per drawings", Step: 2},
		{Field: "step2-2", Title: "Airtightness - penetrations are sealed", Step: 2},
		{Field: "step2-3", Title: "Fire rated wall, all penetrations treated as per drawings (i.e. gib lined or so)", Step: 2},

		{Field: "step4-insulation", Title: "Insulation as per drawings. Tight fit, No gaps, No compression", Step: 3},

		{Field: "external-components", Title: "External Lining", Step: 4, Multi: true},
		{Field: "external-fixings", Title: "External Fixings", Step: 4, Multi: true},
		{Field: "step3-services", Title: "Services – final fix", Step: 4},
		{Field: "membranes", Title: "Membranes as per specification", Step: 4, Multi: true},
		{Field: "deviation-notes", Title: "Deviation from standard method, team or manufacturer specification", Step: 4},
		{Field: "comments", Title: "Comments", Step: 4},
		{Field: "shift-leader-signoff", Title: "Sign off from Shift Leader", Step: 4},
	},
	StepTitles: [StepCount]string{
		"Step 1 – Framing and inside layers",
		"Step 2 – Internal lining",
		"Step 3 – Services",
		"Step 4 – Insulation",
		"Step 5 – Final stage QA",
		"Step 6 – Final sign-off",
	},
}

// defaultTemplate 未注册模板的兜底：无问题，只保留六步签核
var defaultTemplate = Template{
	ID: DefaultTemplateID,
	StepTitles: [StepCount]string{
		"Step 1", "Step 2", "Step 3", "Step 4", "Step 5", "Step 6",
	},
}

// 新模板在此登记，键为 Access 的 template_id
var templateRegistry = map[string]Template{
	ew_I1E1.ID: ew_I1E1,
}

// NormalizeTemplateID 去空白并大写；空串视为无模板
func NormalizeTemplateID(templateID string) string {
	return strings.ToUpper(strings.TrimSpace(templateID))
}

// LookupTemplate 按 template_id 取模板，未知或为空时回落到兜底模板
func LookupTemplate(templateID string) Template {
	if t, ok := templateRegistry[NormalizeTemplateID(templateID)]; ok {
		return t
	}
	return defaultTemplate
}

// ComponentKey 会话记录的构件键 group_code::id
func ComponentKey(groupCode, id string) string {
	return groupCode + "::" + id
}

// SessionID 会话主键 project_id::component_key::模板。
// 同构件同模板恢复同一会话；换模板开新会话（旧会话保留为孤儿）
func SessionID(projectID, groupCode, id, templateID string) string {
	normalized := NormalizeTemplateID(templateID)
	if normalized == "" {
		normalized = DefaultTemplateID
	}
	return projectID + "::" + ComponentKey(groupCode, id) + "::" + normalized
}
