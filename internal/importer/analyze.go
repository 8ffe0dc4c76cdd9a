// Package importer 实现批量数据管线：
// 导入 JSON 的校验/归一/去重与提交、种子载荷的整库导入、
// 远端快照同步、导出快照，以及 Access 电子表格的双向转换
package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"factoryqa-data/internal/access"
	"factoryqa-data/internal/domain"
)

// SupportedSchemaVersion 导入文件唯一支持的 schema 版本
const SupportedSchemaVersion = 1

// Issue 一条校验信息，Path 指向出错的字段位置
type Issue struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Stats 组件归一统计
type Stats struct {
	TotalComponents     int `json:"totalComponents"`
	UniqueComponents    int `json:"uniqueComponents"`
	DuplicateComponents int `json:"duplicateComponents"`
}

// Analysis 导入分析结果。
// Errors 非空时禁止提交；Warnings 仅供展示，不阻塞
type Analysis struct {
	Project    *domain.Project    `json:"normalizedProject"`
	Components []domain.Component `json:"normalizedComponents"`
	Warnings   []Issue            `json:"warnings"`
	Errors     []Issue            `json:"errors"`
	// EffectiveSchemaVersion 实际采用的版本；解析不出时为 nil
	EffectiveSchemaVersion *float64 `json:"effectiveSchemaVersion"`
	Stats                  Stats    `json:"stats"`
}

// validationContext 多阶段校验的累加器，
// 告警与错误只追加不修改，最终并入 Analysis
type validationContext struct {
	warnings []Issue
	errors   []Issue
}

func (v *validationContext) warnf(path, format string, args ...any) {
	v.warnings = append(v.warnings, Issue{Message: fmt.Sprintf(format, args...), Path: path})
}

func (v *validationContext) errorf(path, format string, args ...any) {
	v.errors = append(v.errors, Issue{Message: fmt.Sprintf(format, args...), Path: path})
}

// derivedProjectInfo 从 WP_GUID 扫描派生的项目信息。
// 多个候选项目号时第一个生效，其余进入 ConflictingCodes
type derivedProjectInfo struct {
	ProjectCode      string
	ProjectID        string
	ConflictingCodes []string
}

func (d *derivedProjectInfo) formatCodes() string {
	return strings.Join(append([]string{d.ProjectCode}, d.ConflictingCodes...), ", ")
}

func deriveProjectInfoFromWPGuids(wpGuids []string) *derivedProjectInfo {
	var codes []string
	seen := make(map[string]struct{})
	for _, guid := range wpGuids {
		if code, ok := access.ExtractProjectCodeFromWPGuid(guid); ok {
			if _, dup := seen[code]; !dup {
				seen[code] = struct{}{}
				codes = append(codes, code)
			}
		}
	}
	if len(codes) == 0 {
		return nil
	}
	return &derivedProjectInfo{
		ProjectCode:      codes[0],
		ProjectID:        "derived-" + codes[0],
		ConflictingCodes: codes[1:],
	}
}

// Analyze 分析导入 JSON：纯函数，只解析不落库。
// 校验顺序：JSON 解析 → schema_version → 项目解析（可由 WP_GUID 派生）
// → 组件逐条校验 → 复合键去重（首条生效）
func Analyze(raw []byte) *Analysis {
	vc := &validationContext{}
	analysis := &Analysis{}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		vc.errorf("file", "Invalid JSON file. Unable to parse.")
		analysis.Warnings = vc.warnings
		analysis.Errors = vc.errors
		return analysis
	}

	analysis.EffectiveSchemaVersion = resolveSchemaVersion(payload, vc)
	if v := analysis.EffectiveSchemaVersion; v != nil && *v != SupportedSchemaVersion {
		vc.errorf("schema_version", "Unsupported schema_version %s. Expected %d.",
			strconv.FormatFloat(*v, 'f', -1, 64), SupportedSchemaVersion)
	}

	wpGuids := access.DiscoverWPGuids(payload)
	derived := deriveProjectInfoFromWPGuids(wpGuids)
	if len(wpGuids) > 0 && derived == nil {
		vc.warnf("project", "Discovered WP_GUID values but none contained a recognizable project code.")
	}

	project := normalizeProject(payload["project"], vc, derived)
	analysis.Project = project

	rawComponents, componentsIsArray := payload["components"].([]any)

	if project != nil {
		if componentsIsArray {
			seen := make(map[string]struct{})
			for index, entry := range rawComponents {
				normalized := normalizeComponent(entry, project.ProjectID, index, vc)
				if normalized == nil {
					continue
				}
				key := normalized.ProjectID + "::" + normalized.GroupCode + "::" + normalized.ID
				if _, dup := seen[key]; dup {
					analysis.Stats.DuplicateComponents++
					vc.warnf(fmt.Sprintf("components[%d]", index),
						"Duplicate component encountered in file. Skipping subsequent entries.")
					continue
				}
				seen[key] = struct{}{}
				analysis.Components = append(analysis.Components, *normalized)
			}
		} else {
			generated := generateComponentsFromWPGuids(wpGuids, project.ProjectID, vc)
			if len(generated) == 0 {
				vc.errorf("components", `Missing "components" array in import file.`)
			} else {
				analysis.Components = append(analysis.Components, generated...)
			}
		}
	} else if !componentsIsArray {
		vc.errorf("components", `Missing "components" array in import file.`)
	}

	if componentsIsArray {
		analysis.Stats.TotalComponents = len(rawComponents)
	} else {
		analysis.Stats.TotalComponents = len(analysis.Components)
	}
	analysis.Stats.UniqueComponents = len(analysis.Components)

	analysis.Warnings = vc.warnings
	analysis.Errors = vc.errors
	return analysis
}

// resolveSchemaVersion 三种形态：缺失默认支持版本（告警）、
// 数字直接采用、数字字符串强转（告警）；其余报错并返回 nil
func resolveSchemaVersion(payload map[string]any, vc *validationContext) *float64 {
	raw, present := payload["schema_version"]
	if !present || raw == nil {
		v := float64(SupportedSchemaVersion)
		vc.warnf("schema_version", "schema_version missing; assuming %d.", SupportedSchemaVersion)
		return &v
	}

	switch value := raw.(type) {
	case float64:
		return &value
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err == nil {
			vc.warnf("schema_version", "schema_version was a string; treated as number %s.",
				strconv.FormatFloat(parsed, 'f', -1, 64))
			return &parsed
		}
	}

	vc.errorf("schema_version", "Invalid schema_version value in import file. Expected a numeric value.")
	return nil
}

func normalizeProject(raw any, vc *validationContext, derived *derivedProjectInfo) *domain.Project {
	record, isObject := raw.(map[string]any)
	if !isObject {
		if derived == nil {
			vc.errorf("project", `Missing "project" object in import file.`)
			return nil
		}
		if len(derived.ConflictingCodes) > 0 {
			vc.warnf("project", "Multiple project codes discovered from WP_GUID values (%s); using %s.",
				derived.formatCodes(), derived.ProjectCode)
		}
		vc.warnf("project", "Derived project metadata from WP_GUID values because the project object was missing.")
		return &domain.Project{
			ProjectID:   derived.ProjectID,
			ProjectCode: derived.ProjectCode,
		}
	}

	explicitCode, hasExplicitCode := access.ExtractField(record, "project_code", "PROJECT_CODE")
	projectCode := explicitCode
	if projectCode == "" && derived != nil {
		projectCode = derived.ProjectCode
	}
	if projectCode == "" {
		vc.errorf("project.project_code", "Missing project_code for project.")
		return nil
	}

	projectID, hasExplicitID := access.ExtractField(record, "project_id", "PROJECT_ID")
	if !hasExplicitID {
		if derived != nil {
			projectID = derived.ProjectID
		} else {
			projectID = uuid.NewString()
		}
	}

	project := &domain.Project{
		ProjectID:   projectID,
		ProjectCode: projectCode,
	}
	if name, ok := access.ExtractField(record, "project_name", "PROJECT_NAME"); ok {
		project.ProjectName = name
	}
	if status, ok := access.ExtractField(record, "status", "STATUS"); ok {
		project.Status = strings.ToLower(status)
	}
	if start, ok := access.ExtractField(record, "start_date", "START_DATE"); ok {
		project.StartDate = start
	}
	if end, ok := access.ExtractField(record, "end_date", "END_DATE"); ok {
		project.EndDate = end
	}

	if !hasExplicitCode && derived != nil {
		vc.warnf("project.project_code",
			"Derived project_code from WP_GUID values because it was missing in the project object.")
	}
	if !hasExplicitID && derived != nil {
		vc.warnf("project.project_id",
			"Derived project_id from WP_GUID values because it was missing in the project object.")
	}
	if derived != nil && len(derived.ConflictingCodes) > 0 {
		vc.warnf("project", "Multiple project codes discovered from WP_GUID values (%s); using %s.",
			derived.formatCodes(), derived.ProjectCode)
	}
	return project
}

// Access 导出行上可能携带的元数据字段，原样收进 Metadata
var metadataFieldKeys = []struct {
	key        string
	candidates []string
}{
	{"dbid", []string{"DBID", "dbid"}},
	{"wp_guid", []string{"WP_GUID", "wp_guid"}},
	{"activity_group", []string{"ACTIVITYGROUP", "activity_group"}},
	{"title", []string{"TITLE", "title"}},
	{"result", []string{"RESULT", "result"}},
	{"photo_taken", []string{"PHOTO_TAKEN", "photo_taken"}},
	{"signee", []string{"SIGNEE", "signee"}},
	{"timestamp", []string{"TIMESTAMP", "timestamp"}},
}

func extractQAMetadata(record map[string]any) []domain.AccessQAMetadata {
	var entries []domain.AccessQAMetadata
	for _, field := range metadataFieldKeys {
		if value, ok := access.ExtractField(record, field.candidates...); ok {
			entries = append(entries, domain.AccessQAMetadata{
				Key:    field.key,
				Value:  value,
				Source: "import",
			})
		}
	}
	return entries
}

func metadataValue(entries []domain.AccessQAMetadata, key string) string {
	for _, entry := range entries {
		if entry.Key == key {
			return entry.Value
		}
	}
	return ""
}

func normalizeComponent(raw any, projectID string, index int, vc *validationContext) *domain.Component {
	path := fmt.Sprintf("components[%d]", index)

	record, isObject := raw.(map[string]any)
	if !isObject {
		vc.errorf(path, "Component entry is not an object.")
		return nil
	}

	metadata := extractQAMetadata(record)
	wpGuid := metadataValue(metadata, "wp_guid")

	groupCode, ok := access.ExtractField(record, "group_code", "GROUP_CODE")
	if !ok {
		vc.errorf(path+".group_code", "Missing group_code for component.")
		return nil
	}

	id, hasID := access.ExtractField(record, "id", "ID")
	panelID, hasPanelID := access.ExtractField(record, "panel_id", "PANEL_ID")

	if !hasPanelID && wpGuid != "" {
		if derivedPanelID, ok := access.DerivePanelIDFromWPGuid(wpGuid); ok {
			panelID = derivedPanelID
			vc.warnf(path+".panel_id",
				"Derived panel_id from WP_GUID because it was missing in the import file.")
		}
	}

	if !hasID && panelID != "" {
		if derivedID, ok := access.DeriveIDFromPanelCode(panelID); ok {
			id = derivedID
			vc.warnf(path+".id", "Derived id from panel_id because it was missing in the import file.")
		}
	}
	if id == "" {
		vc.errorf(path+".id", "Missing id for component.")
		return nil
	}

	typeRaw, hasType := access.ExtractField(record, "type", "TYPE")
	var componentType domain.ComponentType
	if hasType {
		componentType = domain.ComponentType(strings.ToLower(typeRaw))
	} else {
		componentType = access.InferTypeFromGroupCode(groupCode)
		vc.warnf(path+".type", "Inferred component type from group_code.")
	}

	templateID, _ := access.ExtractField(record, "template_id", "TEMPLATE_ID")
	if templateID != "" {
		expectedPrefix := strings.ToUpper(string(componentType))
		templatePrefix := strings.ToUpper(strings.SplitN(templateID, "_", 2)[0])
		if templatePrefix != "" && !strings.HasPrefix(templatePrefix, expectedPrefix) {
			vc.warnf(path+".template_id", "Template (%s) may not match inferred type (%s).",
				templateID, componentType)
		}
	}

	return &domain.Component{
		Type:       componentType,
		ProjectID:  projectID,
		GroupCode:  groupCode,
		ID:         id,
		PanelID:    panelID,
		TemplateID: templateID,
		AccessGUID: wpGuid,
		Metadata:   metadata,
	}
}

// generateComponentsFromWPGuids 组件数组缺失时按发现的 WP_GUID 合成组件
func generateComponentsFromWPGuids(wpGuids []string, projectID string, vc *validationContext) []domain.Component {
	if len(wpGuids) == 0 {
		return nil
	}

	dedupe := make(map[string]struct{})
	var components []domain.Component

	for _, wpGuid := range wpGuids {
		trimmed := strings.TrimSpace(wpGuid)
		if trimmed == "" {
			continue
		}

		panelID, ok := access.DerivePanelIDFromWPGuid(trimmed)
		if !ok {
			vc.warnf("components", "Unable to derive panel identifier from WP_GUID value %q.", trimmed)
			continue
		}

		id, ok := access.DeriveIDFromPanelCode(panelID)
		if !ok {
			id = panelID
		}
		groupCode := access.DeriveGroupCodeFromPanelID(panelID)

		key := projectID + "::" + groupCode + "::" + id
		if _, dup := dedupe[key]; dup {
			continue
		}
		dedupe[key] = struct{}{}

		components = append(components, domain.Component{
			Type:       access.InferTypeFromGroupCode(groupCode),
			ProjectID:  projectID,
			GroupCode:  groupCode,
			ID:         id,
			PanelID:    panelID,
			AccessGUID: trimmed,
			Metadata: []domain.AccessQAMetadata{
				{Key: "wp_guid", Value: trimmed, Source: "import"},
			},
		})
	}

	if len(components) > 0 {
		vc.warnf("components",
			"Derived component list from WP_GUID values because the components array was missing.")
	}
	return components
}
