// Package access 负责把 Access 旧库导出的自由格式面板编号
// 解析成规范身份 (group_code, id, panel_id, type)。
// 全部为纯函数：输入再脏也只做尽力而为的降级，绝不 panic。
package access

import (
	"regexp"
	"strings"

	"factoryqa-data/internal/domain"
)

// 面板编号的段分隔符
const panelSegmentSeparator = "_"

// Derived 规范化后的面板身份
type Derived struct {
	GroupCode   string // 如 "EW_0"；解析不出时为原始串
	ComponentID string // 如 "0006"；只有一段时为空
	PanelID     string // 去掉数字项目前缀后的完整编号，如 "IW_0006"
}

var pureDigits = regexp.MustCompile(`^\d+$`)

// Derive 解析面板编号。
// Access 导出有时在真正的面板编号前带数字项目前缀（如 "42_IW_0006"），
// 只要剩余段数大于一就持续剥掉前导纯数字段。
func Derive(panelCode string) Derived {
	normalized := strings.TrimSpace(panelCode)
	if normalized == "" {
		return Derived{}
	}

	var segments []string
	for _, seg := range strings.Split(normalized, panelSegmentSeparator) {
		if s := strings.TrimSpace(seg); s != "" {
			segments = append(segments, s)
		}
	}

	for len(segments) > 1 && pureDigits.MatchString(segments[0]) {
		segments = segments[1:]
	}

	if len(segments) == 0 {
		return Derived{GroupCode: normalized, PanelID: normalized}
	}

	d := Derived{PanelID: strings.Join(segments, panelSegmentSeparator)}
	if len(segments) > 1 {
		d.ComponentID = segments[len(segments)-1]
		d.GroupCode = strings.Join(segments[:len(segments)-1], panelSegmentSeparator)
	} else {
		d.GroupCode = segments[0]
	}
	return d
}

var letterRuns = regexp.MustCompile(`[a-z]+`)

// InferTypeFromGroupCode 按组号前缀推断构件类型，未知前缀归入 sw
func InferTypeFromGroupCode(groupCode string) domain.ComponentType {
	normalized := strings.ToLower(groupCode)
	tokens := letterRuns.FindAllString(normalized, -1)

	match := func(pred func(string) bool) bool {
		for _, token := range tokens {
			if pred(token) {
				return true
			}
		}
		return pred(normalized)
	}

	switch {
	case match(func(t string) bool { return strings.HasPrefix(t, "ew") }):
		return domain.TypeExternalWall
	case match(func(t string) bool { return strings.HasPrefix(t, "iw") }):
		return domain.TypeInternalWall
	case match(func(t string) bool { return strings.HasPrefix(t, "mf") }):
		return domain.TypeMidFloor
	case match(func(t string) bool {
		return t == "roof" || strings.HasPrefix(t, "roof") || t == "r" || strings.HasPrefix(t, "r_")
	}):
		return domain.TypeRoof
	default:
		return domain.TypeStructuralWall
	}
}

var digitRuns = regexp.MustCompile(`\d+`)

// DeriveIDFromPanelCode 从面板编号提取构件编号。
// 优先取最后一个 "_" 之后的纯数字段，否则取串中最后一段数字；
// 完全没有数字时返回 false。
func DeriveIDFromPanelCode(panelCode string) (string, bool) {
	if panelCode == "" {
		return "", false
	}

	lastSegment := panelCode
	if idx := strings.LastIndex(panelCode, panelSegmentSeparator); idx >= 0 {
		lastSegment = panelCode[idx+1:]
	}
	if pureDigits.MatchString(lastSegment) {
		return lastSegment, true
	}

	if runs := digitRuns.FindAllString(panelCode, -1); len(runs) > 0 {
		return runs[len(runs)-1], true
	}
	return "", false
}
