package access

import (
	"regexp"
	"sort"
	"strings"
)

var (
	numericPrefix   = regexp.MustCompile(`^(\d+[_-]+)(.+)$`)
	projectCodeHead = regexp.MustCompile(`^(\d{3,})[-_].+$`)
	trailingDashes  = regexp.MustCompile(`[_-]+$`)
)

// IsWPGuidKey 判断某个 JSON/表头键是否为 WP_GUID 字段
func IsWPGuidKey(key string) bool {
	return strings.ToLower(key) == "wp_guid"
}

// DerivePanelIDFromWPGuid 从 WP_GUID 派生面板编号：
// 剥掉数字项目前缀（"42_IW_0006" -> "IW_0006"），否则原样返回
func DerivePanelIDFromWPGuid(wpGuid string) (string, bool) {
	normalized := strings.TrimSpace(wpGuid)
	if normalized == "" {
		return "", false
	}
	if m := numericPrefix.FindStringSubmatch(normalized); m != nil && m[2] != "" {
		return m[2], true
	}
	return normalized, true
}

// ExtractProjectCodeFromWPGuid 提取 WP_GUID 开头不少于 3 位的数字作为项目号
func ExtractProjectCodeFromWPGuid(wpGuid string) (string, bool) {
	normalized := strings.TrimSpace(wpGuid)
	if normalized == "" {
		return "", false
	}
	if m := projectCodeHead.FindStringSubmatch(normalized); m != nil {
		return m[1], true
	}
	return "", false
}

// DeriveGroupCodeFromPanelID 从面板编号反推组号。
// 无分隔符时去掉末尾数字段；有分隔符时取末段之前的全部
func DeriveGroupCodeFromPanelID(panelID string) string {
	normalized := strings.TrimSpace(panelID)
	if normalized == "" {
		return "unknown"
	}

	if !strings.Contains(normalized, panelSegmentSeparator) {
		runs := digitRuns.FindAllStringIndex(normalized, -1)
		withoutDigits := normalized
		if len(runs) > 0 {
			last := runs[len(runs)-1]
			withoutDigits = normalized[:last[0]] + normalized[last[1]:]
		}
		withoutDigits = trailingDashes.ReplaceAllString(withoutDigits, "")
		if withoutDigits == "" {
			return normalized
		}
		return withoutDigits
	}

	segments := strings.Split(normalized, panelSegmentSeparator)
	if len(segments) <= 1 {
		return normalized
	}
	prefix := strings.Join(segments[:len(segments)-1], panelSegmentSeparator)
	if prefix == "" {
		return normalized
	}
	return prefix
}

// DiscoverWPGuids 递归扫描任意已解析的 JSON 值，收集所有 WP_GUID 字段值。
// map 按键排序遍历，保证结果确定（"第一个生效" 的语义依赖这里的顺序）
func DiscoverWPGuids(input any) []string {
	var discovered []string
	seen := make(map[string]struct{})

	var walk func(value any)
	walk = func(value any) {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				walk(item)
			}
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if IsWPGuidKey(k) {
					if s, ok := OptionalString(v[k]); ok {
						if _, dup := seen[s]; !dup {
							seen[s] = struct{}{}
							discovered = append(discovered, s)
						}
					}
				}
				walk(v[k])
			}
		}
	}
	walk(input)

	return discovered
}
