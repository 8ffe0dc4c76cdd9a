package access

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// OptionalString 把任意 JSON 值规整为去空白的字符串；
// nil、空串、纯空白视为缺失。数字保持与源表一致的十进制写法
func OptionalString(value any) (string, bool) {
	if value == nil {
		return "", false
	}

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		s = fmt.Sprintf("%v", v)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// ExtractField 从一条 JSON 记录取字段，候选键按顺序尝试（大小写变体）
func ExtractField(record map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if raw, present := record[key]; present {
			if s, ok := OptionalString(raw); ok {
				return s, true
			}
		}
	}
	return "", false
}

// NormalizeKey 表头归一化：去掉所有非字母数字字符并转小写，
// 让 "WP_GUID"、"WP GUID"、"wp-guid" 落到同一个键
func NormalizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// PickColumn 按候选表头名（大小写、标点不敏感）从一行中取值
func PickColumn(row map[string]string, candidates ...string) (string, bool) {
	normalized := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		normalized[NormalizeKey(c)] = struct{}{}
	}
	for key, value := range row {
		if _, ok := normalized[NormalizeKey(key)]; ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}
