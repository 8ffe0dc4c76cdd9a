package httpapi

import (
	"net/http"
	"strings"

	"factoryqa-data/internal/auth"
)

// PinHeader 敏感操作随请求携带的 PIN 头
const PinHeader = "X-QA-Pin"

// PINGate 敏感操作（导入/导出/整库替换）前的 PIN 闸门
type PINGate struct {
	registry *auth.Registry
}

func NewPINGate(registry *auth.Registry) *PINGate {
	return &PINGate{registry: registry}
}

// Authorize 从请求头解析 PIN 并做角色准入。
// 返回的 message 直接回给前端展示；allowedRoles 为空表示
// 任何已登记签核人均可
func (g *PINGate) Authorize(r *http.Request, allowedRoles []string) (*auth.Signatory, string, bool) {
	pin := strings.TrimSpace(r.Header.Get(PinHeader))
	if pin == "" {
		return nil, "A 4-digit PIN is required to authorize this action.", false
	}

	signatory, ok := g.registry.Resolve(pin)
	if !ok {
		return nil, "Invalid PIN. Please try again.", false
	}

	if !auth.IsAllowed(signatory, allowedRoles) {
		return nil, "Only " + formatRoles(allowedRoles) + " may authorize this action.", false
	}
	return signatory, "", true
}

func formatRoles(roles []string) string {
	trimmed := make([]string, 0, len(roles))
	for _, role := range roles {
		if r := strings.TrimSpace(role); r != "" {
			trimmed = append(trimmed, r)
		}
	}
	switch len(trimmed) {
	case 0:
		return "a registered signatory"
	case 1:
		return trimmed[0]
	default:
		return strings.Join(trimmed[:len(trimmed)-1], ", ") + " or " + trimmed[len(trimmed)-1]
	}
}
