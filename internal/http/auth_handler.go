package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"factoryqa-data/internal/auth"
)

// AuthHandler PIN → 签核人解析（前端授权弹窗用）
type AuthHandler struct {
	registry *auth.Registry
	logger   *zap.Logger
}

// NewAuthHandler 创建授权 Handler
func NewAuthHandler(registry *auth.Registry, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{registry: registry, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/qa/api/v1/auth/resolve":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ResolvePin(w, r)
	case "/qa/api/v1/auth/signatories":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListSignatories(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type resolvePinRequest struct {
	Pin string `json:"pin"`
}

type resolvePinResponse struct {
	Signatory *auth.Signatory `json:"signatory"`
}

// ResolvePin 解析 PIN。查不到返回业务错误而非 401：
// 授权弹窗要的是行内错误提示，不是重定向
func (h *AuthHandler) ResolvePin(w http.ResponseWriter, r *http.Request) {
	var req resolvePinRequest
	if err := readBodyJSON(r, 1<<10, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	signatory, ok := h.registry.Resolve(strings.TrimSpace(req.Pin))
	if !ok {
		writeJSON(w, http.StatusOK, Fail("Invalid PIN. Please try again."))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resolvePinResponse{Signatory: signatory}))
}

// ListSignatories 返回注册表快照。
// 注册表静态内置且仅在厂内网使用，整条返回
func (h *AuthHandler) ListSignatories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.registry.List()))
}
