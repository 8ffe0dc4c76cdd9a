package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 pprof 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterCatalogRoutes 项目/构件目录
func (r *Router) RegisterCatalogRoutes(h *CatalogHandler) {
	r.HandleHandler("/qa/api/v1/projects", h)
	r.HandleHandler("/qa/api/v1/projects/", h)
}

// RegisterSessionRoutes 会话读写与签核流转
func (r *Router) RegisterSessionRoutes(h *SessionHandler) {
	r.HandleHandler("/qa/api/v1/sessions/", h)
}

// RegisterImportRoutes 导入/导出/种子管线
func (r *Router) RegisterImportRoutes(h *ImportHandler) {
	r.HandleHandler("/qa/api/v1/import/analyze", h)
	r.HandleHandler("/qa/api/v1/import/commit", h)
	r.HandleHandler("/qa/api/v1/seed/import", h)
	r.HandleHandler("/qa/api/v1/seed/sync", h)
	r.HandleHandler("/qa/api/v1/export", h)
}

// RegisterAuthRoutes PIN 授权
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.HandleHandler("/qa/api/v1/auth/resolve", h)
	r.HandleHandler("/qa/api/v1/auth/signatories", h)
}

// RegisterHealthRoute 健康检查（存活探针，不查依赖）
func (r *Router) RegisterHealthRoute() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
}
