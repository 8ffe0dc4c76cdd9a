package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"factoryqa-data/internal/domain"
	"factoryqa-data/internal/repository"
)

// CatalogHandler 项目/构件目录查询
type CatalogHandler struct {
	store  *repository.Store
	logger *zap.Logger
}

// NewCatalogHandler 创建目录 Handler
func NewCatalogHandler(store *repository.Store, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
// - GET /qa/api/v1/projects
// - GET /qa/api/v1/projects/{project_id}
// - GET /qa/api/v1/projects/{project_id}/components
// - GET /qa/api/v1/projects/{project_id}/components/{group_code}/{id}
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/qa/api/v1/projects")
	path = strings.Trim(path, "/")
	if path == "" {
		h.ListProjects(w, r)
		return
	}

	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		h.GetProject(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "components":
		h.ListComponents(w, r, parts[0])
	case len(parts) == 4 && parts[1] == "components":
		h.GetComponent(w, r, parts[0], parts[2], parts[3])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListProjects 全部项目
func (h *CatalogHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.Projects.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list projects", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list projects"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(projects))
}

// GetProject 单个项目
func (h *CatalogHandler) GetProject(w http.ResponseWriter, r *http.Request, projectID string) {
	project, err := h.store.Projects.Get(r.Context(), projectID)
	if err == repository.ErrNotFound {
		writeJSON(w, http.StatusNotFound, Fail("project not found"))
		return
	}
	if err != nil {
		h.logger.Error("failed to get project", zap.String("project_id", projectID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get project"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(project))
}

// ListComponents 项目下构件列表，支持 type / group_code / template_id / panel_id 过滤
func (h *CatalogHandler) ListComponents(w http.ResponseWriter, r *http.Request, projectID string) {
	query := r.URL.Query()

	filters := repository.ComponentFilters{
		GroupCode:  strings.TrimSpace(query.Get("group_code")),
		TemplateID: strings.TrimSpace(query.Get("template_id")),
		PanelID:    strings.TrimSpace(query.Get("panel_id")),
	}
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		t := domain.ComponentType(strings.ToLower(raw))
		if !t.Valid() {
			writeJSON(w, http.StatusBadRequest, Fail("unknown component type: "+raw))
			return
		}
		filters.Type = t
	}

	components, err := h.store.Components.ListByProject(r.Context(), projectID, filters)
	if err != nil {
		h.logger.Error("failed to list components",
			zap.String("project_id", projectID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list components"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(components))
}

// GetComponent 单个构件（复合键 project_id/group_code/id）
func (h *CatalogHandler) GetComponent(w http.ResponseWriter, r *http.Request, projectID, groupCode, id string) {
	component, err := h.store.Components.Get(r.Context(), projectID, groupCode, id)
	if err == repository.ErrNotFound {
		writeJSON(w, http.StatusNotFound, Fail("component not found"))
		return
	}
	if err != nil {
		h.logger.Error("failed to get component",
			zap.String("project_id", projectID),
			zap.String("group_code", groupCode),
			zap.String("id", id),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get component"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(component))
}
