package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"factoryqa-data/internal/repository"
	"factoryqa-data/internal/session"
)

// SessionHandler 会话状态读写与签核流转
type SessionHandler struct {
	manager *session.Manager
	logger  *zap.Logger
}

// NewSessionHandler 创建会话 Handler
func NewSessionHandler(manager *session.Manager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{manager: manager, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
// - GET  /qa/api/v1/sessions/{project_id}/{group_code}/{id}
// - PUT  /qa/api/v1/sessions/{project_id}/{group_code}/{id}
// - POST /qa/api/v1/sessions/{project_id}/{group_code}/{id}/advance
// - POST /qa/api/v1/sessions/{project_id}/{group_code}/{id}/retreat
// - POST /qa/api/v1/sessions/{project_id}/{group_code}/{id}/submit
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/qa/api/v1/sessions"), "/")
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 3:
		projectID, groupCode, id := parts[0], parts[1], parts[2]
		switch r.Method {
		case http.MethodGet:
			h.Get(w, r, projectID, groupCode, id)
		case http.MethodPut:
			h.Put(w, r, projectID, groupCode, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case len(parts) == 4:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		projectID, groupCode, id := parts[0], parts[1], parts[2]
		switch parts[3] {
		case "advance":
			h.Advance(w, r, projectID, groupCode, id)
		case "retreat":
			h.Retreat(w, r, projectID, groupCode, id)
		case "submit":
			h.Submit(w, r, projectID, groupCode, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Get 加载会话（缓存 → 会话表 → qaItems 回填）
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request, projectID, groupCode, id string) {
	loaded, err := h.manager.Load(r.Context(), projectID, groupCode, id)
	if h.writeLoadError(w, err, projectID, groupCode, id) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(loaded))
}

type putSessionRequest struct {
	State *session.State `json:"state"`
}

// Put 整体替换会话状态（表单自动保存路径）
func (h *SessionHandler) Put(w http.ResponseWriter, r *http.Request, projectID, groupCode, id string) {
	var req putSessionRequest
	if err := readBodyJSON(r, 4<<20, &req); err != nil || req.State == nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid session payload"))
		return
	}

	if _, err := h.manager.Save(r.Context(), projectID, groupCode, id, req.State); err != nil {
		h.writeLoadError(w, err, projectID, groupCode, id)
		return
	}

	loaded, err := h.manager.Load(r.Context(), projectID, groupCode, id)
	if h.writeLoadError(w, err, projectID, groupCode, id) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(loaded))
}

type stepRequest struct {
	Pin string `json:"pin,omitempty"`
}

// Advance 对当前步签核（带 PIN 时）并前进一步
func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request, projectID, groupCode, id string) {
	var req stepRequest
	if err := readBodyJSON(r, 1<<10, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	loaded, err := h.manager.Advance(r.Context(), projectID, groupCode, id, strings.TrimSpace(req.Pin))
	if h.writeStepError(w, err, projectID, groupCode, id) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(loaded))
}

// Retreat 后退一步，不做校验
func (h *SessionHandler) Retreat(w http.ResponseWriter, r *http.Request, projectID, groupCode, id string) {
	loaded, err := h.manager.Retreat(r.Context(), projectID, groupCode, id)
	if h.writeStepError(w, err, projectID, groupCode, id) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(loaded))
}

// Submit 终审提交，带 PIN 时先对末步签核（角色白名单生效）
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request, projectID, groupCode, id string) {
	var req stepRequest
	if err := readBodyJSON(r, 1<<10, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	loaded, err := h.manager.Submit(r.Context(), projectID, groupCode, id, strings.TrimSpace(req.Pin))
	if h.writeStepError(w, err, projectID, groupCode, id) {
		return
	}
	writeJSON(w, http.StatusOK, Ok(loaded))
}

// writeLoadError 加载/保存路径错误统一回写，返回 true 表示已写响应
func (h *SessionHandler) writeLoadError(w http.ResponseWriter, err error, projectID, groupCode, id string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("component not found"))
	default:
		h.logger.Error("session operation failed",
			zap.String("project_id", projectID),
			zap.String("group_code", groupCode),
			zap.String("id", id),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("session operation failed"))
	}
	return true
}

// writeStepError 流转路径错误统一回写。
// 签核/角色类错误属于业务提示，消息与授权弹窗一致
func (h *SessionHandler) writeStepError(w http.ResponseWriter, err error, projectID, groupCode, id string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, session.ErrPinNotRecognized):
		writeJSON(w, http.StatusOK, Fail("Invalid PIN. Please try again."))
	case errors.Is(err, session.ErrRoleNotPermitted):
		writeJSON(w, http.StatusOK, Fail("Only "+formatRoles(session.FinalSignOffRoles)+" may complete the final sign-off."))
	case errors.Is(err, session.ErrSignOffRequired):
		writeJSON(w, http.StatusOK, Fail("A sign-off is required before continuing."))
	default:
		return h.writeLoadError(w, err, projectID, groupCode, id)
	}
	return true
}
