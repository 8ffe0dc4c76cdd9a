package httpapi

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"factoryqa-data/internal/importer"
)

// 整库替换（种子导入/远端同步）只放行管理角色
var storeReplaceRoles = []string{"Factory Manager", "Production Manager"}

const maxImportBodyBytes = 32 << 20

// ImportHandler 导入/导出/种子管线的 HTTP 入口
type ImportHandler struct {
	pipeline *importer.Pipeline
	gate     *PINGate
	logger   *zap.Logger
	now      func() time.Time
}

// NewImportHandler 创建导入导出 Handler
func NewImportHandler(pipeline *importer.Pipeline, gate *PINGate, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{pipeline: pipeline, gate: gate, logger: logger, now: time.Now}
}

// ServeHTTP 实现 http.Handler 接口
func (h *ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/qa/api/v1/import/analyze":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Analyze(w, r)
	case "/qa/api/v1/import/commit":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Commit(w, r)
	case "/qa/api/v1/seed/import":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.SeedImport(w, r)
	case "/qa/api/v1/seed/sync":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.SeedSync(w, r)
	case "/qa/api/v1/export":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Analyze 只读分析导入文件，返回归一化结果与告警/错误清单。
// 不落库，所以不要求 PIN
func (h *ImportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r, maxImportBodyBytes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read request body"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(importer.Analyze(raw)))
}

// Commit 重新分析请求体并提交。
// 分析是纯函数且文件不大，重分析比在服务端暂存分析结果简单可靠；
// 任何已登记签核人均可提交
func (h *ImportHandler) Commit(w http.ResponseWriter, r *http.Request) {
	signatory, message, ok := h.gate.Authorize(r, nil)
	if !ok {
		writeJSON(w, http.StatusOK, Fail(message))
		return
	}

	raw, err := readBody(r, maxImportBodyBytes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read request body"))
		return
	}

	analysis := importer.Analyze(raw)
	result, err := h.pipeline.Commit(r.Context(), analysis)
	switch {
	case errors.Is(err, importer.ErrAnalysisHasErrors), errors.Is(err, importer.ErrNoNormalizedProject):
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	case err != nil:
		h.logger.Error("import commit failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to commit import"))
		return
	}

	h.logger.Info("import committed via api",
		zap.String("signee", signatory.Name),
		zap.String("role", signatory.Role))
	writeJSON(w, http.StatusOK, Ok(result))
}

// SeedImport 整库导入种子载荷，?clear=true 先清空五个集合。
// 整库替换是破坏性操作，只放行管理角色
func (h *ImportHandler) SeedImport(w http.ResponseWriter, r *http.Request) {
	signatory, message, ok := h.gate.Authorize(r, storeReplaceRoles)
	if !ok {
		writeJSON(w, http.StatusOK, Fail(message))
		return
	}

	var payload importer.SeedPayload
	if err := readBodyJSON(r, maxImportBodyBytes, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("the selected file does not contain valid JSON"))
		return
	}

	options := importer.ImportOptions{ClearExisting: r.URL.Query().Get("clear") == "true"}
	result, err := h.pipeline.ImportSeedPayload(r.Context(), &payload, options)
	if err != nil {
		h.logger.Error("seed import failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to import seed payload"))
		return
	}

	h.logger.Info("seed imported via api",
		zap.String("signee", signatory.Name),
		zap.Bool("cleared", options.ClearExisting))
	writeJSON(w, http.StatusOK, Ok(result))
}

type seedSyncRequest struct {
	URL   string `json:"url,omitempty"`
	Clear bool   `json:"clear,omitempty"`
}

// SeedSync 从远端端点拉取种子快照并整库导入
func (h *ImportHandler) SeedSync(w http.ResponseWriter, r *http.Request) {
	signatory, message, ok := h.gate.Authorize(r, storeReplaceRoles)
	if !ok {
		writeJSON(w, http.StatusOK, Fail(message))
		return
	}

	var req seedSyncRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	result, err := h.pipeline.SyncFromRemote(r.Context(), importer.SyncOptions{
		ImportOptions: importer.ImportOptions{ClearExisting: req.Clear},
		URL:           req.URL,
	})
	switch {
	case errors.Is(err, importer.ErrRemoteSyncDisabled):
		writeJSON(w, http.StatusOK, Fail("Remote sync is not configured."))
		return
	case err != nil:
		h.logger.Error("seed sync failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Fail("failed to sync seed data"))
		return
	}

	h.logger.Info("seed synchronized via api",
		zap.String("signee", signatory.Name),
		zap.String("source", result.Source))
	writeJSON(w, http.StatusOK, Ok(result))
}

// Export 下载全库快照，Content-Disposition 附带时间戳文件名。
// 导出与导入同级，同样过 PIN 闸门；任何已登记签核人均可
func (h *ImportHandler) Export(w http.ResponseWriter, r *http.Request) {
	signatory, message, ok := h.gate.Authorize(r, nil)
	if !ok {
		writeJSON(w, http.StatusOK, Fail(message))
		return
	}

	raw, err := h.pipeline.ExportJSON(r.Context())
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export data"))
		return
	}

	h.logger.Info("export downloaded via api",
		zap.String("signee", signatory.Name),
		zap.String("role", signatory.Role))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+importer.FormatExportFilename(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
