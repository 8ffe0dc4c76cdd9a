package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ErrRemoteSyncDisabled 未配置远端种子地址
var ErrRemoteSyncDisabled = errors.New("remote seed url not configured")

// SyncOptions 远端同步选项，URL 为空时用配置的默认地址
type SyncOptions struct {
	ImportOptions
	URL string
}

// SyncFromRemote 从远端端点拉取种子快照并整库导入。
// 请求带时间戳参数绕过缓存；非 2xx 或响应非 JSON 都视为致命错误，
// 不重试（快照同步宁可失败也不要读到旧缓存）
func (p *Pipeline) SyncFromRemote(ctx context.Context, options SyncOptions) (*ImportResult, error) {
	endpoint := options.URL
	if endpoint == "" {
		endpoint = p.remoteURL
	}
	if endpoint == "" {
		return nil, ErrRemoteSyncDisabled
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("ts", strconv.FormatInt(time.Now().UnixMilli(), 10)).
		SetHeader("Cache-Control", "no-store").
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seed data from %s: %w", endpoint, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch seed data from %s (%d)", endpoint, resp.StatusCode())
	}

	var payload SeedPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("seed payload from %s is not valid JSON (content-type: %s): %w",
			endpoint, resp.Header().Get("Content-Type"), err)
	}

	result, err := p.ImportSeedPayload(ctx, &payload, options.ImportOptions)
	if err != nil {
		return nil, err
	}
	result.Source = endpoint

	p.logger.Info("remote seed synchronized",
		zap.String("endpoint", endpoint),
		zap.Int("projects", result.Counts.Projects),
		zap.Int("components", result.Counts.Components),
	)
	return result, nil
}
