package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"factoryqa-data/internal/domain"
	"factoryqa-data/internal/repository"
)

// SeedPayload 种子/导出 JSON 的五个集合，导入时每个字段都可缺省
type SeedPayload struct {
	Projects   []domain.Project         `json:"projects,omitempty"`
	Components []domain.Component       `json:"components,omitempty"`
	QAForms    []domain.QAForm          `json:"qa_forms,omitempty"`
	QAItems    []domain.QAItem          `json:"qa_items,omitempty"`
	QASessions []domain.QASessionRecord `json:"qa_sessions,omitempty"`
}

// ImportCounts 各集合导入条数
type ImportCounts struct {
	Projects   int `json:"projects"`
	Components int `json:"components"`
	QAForms    int `json:"qa_forms"`
	QAItems    int `json:"qa_items"`
	QASessions int `json:"qa_sessions"`
}

// ImportResult 一次种子导入的结果
type ImportResult struct {
	Counts  ImportCounts `json:"counts"`
	Cleared bool         `json:"cleared"`
	Source  string       `json:"source,omitempty"`
}

// ImportOptions 种子导入选项
type ImportOptions struct {
	// ClearExisting 导入前清空全部五个集合（同一事务内）
	ClearExisting bool
}

// ImportSeedPayload 整库导入种子载荷：可选清空后逐集合 BulkPut，
// 全程单事务，部分写入永不可见
func (p *Pipeline) ImportSeedPayload(ctx context.Context, payload *SeedPayload, options ImportOptions) (*ImportResult, error) {
	result := &ImportResult{
		Counts: ImportCounts{
			Projects:   len(payload.Projects),
			Components: len(payload.Components),
			QAForms:    len(payload.QAForms),
			QAItems:    len(payload.QAItems),
			QASessions: len(payload.QASessions),
		},
		Cleared: options.ClearExisting,
	}

	err := p.store.WithTx(ctx, func(tx *repository.Store) error {
		if options.ClearExisting {
			if err := tx.Projects.Clear(ctx); err != nil {
				return err
			}
			if err := tx.Components.Clear(ctx); err != nil {
				return err
			}
			if err := tx.QAForms.Clear(ctx); err != nil {
				return err
			}
			if err := tx.QAItems.Clear(ctx); err != nil {
				return err
			}
			if err := tx.Sessions.Clear(ctx); err != nil {
				return err
			}
		}

		if len(payload.Projects) > 0 {
			if err := tx.Projects.BulkPut(ctx, payload.Projects); err != nil {
				return err
			}
		}
		if len(payload.Components) > 0 {
			if err := tx.Components.BulkPut(ctx, payload.Components); err != nil {
				return err
			}
		}
		if len(payload.QAForms) > 0 {
			if err := tx.QAForms.BulkPut(ctx, payload.QAForms); err != nil {
				return err
			}
		}
		if len(payload.QAItems) > 0 {
			if err := tx.QAItems.BulkPut(ctx, payload.QAItems); err != nil {
				return err
			}
		}
		if len(payload.QASessions) > 0 {
			if err := tx.Sessions.BulkPut(ctx, payload.QASessions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import seed payload: %w", err)
	}

	p.logger.Info("seed payload imported",
		zap.Bool("cleared", result.Cleared),
		zap.Int("projects", result.Counts.Projects),
		zap.Int("components", result.Counts.Components),
		zap.Int("qa_sessions", result.Counts.QASessions),
	)
	return result, nil
}

// SeedIfEmpty 五个集合全空时从本地种子文件做首次引导，
// 返回是否实际执行了导入。任一集合已有数据则不动
func (p *Pipeline) SeedIfEmpty(ctx context.Context) (bool, error) {
	counters := []func(context.Context) (int, error){
		p.store.Projects.Count,
		p.store.Components.Count,
		p.store.QAForms.Count,
		p.store.QAItems.Count,
		p.store.Sessions.Count,
	}
	for _, count := range counters {
		n, err := count(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check store contents: %w", err)
		}
		if n > 0 {
			return false, nil
		}
	}

	if p.seedPath == "" {
		return false, nil
	}
	if _, err := os.Stat(p.seedPath); os.IsNotExist(err) {
		p.logger.Info("seed file not present, starting with an empty store",
			zap.String("path", p.seedPath))
		return false, nil
	}

	result, err := p.ImportSeedFile(ctx, p.seedPath, ImportOptions{ClearExisting: true})
	if err != nil {
		return false, err
	}
	p.logger.Info("store bootstrapped from bundled seed",
		zap.String("path", p.seedPath),
		zap.Int("projects", result.Counts.Projects),
		zap.Int("components", result.Counts.Components),
	)
	return true, nil
}

// ImportSeedFile 从 JSON 文件导入种子载荷
func (p *Pipeline) ImportSeedFile(ctx context.Context, path string, options ImportOptions) (*ImportResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var payload SeedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("the selected file does not contain valid JSON: %w", err)
	}

	result, err := p.ImportSeedPayload(ctx, &payload, options)
	if err != nil {
		return nil, err
	}
	result.Source = path
	return result, nil
}
