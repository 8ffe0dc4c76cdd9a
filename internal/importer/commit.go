package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"factoryqa-data/internal/repository"
)

var (
	// ErrAnalysisHasErrors 分析存在致命错误，禁止提交
	ErrAnalysisHasErrors = errors.New("cannot commit import while there are validation errors")
	// ErrNoNormalizedProject 没有归一化项目，禁止提交
	ErrNoNormalizedProject = errors.New("cannot commit import without a normalized project")
)

// Pipeline 导入/导出/种子管线，所有落库操作的唯一入口
type Pipeline struct {
	store     *repository.Store
	logger    *zap.Logger
	client    *resty.Client
	seedPath  string
	remoteURL string
}

// NewPipeline 构造管线。
// seedPath 为首次启动的本地种子文件，remoteURL 为空时禁用远端同步
func NewPipeline(store *repository.Store, logger *zap.Logger, seedPath, remoteURL string) *Pipeline {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	return &Pipeline{
		store:     store,
		logger:    logger,
		client:    client,
		seedPath:  seedPath,
		remoteURL: remoteURL,
	}
}

// CommitResult 提交结果：项目新增/更新二选一，
// 组件批量插入按部分成功计数
type CommitResult struct {
	ProjectInserted    bool `json:"projectInserted"`
	ProjectUpdated     bool `json:"projectUpdated"`
	InsertedComponents int  `json:"insertedComponents"`
	SkippedComponents  int  `json:"skippedComponents"`
}

// Commit 提交一次分析结果。
// 有致命错误或没有归一化项目时拒绝；项目 upsert（区分新增/更新），
// 组件 BulkAdd（重复键逐行跳过），整体在一个事务内
func (p *Pipeline) Commit(ctx context.Context, analysis *Analysis) (*CommitResult, error) {
	if analysis == nil || analysis.Project == nil {
		return nil, ErrNoNormalizedProject
	}
	if len(analysis.Errors) > 0 {
		return nil, ErrAnalysisHasErrors
	}

	result := &CommitResult{}
	err := p.store.WithTx(ctx, func(tx *repository.Store) error {
		_, err := tx.Projects.Get(ctx, analysis.Project.ProjectID)
		switch {
		case err == nil:
			if err := tx.Projects.Update(ctx, analysis.Project); err != nil {
				return err
			}
			result.ProjectUpdated = true
		case err == repository.ErrNotFound:
			if err := tx.Projects.Add(ctx, analysis.Project); err != nil {
				return err
			}
			result.ProjectInserted = true
		default:
			return err
		}

		if len(analysis.Components) == 0 {
			return nil
		}
		bulk, err := tx.Components.BulkAdd(ctx, analysis.Components)
		if err != nil {
			return err
		}
		result.InsertedComponents = bulk.Inserted
		result.SkippedComponents = bulk.Skipped
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	p.logger.Info("import committed",
		zap.String("project_id", analysis.Project.ProjectID),
		zap.Bool("project_inserted", result.ProjectInserted),
		zap.Int("inserted_components", result.InsertedComponents),
		zap.Int("skipped_components", result.SkippedComponents),
	)
	return result, nil
}
