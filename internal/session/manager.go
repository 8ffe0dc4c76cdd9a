package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"factoryqa-data/internal/auth"
	"factoryqa-data/internal/domain"
	"factoryqa-data/internal/repository"
	kv "factoryqa-data/internal/store"
)

const cacheKeyPrefix = "qa:session:"

// Manager 会话读写入口。
// 持久化策略：每次保存同时写会话表与构件 qaItems（单事务），
// 缓存为写穿透——丢失只影响读延迟，数据库才是权威副本。
// qaItems 只在首次加载（无会话记录）时作为回填来源
type Manager struct {
	store    *repository.Store
	cache    kv.KV
	registry *auth.Registry
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

func NewManager(store *repository.Store, cache kv.KV, registry *auth.Registry, logger *zap.Logger, cacheTTL time.Duration) *Manager {
	return &Manager{
		store:    store,
		cache:    cache,
		registry: registry,
		logger:   logger,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Loaded 一次加载的完整上下文
type Loaded struct {
	SessionID string            `json:"session_id"`
	Component *domain.Component `json:"component"`
	Template  Template          `json:"-"`
	State     *State            `json:"state"`
	// Reconciled 本次是否由 qaItems 回填（首次加载且无会话记录）
	Reconciled bool `json:"reconciled"`
}

func cacheKey(sessionID string) string {
	return cacheKeyPrefix + sessionID
}

// Load 加载构件的会话状态。
// 顺序：缓存 → 会话表 → 空白会话回填 qaItems
func (m *Manager) Load(ctx context.Context, projectID, groupCode, id string) (*Loaded, error) {
	comp, err := m.store.Components.Get(ctx, projectID, groupCode, id)
	if err != nil {
		return nil, err
	}

	tpl := LookupTemplate(comp.TemplateID)
	sid := SessionID(projectID, groupCode, id, comp.TemplateID)
	loaded := &Loaded{SessionID: sid, Component: comp, Template: tpl}

	if cached, err := m.cache.Get(ctx, cacheKey(sid)); err == nil {
		state := &State{}
		if err := json.Unmarshal([]byte(cached), state); err == nil {
			state.Normalize()
			loaded.State = state
			return loaded, nil
		}
		m.logger.Warn("cached session payload unreadable, falling back to store",
			zap.String("session_id", sid), zap.Error(err))
	}

	record, err := m.store.Sessions.Get(ctx, sid)
	switch {
	case err == nil:
		state := &State{}
		if err := json.Unmarshal(record.Data, state); err != nil {
			return nil, fmt.Errorf("failed to decode session payload: %w", err)
		}
		state.Normalize()
		loaded.State = state
	case err == repository.ErrNotFound:
		state := NewState()
		loaded.Reconciled = ApplyQAItemsToState(state, comp.QAItems, tpl, m.registry)
		loaded.State = state
	default:
		return nil, err
	}
	return loaded, nil
}

// Save 保存会话：单事务内写会话记录并把状态投影回构件 qaItems，
// 成功后写穿缓存。缓存写失败只告警不报错
func (m *Manager) Save(ctx context.Context, projectID, groupCode, id string, state *State) (*domain.QASessionRecord, error) {
	comp, err := m.store.Components.Get(ctx, projectID, groupCode, id)
	if err != nil {
		return nil, err
	}

	tpl := LookupTemplate(comp.TemplateID)
	state.Normalize()

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session payload: %w", err)
	}

	record := &domain.QASessionRecord{
		SessionID:    SessionID(projectID, groupCode, id, comp.TemplateID),
		ProjectID:    projectID,
		ComponentKey: ComponentKey(groupCode, id),
		Data:         data,
		UpdatedAt:    m.now().UTC().Format(time.RFC3339),
	}
	if normalized := NormalizeTemplateID(comp.TemplateID); normalized != "" {
		record.TemplateID = &normalized
	}

	items := ProjectStateToQAItems(comp.QAItems, state, tpl)

	err = m.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := tx.Sessions.Put(ctx, record); err != nil {
			return err
		}
		return tx.Components.UpdateQAItems(ctx, projectID, groupCode, id, items)
	})
	if err != nil {
		return nil, err
	}

	if err := m.cache.Set(ctx, cacheKey(record.SessionID), string(data), m.cacheTTL); err != nil {
		m.logger.Warn("session cache write failed",
			zap.String("session_id", record.SessionID), zap.Error(err))
	}
	return record, nil
}

// Advance 对当前步签核（给了 PIN 时）并前进一步，随后保存
func (m *Manager) Advance(ctx context.Context, projectID, groupCode, id, pin string) (*Loaded, error) {
	loaded, err := m.Load(ctx, projectID, groupCode, id)
	if err != nil {
		return nil, err
	}
	if pin != "" {
		if err := SignOff(loaded.State, loaded.State.CurrentStep, pin, m.registry, m.now()); err != nil {
			return loaded, err
		}
	}
	if err := Advance(loaded.State); err != nil {
		return loaded, err
	}
	if _, err := m.Save(ctx, projectID, groupCode, id, loaded.State); err != nil {
		return nil, err
	}
	return loaded, nil
}

// Retreat 后退一步并保存，不做任何校验
func (m *Manager) Retreat(ctx context.Context, projectID, groupCode, id string) (*Loaded, error) {
	loaded, err := m.Load(ctx, projectID, groupCode, id)
	if err != nil {
		return nil, err
	}
	Retreat(loaded.State)
	if _, err := m.Save(ctx, projectID, groupCode, id, loaded.State); err != nil {
		return nil, err
	}
	return loaded, nil
}

// Submit 终审提交：给了 PIN 时先对末步签核（角色白名单生效），
// 末步无签核记录时拒绝
func (m *Manager) Submit(ctx context.Context, projectID, groupCode, id, pin string) (*Loaded, error) {
	loaded, err := m.Load(ctx, projectID, groupCode, id)
	if err != nil {
		return nil, err
	}
	if pin != "" {
		if err := SignOff(loaded.State, StepCount-1, pin, m.registry, m.now()); err != nil {
			return loaded, err
		}
	}
	if err := Submit(loaded.State); err != nil {
		return loaded, err
	}
	if _, err := m.Save(ctx, projectID, groupCode, id, loaded.State); err != nil {
		return nil, err
	}
	return loaded, nil
}
