package service

import (
	"context"
	"errors"
	"sync"

	"chat-analysis-go/internal/model"
	"chat-analysis-go/internal/repository"
)

// ErrSearchUnavailable 表示没有配置消息检索索引。
var ErrSearchUnavailable = errors.New("message search is not configured")

// DatasetLoader 加载两份数据集，失败时返回 *loader.LoadError。
type DatasetLoader interface {
	Load(ctx context.Context) (*model.Datasets, error)
}

// MessageIndexer 维护 dataset1 消息的全文索引。
type MessageIndexer interface {
	ReplaceAll(ctx context.Context, msgs []model.IndexedMessage) error
	Search(ctx context.Context, query string, size int) ([]model.MessageHit, error)
}

// EventPublisher 推送加载事件。
type EventPublisher interface {
	Publish(ctx context.Context, event model.LoadEvent) error
}

type noopViewCache struct{}

func (noopViewCache) Get(context.Context, string, string) (*model.ViewResult, bool, error) {
	return nil, false, nil
}

func (noopViewCache) Set(context.Context, string, string, *model.ViewResult) error { return nil }

type noopIndexer struct{}

func (noopIndexer) ReplaceAll(context.Context, []model.IndexedMessage) error { return nil }

func (noopIndexer) Search(context.Context, string, int) ([]model.MessageHit, error) {
	return nil, ErrSearchUnavailable
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, model.LoadEvent) error { return nil }

// memoryLoadRuns 在未配置 MySQL 时保留进程内最近的加载记录。
type memoryLoadRuns struct {
	mu       sync.Mutex
	runs     []model.LoadRun
	capacity int
}

func newMemoryLoadRuns(capacity int) repository.LoadRunRepository {
	return &memoryLoadRuns{capacity: capacity}
}

func (m *memoryLoadRuns) Create(_ context.Context, run *model.LoadRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	if len(m.runs) > m.capacity {
		m.runs = m.runs[len(m.runs)-m.capacity:]
	}
	return nil
}

func (m *memoryLoadRuns) FindRecent(_ context.Context, limit int) ([]model.LoadRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.LoadRun, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}
