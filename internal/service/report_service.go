// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chat-analysis-go/internal/analysis"
	"chat-analysis-go/internal/loader"
	"chat-analysis-go/internal/model"
	"chat-analysis-go/internal/repository"
	"chat-analysis-go/pkg/log"
	"chat-analysis-go/pkg/metrics"

	"github.com/google/uuid"
)

// ErrDatasetsUnavailable 表示当前没有可用的数据集，错误信息中附带最近一次加载的诊断。
var ErrDatasetsUnavailable = errors.New("datasets unavailable")

const (
	// TriggerStartup 标记进程启动时的加载。
	TriggerStartup = "startup"
	// TriggerRefresh 是显式刷新的前缀，后接请求者。
	TriggerRefresh = "refresh"

	notLoadedDiagnostic = "datasets have not been loaded yet"
	memoryHistorySize   = 100
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
	defaultSearchSize   = 10
	maxSearchSize       = 100
)

// Status 描述当前的加载状态。
type Status struct {
	Loaded      bool             `json:"loaded"`
	Diagnostic  string           `json:"diagnostic,omitempty"`
	FailureKind string           `json:"failureKind,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Rows1       int              `json:"rows1"`
	Rows2       int              `json:"rows2"`
	LoadedAt    *model.LocalTime `json:"loadedAt,omitempty"`
	LastRunID   string           `json:"lastRunId,omitempty"`
}

// ReportService 接口定义了报表相关的业务操作。
type ReportService interface {
	Load(ctx context.Context) (*model.LoadRun, error)
	Refresh(ctx context.Context, requestedBy string) (*model.LoadRun, error)
	Status() Status
	ListViews() []model.ViewInfo
	View(ctx context.Context, name string) (*model.ViewResult, error)
	LoadHistory(ctx context.Context, limit int) ([]model.LoadRun, error)
	SearchMessages(ctx context.Context, query string, size int) ([]model.MessageHit, error)
}

// Dependencies 汇总 ReportService 的协作者。Loader 与 Analyzer 必填，其余为空时使用空实现。
type Dependencies struct {
	Loader   DatasetLoader
	Analyzer *analysis.Analyzer
	Cache    repository.ViewCache
	Runs     repository.LoadRunRepository
	Indexer  MessageIndexer
	Events   EventPublisher
	Now      func() time.Time
	NewID    func() string
}

// reportService 是 ReportService 接口的实现。
// datasets 发布后只读，读写通过 mu 交换指针；loadMu 串行化加载与刷新。
type reportService struct {
	loader   DatasetLoader
	analyzer *analysis.Analyzer
	// signature 是 analyzer 参数摘要，参与视图缓存键
	signature string
	cache     repository.ViewCache
	runs      repository.LoadRunRepository
	indexer   MessageIndexer
	events    EventPublisher
	now       func() time.Time
	newID     func() string

	loadMu sync.Mutex

	mu          sync.RWMutex
	datasets    *model.Datasets
	diagnostic  string
	failureKind string
	lastRunID   string
}

// NewReportService 创建一个新的 ReportService 实例。
func NewReportService(deps Dependencies) ReportService {
	s := &reportService{
		loader:     deps.Loader,
		analyzer:   deps.Analyzer,
		cache:      deps.Cache,
		runs:       deps.Runs,
		indexer:    deps.Indexer,
		events:     deps.Events,
		now:        deps.Now,
		newID:      deps.NewID,
		diagnostic: notLoadedDiagnostic,
	}
	if s.analyzer == nil {
		s.analyzer = analysis.NewAnalyzer(analysis.Options{})
	}
	s.signature = s.analyzer.Signature()
	if s.cache == nil {
		s.cache = noopViewCache{}
	}
	if s.runs == nil {
		s.runs = newMemoryLoadRuns(memoryHistorySize)
	}
	if s.indexer == nil {
		s.indexer = noopIndexer{}
	}
	if s.events == nil {
		s.events = noopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	return s
}

// Load 执行启动时的加载。
func (s *reportService) Load(ctx context.Context) (*model.LoadRun, error) {
	return s.load(ctx, TriggerStartup)
}

// Refresh 显式重新加载两份数据集。失败时丢弃之前的数据集。
func (s *reportService) Refresh(ctx context.Context, requestedBy string) (*model.LoadRun, error) {
	trigger := TriggerRefresh
	if requestedBy != "" {
		trigger = TriggerRefresh + ":" + requestedBy
	}
	return s.load(ctx, trigger)
}

func (s *reportService) load(ctx context.Context, trigger string) (*model.LoadRun, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	run := &model.LoadRun{ID: s.newID(), Trigger: trigger, StartedAt: s.now()}
	log.Infof("[ReportService] 开始加载数据集, RunID: %s, Trigger: %s", run.ID, trigger)

	ds, err := s.loader.Load(ctx)
	run.FinishedAt = s.now()
	elapsed := run.FinishedAt.Sub(run.StartedAt)

	aborted := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)

	s.mu.Lock()
	s.lastRunID = run.ID
	if aborted {
		// 加载被调用方中止，不代表数据源有问题，保留现有数据集
		run.Status = model.LoadFailed
		run.FailureKind = loader.KindOf(err).String()
		run.Diagnostic = err.Error()
	} else if err != nil {
		s.datasets = nil
		s.diagnostic = err.Error()
		s.failureKind = loader.KindOf(err).String()
		run.Status = model.LoadFailed
		run.FailureKind = s.failureKind
		run.Diagnostic = s.diagnostic
	} else {
		s.datasets = ds
		s.diagnostic = ""
		s.failureKind = ""
		run.Status = model.LoadSucceeded
		run.Fingerprint = ds.Fingerprint
		run.Rows1 = ds.Dataset1.Rows()
		run.Rows2 = ds.Dataset2.Rows()
	}
	s.mu.Unlock()

	metrics.ObserveLoad(err == nil, run.FailureKind, elapsed)
	if !aborted {
		metrics.SetRows(model.Dataset1.String(), run.Rows1)
		metrics.SetRows(model.Dataset2.String(), run.Rows2)
	}

	switch {
	case aborted:
		log.Warnf("[ReportService] 数据集加载被中止，保留现有数据集, RunID: %s, Error: %v", run.ID, err)
	case err != nil:
		log.Errorf("[ReportService] 数据集加载失败, RunID: %s, Kind: %s, Error: %v", run.ID, run.FailureKind, err)
	default:
		log.Infof("[ReportService] 数据集加载成功, RunID: %s, Rows: %d/%d, Fingerprint: %s", run.ID, run.Rows1, run.Rows2, run.Fingerprint)
		if ierr := s.indexer.ReplaceAll(ctx, indexedMessages(ds.Dataset1)); ierr != nil {
			log.Errorf("[ReportService] 写入消息索引失败: %v", ierr)
		}
	}

	// 加载记录与事件在调用方取消后仍需写出
	bookkeeping := context.WithoutCancel(ctx)
	if rerr := s.runs.Create(bookkeeping, run); rerr != nil {
		log.Errorf("[ReportService] 保存加载记录失败: %v", rerr)
	}
	event := model.LoadEvent{
		Type:        "load",
		RunID:       run.ID,
		Status:      run.Status,
		Diagnostic:  run.Diagnostic,
		Fingerprint: run.Fingerprint,
		Timestamp:   model.LocalTime(run.FinishedAt),
	}
	if perr := s.events.Publish(bookkeeping, event); perr != nil {
		log.Warnf("[ReportService] 推送加载事件失败: %v", perr)
	}
	return run, err
}

// indexedMessages 将 dataset1 的行转换为检索文档，缺少 message 列时不建索引。
func indexedMessages(d *model.Dataset) []model.IndexedMessage {
	if !d.HasColumn(model.ColMessage) {
		return nil
	}
	users := d.Column(model.ColUser)
	messages := d.Column(model.ColMessage)
	out := make([]model.IndexedMessage, 0, len(messages))
	for i, msg := range messages {
		if msg == "" || msg == "NaN" {
			continue
		}
		t := d.Times[i]
		out = append(out, model.IndexedMessage{
			Row:      i,
			User:     users[i],
			Message:  msg,
			Datetime: t.Format(model.TimeLayout),
			Year:     t.Year(),
			Hour:     t.Hour(),
		})
	}
	return out
}

// Status 返回当前加载状态。
func (s *reportService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Loaded:      s.datasets != nil,
		Diagnostic:  s.diagnostic,
		FailureKind: s.failureKind,
		LastRunID:   s.lastRunID,
	}
	if ds := s.datasets; ds != nil {
		loadedAt := model.LocalTime(ds.LoadedAt)
		st.Fingerprint = ds.Fingerprint
		st.Rows1 = ds.Dataset1.Rows()
		st.Rows2 = ds.Dataset2.Rows()
		st.LoadedAt = &loadedAt
	}
	return st
}

// ListViews 返回视图目录。
func (s *reportService) ListViews() []model.ViewInfo {
	return analysis.Views()
}

func (s *reportService) snapshot() (*model.Datasets, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasets, s.diagnostic
}

// View 返回指定视图，优先读取按数据指纹缓存的结果。
func (s *reportService) View(ctx context.Context, name string) (*model.ViewResult, error) {
	if _, ok := analysis.Lookup(name); !ok {
		return nil, fmt.Errorf("%w: %q", analysis.ErrUnknownView, name)
	}
	ds, diagnostic := s.snapshot()
	if ds == nil {
		return nil, fmt.Errorf("%w: %s", ErrDatasetsUnavailable, diagnostic)
	}

	dataKey := ds.Fingerprint + ":" + s.signature
	if cached, ok, err := s.cache.Get(ctx, dataKey, name); err != nil {
		log.Warnf("[ReportService] 读取视图缓存失败, View: %s, Error: %v", name, err)
	} else if ok {
		metrics.ObserveView(name, true)
		return cached, nil
	}

	res, err := s.analyzer.Compute(ctx, name, ds)
	if err != nil {
		return nil, err
	}
	metrics.ObserveView(name, false)
	if err := s.cache.Set(ctx, dataKey, name, res); err != nil {
		log.Warnf("[ReportService] 写入视图缓存失败, View: %s, Error: %v", name, err)
	}
	return res, nil
}

// LoadHistory 返回最近的加载记录。
func (s *reportService) LoadHistory(ctx context.Context, limit int) ([]model.LoadRun, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.runs.FindRecent(ctx, limit)
}

// SearchMessages 在 dataset1 消息中全文检索。
func (s *reportService) SearchMessages(ctx context.Context, query string, size int) ([]model.MessageHit, error) {
	if ds, diagnostic := s.snapshot(); ds == nil {
		return nil, fmt.Errorf("%w: %s", ErrDatasetsUnavailable, diagnostic)
	}
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	return s.indexer.Search(ctx, query, size)
}
