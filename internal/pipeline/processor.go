// Package pipeline 定义了异步刷新任务的处理流程。
package pipeline

import (
	"context"
	"fmt"

	"chat-analysis-go/internal/model"
	"chat-analysis-go/pkg/log"
	"chat-analysis-go/pkg/tasks"
)

// Refresher 是处理器依赖的刷新能力，由 service.ReportService 提供。
type Refresher interface {
	Refresh(ctx context.Context, requestedBy string) (*model.LoadRun, error)
}

// RefreshProcessor 消费刷新任务并重新加载数据集。
type RefreshProcessor struct {
	refresher Refresher
}

// NewRefreshProcessor 创建一个新的 RefreshProcessor 实例。
func NewRefreshProcessor(refresher Refresher) *RefreshProcessor {
	return &RefreshProcessor{refresher: refresher}
}

// Process 执行一次刷新，加载失败时返回错误以便消费者重试。
func (p *RefreshProcessor) Process(ctx context.Context, task tasks.RefreshTask) error {
	log.Infof("[Processor] 开始处理刷新任务, TaskID: %s, RequestedBy: %s, RequestedAt: %s",
		task.ID, task.RequestedBy, task.RequestedAt.Format(model.TimeLayout))

	run, err := p.refresher.Refresh(ctx, task.RequestedBy)
	if err != nil {
		return fmt.Errorf("refresh task %s: %w", task.ID, err)
	}
	log.Infof("[Processor] 刷新任务完成, TaskID: %s, RunID: %s, Fingerprint: %s", task.ID, run.ID, run.Fingerprint)
	return nil
}
