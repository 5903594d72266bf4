// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"

	"chat-analysis-go/internal/model"

	"gorm.io/gorm"
)

// LoadRunRepository 接口定义了加载历史的持久化操作。
type LoadRunRepository interface {
	Create(ctx context.Context, run *model.LoadRun) error
	FindRecent(ctx context.Context, limit int) ([]model.LoadRun, error)
}

// loadRunRepository 是 LoadRunRepository 接口的 GORM 实现。
type loadRunRepository struct {
	db *gorm.DB
}

// NewLoadRunRepository 创建一个新的 LoadRunRepository 实例。
func NewLoadRunRepository(db *gorm.DB) LoadRunRepository {
	return &loadRunRepository{db: db}
}

// Create 在数据库中写入一条加载记录。
func (r *loadRunRepository) Create(ctx context.Context, run *model.LoadRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// FindRecent 按开始时间倒序返回最近的 limit 条加载记录。
func (r *loadRunRepository) FindRecent(ctx context.Context, limit int) ([]model.LoadRun, error) {
	var runs []model.LoadRun
	err := r.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}
