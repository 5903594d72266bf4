package model

import "time"

// LoadStatus 表示一次加载的结果。
type LoadStatus string

const (
	LoadSucceeded LoadStatus = "succeeded"
	LoadFailed    LoadStatus = "failed"
)

// LoadRun 对应于数据库中的 dataset_load_runs 表，记录每一次加载或刷新。
type LoadRun struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Trigger     string     `gorm:"type:varchar(64);not null" json:"trigger"`
	Status      LoadStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	FailureKind string     `gorm:"type:varchar(32)" json:"failureKind,omitempty"`
	Diagnostic  string     `gorm:"type:text" json:"diagnostic,omitempty"`
	Fingerprint string     `gorm:"type:varchar(64)" json:"fingerprint,omitempty"`
	Rows1       int        `gorm:"not null;default:0" json:"rows1"`
	Rows2       int        `gorm:"not null;default:0" json:"rows2"`
	StartedAt   time.Time  `gorm:"not null;index" json:"startedAt"`
	FinishedAt  time.Time  `gorm:"not null" json:"finishedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (LoadRun) TableName() string {
	return "dataset_load_runs"
}

// LoadEvent 是推送给 websocket 订阅者的加载事件。
type LoadEvent struct {
	Type        string     `json:"type"`
	RunID       string     `json:"runId"`
	Status      LoadStatus `json:"status"`
	Diagnostic  string     `json:"diagnostic,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	Timestamp   LocalTime  `json:"timestamp"`
}

// IndexedMessage 是写入 Elasticsearch 的单条消息文档。
type IndexedMessage struct {
	DocID    string `json:"-"`
	Row      int    `json:"row"`
	User     string `json:"user"`
	Message  string `json:"message"`
	Datetime string `json:"datetime"`
	Year     int    `json:"year"`
	Hour     int    `json:"hour"`
}

// MessageHit 是一条搜索命中结果。
type MessageHit struct {
	IndexedMessage
	Score float64 `json:"score"`
}
