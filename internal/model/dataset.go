// Package model 包含了应用的数据模型定义。
package model

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// DatasetKind 区分两份列名不同的聊天导出数据。
type DatasetKind int

const (
	// Dataset1 每行一条消息，列为 datetime、user、message。
	Dataset1 DatasetKind = iota + 1
	// Dataset2 每行一条消息，列为 datetime、names 以及消息内容。
	Dataset2
)

// 源数据与派生列的列名。
const (
	ColDatetime  = "datetime"
	ColUser      = "user"
	ColNames     = "names"
	ColMessage   = "message"
	ColYear      = "year"
	ColHour      = "hour"
	ColDayOfWeek = "day_of_week"
	ColMonth     = "month"
)

func (k DatasetKind) String() string {
	switch k {
	case Dataset1:
		return "dataset1"
	case Dataset2:
		return "dataset2"
	default:
		return "unknown"
	}
}

// MarshalText 使 JSON 中以 dataset1/dataset2 表示。
func (k DatasetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DatasetKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "dataset1":
		*k = Dataset1
	case "dataset2":
		*k = Dataset2
	default:
		return fmt.Errorf("unknown dataset kind %q", b)
	}
	return nil
}

// IdentityColumn 返回该数据集中表示发送者的列名。
func (k DatasetKind) IdentityColumn() string {
	if k == Dataset2 {
		return ColNames
	}
	return ColUser
}

// RequiredColumns 返回加载时必须存在的列。
func (k DatasetKind) RequiredColumns() []string {
	return []string{ColDatetime, k.IdentityColumn()}
}

// Dataset 是一份已加载并完成预处理的数据集。
// Frame 与 Times 按行一一对应，加载完成后只读。
type Dataset struct {
	Kind     DatasetKind
	Source   string
	Frame    dataframe.DataFrame
	Times    []time.Time
	LoadedAt time.Time
}

// Rows 返回数据集的行数。
func (d *Dataset) Rows() int {
	if d == nil {
		return 0
	}
	return d.Frame.Nrow()
}

// HasColumn 判断数据集是否包含指定列。
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.Frame.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Column 以字符串形式返回指定列的所有值。
func (d *Dataset) Column(name string) []string {
	return d.Frame.Col(name).Records()
}

// Datasets 是一次加载的结果，两份数据集总是同时存在。
type Datasets struct {
	Dataset1    *Dataset
	Dataset2    *Dataset
	Fingerprint string
	LoadedAt    time.Time
}
