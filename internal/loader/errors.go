package loader

import (
	"errors"
	"fmt"

	"chat-analysis-go/internal/model"
)

// Kind 是加载失败的分类。
type Kind int

const (
	// KindNotFound 数据源不存在。
	KindNotFound Kind = iota + 1
	// KindEmpty 数据源为空，或只有表头没有数据行。
	KindEmpty
	// KindMalformed 数据源无法解析：CSV 语法错误、缺少必需列或 datetime 无法解析。
	KindMalformed
	// KindUnexpected 其他任何错误。
	KindUnexpected
)

var (
	// ErrSourceNotFound 由 Opener 包装返回，表示数据源不存在。
	ErrSourceNotFound = errors.New("source not found")
	// ErrNoData 表示数据源没有任何数据行。
	ErrNoData = errors.New("no data rows")
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindEmpty:
		return "empty"
	case KindMalformed:
		return "malformed"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// LoadError 是加载边界对外报告的唯一错误类型，Error() 即面向用户的诊断信息。
type LoadError struct {
	Kind    Kind
	Dataset model.DatasetKind
	Source  string
	Err     error
}

func (e *LoadError) Error() string {
	cause := fmt.Sprintf("%s (%s): %v", e.Dataset, e.Source, e.Err)
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("Error: %s. Please ensure that the file exists.", cause)
	case KindEmpty:
		return fmt.Sprintf("Error: %s. The file is empty.", cause)
	case KindMalformed:
		return fmt.Sprintf("Error: %s. There was an error parsing the file.", cause)
	default:
		return fmt.Sprintf("An unexpected error occurred: %s", cause)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// KindOf 返回错误链中 LoadError 的分类，不是加载错误时返回 KindUnexpected。
func KindOf(err error) Kind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindUnexpected
}

func newLoadError(kind Kind, dataset model.DatasetKind, source string, err error) *LoadError {
	return &LoadError{Kind: kind, Dataset: dataset, Source: source, Err: err}
}
