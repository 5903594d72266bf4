// Package preprocess 根据 datetime 列为数据集派生日历字段。
package preprocess

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chat-analysis-go/internal/model"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	// ErrUnparseableDatetime 表示 datetime 列中存在无法解析的值。
	ErrUnparseableDatetime = errors.New("unparseable datetime")
	// ErrMissingColumn 表示数据集缺少必需的列。
	ErrMissingColumn = errors.New("missing column")
)

// DefaultLayouts 是未配置时依次尝试的时间格式。
var DefaultLayouts = []string{
	model.TimeLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/06, 15:04",
	"1/2/06 15:04",
}

// ParseError 记录第一个无法解析的 datetime 值。Row 从 0 开始计数。
type ParseError struct {
	Row   int
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("data row %d: cannot parse %q as datetime", e.Row+1, e.Value)
}

func (e *ParseError) Unwrap() error {
	return ErrUnparseableDatetime
}

// Result 是预处理后的数据帧以及按行顺序解析出的时间。
type Result struct {
	Frame dataframe.DataFrame
	Times []time.Time
}

// Apply 根据数据集类型选择对应的预处理函数。
func Apply(kind model.DatasetKind, frame dataframe.DataFrame, layouts []string) (Result, error) {
	switch kind {
	case model.Dataset1:
		return Dataset1(frame, layouts)
	case model.Dataset2:
		return Dataset2(frame, layouts)
	default:
		return Result{}, fmt.Errorf("unknown dataset kind %d", kind)
	}
}

// Dataset1 追加 year 与 hour 两列。
func Dataset1(frame dataframe.DataFrame, layouts []string) (Result, error) {
	times, err := ParseColumn(frame, layouts)
	if err != nil {
		return Result{}, err
	}

	years := make([]int, len(times))
	hours := make([]int, len(times))
	for i, t := range times {
		years[i] = t.Year()
		hours[i] = t.Hour()
	}

	out := withCanonicalDatetime(frame, times).
		Mutate(series.New(years, series.Int, model.ColYear)).
		Mutate(series.New(hours, series.Int, model.ColHour))
	if out.Err != nil {
		return Result{}, fmt.Errorf("append derived columns: %w", out.Err)
	}
	return Result{Frame: out, Times: times}, nil
}

// Dataset2 追加 day_of_week、month 与 hour 三列。
func Dataset2(frame dataframe.DataFrame, layouts []string) (Result, error) {
	times, err := ParseColumn(frame, layouts)
	if err != nil {
		return Result{}, err
	}

	days := make([]string, len(times))
	months := make([]string, len(times))
	hours := make([]int, len(times))
	for i, t := range times {
		days[i] = t.Weekday().String()
		months[i] = t.Month().String()
		hours[i] = t.Hour()
	}

	out := withCanonicalDatetime(frame, times).
		Mutate(series.New(days, series.String, model.ColDayOfWeek)).
		Mutate(series.New(months, series.String, model.ColMonth)).
		Mutate(series.New(hours, series.Int, model.ColHour))
	if out.Err != nil {
		return Result{}, fmt.Errorf("append derived columns: %w", out.Err)
	}
	return Result{Frame: out, Times: times}, nil
}

// ParseColumn 解析 datetime 列的每一个值，任意一行失败即整体失败。
func ParseColumn(frame dataframe.DataFrame, layouts []string) ([]time.Time, error) {
	if !hasColumn(frame, model.ColDatetime) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, model.ColDatetime)
	}
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}

	values := frame.Col(model.ColDatetime).Records()
	times := make([]time.Time, len(values))
	for i, v := range values {
		t, ok := ParseTime(v, layouts)
		if !ok {
			return nil, &ParseError{Row: i, Value: v}
		}
		times[i] = t
	}
	return times, nil
}

// ParseTime 依次尝试给定格式解析一个时间值，空值与 NaN 视为无法解析。
func ParseTime(value string, layouts []string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" || v == "NaN" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// withCanonicalDatetime 将 datetime 列改写为统一格式，保证多次预处理结果一致。
func withCanonicalDatetime(frame dataframe.DataFrame, times []time.Time) dataframe.DataFrame {
	canonical := make([]string, len(times))
	for i, t := range times {
		canonical[i] = t.Format(model.TimeLayout)
	}
	return frame.Mutate(series.New(canonical, series.String, model.ColDatetime))
}

func hasColumn(frame dataframe.DataFrame, name string) bool {
	for _, n := range frame.Names() {
		if n == name {
			return true
		}
	}
	return false
}
