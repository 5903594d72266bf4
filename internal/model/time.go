package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout 是数据集中 datetime 列规范化后的格式，也是接口返回时间的格式。
const TimeLayout = "2006-01-02 15:04:05"

// LocalTime 以 "YYYY-MM-DD HH:MM:SS" 格式序列化时间。
type LocalTime time.Time

// MarshalJSON implements the json.Marshaler interface.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Format(TimeLayout))
	return []byte(formatted), nil
}

// String 返回规范格式的时间字符串。
func (t LocalTime) String() string {
	return time.Time(t).Format(TimeLayout)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *LocalTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	if s == "" || s == "null" {
		*t = LocalTime(time.Time{})
		return nil
	}
	parsed, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return err
	}
	*t = LocalTime(parsed)
	return nil
}
