package analysis

import (
	"sort"
	"strconv"
	"strings"

	"chat-analysis-go/internal/model"
)

// Count 是某个取值的出现次数。
type Count struct {
	Label string
	N     int
}

// isMissing 判断单元格是否为空值，gota 以 "NaN" 表示缺失的字符串。
func isMissing(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "NaN"
}

// ValueCounts 统计非空取值的出现次数，按次数降序、取值升序排列。
func ValueCounts(values []string) []Count {
	counts := make(map[string]int)
	for _, v := range values {
		if isMissing(v) {
			continue
		}
		counts[v]++
	}
	return sortCounts(counts)
}

func sortCounts(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Top 返回前 n 项。
func Top(counts []Count, n int) []Count {
	if n >= 0 && len(counts) > n {
		return counts[:n]
	}
	return counts
}

func uniqueCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if !isMissing(v) {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

func barChart(title, xLabel, yLabel string, counts []Count) model.Chart {
	c := model.Chart{
		Title:      title,
		Kind:       model.ChartBar,
		XLabel:     xLabel,
		YLabel:     yLabel,
		Categories: make([]string, len(counts)),
		Values:     make([]int, len(counts)),
	}
	for i, cnt := range counts {
		c.Categories[i] = cnt.Label
		c.Values[i] = cnt.N
	}
	return c
}

// hourCounts 返回出现过的小时及其消息数，小时升序。
func hourCounts(hours []int) []Count {
	counts := make(map[int]int)
	for _, h := range hours {
		counts[h]++
	}
	present := make([]int, 0, len(counts))
	for h := range counts {
		present = append(present, h)
	}
	sort.Ints(present)

	out := make([]Count, len(present))
	for i, h := range present {
		out[i] = Count{Label: strconv.Itoa(h), N: counts[h]}
	}
	return out
}

// orderedCounts 按给定顺序统计，未出现的取值补 0。
func orderedCounts(values []string, order []string) []Count {
	counts := make(map[string]int, len(order))
	for _, v := range values {
		counts[v]++
	}
	out := make([]Count, len(order))
	for i, label := range order {
		out[i] = Count{Label: label, N: counts[label]}
	}
	return out
}
