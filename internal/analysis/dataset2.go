package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chat-analysis-go/internal/model"
)

// Weekdays 是日维度的展示顺序，周一在前。
var Weekdays = []string{
	time.Monday.String(), time.Tuesday.String(), time.Wednesday.String(), time.Thursday.String(),
	time.Friday.String(), time.Saturday.String(), time.Sunday.String(),
}

// Months 是月维度的展示顺序。
var Months = func() []string {
	out := make([]string, 12)
	for m := time.January; m <= time.December; m++ {
		out[m-1] = m.String()
	}
	return out
}()

var derivedColumns = map[string]struct{}{
	model.ColYear: {}, model.ColHour: {}, model.ColDayOfWeek: {}, model.ColMonth: {},
}

func (a *Analyzer) overview2(ds *model.Datasets) ([]model.Stat, []model.Chart, error) {
	d := ds.Dataset2
	total := d.Rows()
	dups := DuplicatedRows(d)
	pct := 0.0
	if total > 0 {
		pct = float64(dups) / float64(total) * 100
	}
	stats := []model.Stat{
		{Label: "Total Rows", Value: strconv.Itoa(total)},
		{Label: "Unique Users", Value: strconv.Itoa(uniqueCount(d.Column(model.ColNames)))},
		{Label: "Duplicated Rows", Value: fmt.Sprintf("%d (%.2f%%)", dups, pct)},
	}
	return stats, nil, nil
}

// DuplicatedRows 统计与之前某行在全部源列上完全相同的行数。
func DuplicatedRows(d *model.Dataset) int {
	var cols []string
	for _, name := range d.Frame.Names() {
		if _, derived := derivedColumns[name]; !derived {
			cols = append(cols, name)
		}
	}
	if len(cols) == 0 {
		return 0
	}
	records := d.Frame.Select(cols).Records()
	seen := make(map[string]struct{}, len(records))
	dups := 0
	// 第一行是表头
	for _, row := range records[1:] {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

func (a *Analyzer) topUsers2(ds *model.Datasets) ([]model.Stat, []model.Chart, error) {
	counts := Top(ValueCounts(ds.Dataset2.Column(model.ColNames)), a.opts.TopN)
	return nil, []model.Chart{barChart("Most Active Users", "User", "Message Count", counts)}, nil
}

func (a *Analyzer) activity2(ds *model.Datasets) ([]model.Stat, []model.Chart, error) {
	d := ds.Dataset2
	hours, err := intColumn(d, model.ColHour)
	if err != nil {
		return nil, nil, err
	}
	for _, col := range []string{model.ColDayOfWeek, model.ColMonth} {
		if err := requireColumn(d, col); err != nil {
			return nil, nil, err
		}
	}
	days := d.Column(model.ColDayOfWeek)
	months := d.Column(model.ColMonth)

	charts := []model.Chart{
		barChart("Messages by Hour of Day", "Hour", "Message Count", hourCounts(hours)),
		barChart("Messages by Day of Week", "Day", "Message Count", orderedCounts(days, Weekdays)),
		barChart("Messages by Month", "Month", "Message Count", orderedCounts(months, Months)),
		heatmap(days, hours),
	}
	return nil, charts, nil
}

// heatmap 生成星期 × 小时的消息数矩阵，行固定为周一到周日，列为出现过的小时。
func heatmap(days []string, hours []int) model.Chart {
	present := hourCounts(hours)
	colIndex := make(map[int]int, len(present))
	categories := make([]string, len(present))
	for i, c := range present {
		h, _ := strconv.Atoi(c.Label)
		colIndex[h] = i
		categories[i] = c.Label
	}
	rowIndex := make(map[string]int, len(Weekdays))
	for i, d := range Weekdays {
		rowIndex[d] = i
	}

	matrix := make([][]int, len(Weekdays))
	for i := range matrix {
		matrix[i] = make([]int, len(present))
	}
	for i, day := range days {
		r, ok := rowIndex[day]
		if !ok || i >= len(hours) {
			continue
		}
		matrix[r][colIndex[hours[i]]]++
	}

	return model.Chart{
		Title:      "Activity Heatmap (Day vs Hour)",
		Kind:       model.ChartHeatmap,
		XLabel:     "Hour",
		YLabel:     "Day",
		Categories: categories,
		RowLabels:  append([]string(nil), Weekdays...),
		Matrix:     matrix,
	}
}
