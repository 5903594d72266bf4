// Package export 将视图结果导出为 XLSX 工作簿。
package export

import (
	"fmt"
	"io"
	"strings"

	"chat-analysis-go/internal/model"

	"github.com/xuri/excelize/v2"
)

// ContentType 是 XLSX 文件的 MIME 类型。
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const summarySheet = "Summary"

// FileName 返回视图导出文件名。
func FileName(res *model.ViewResult) string {
	return res.View + ".xlsx"
}

// WriteXLSX 将视图写为工作簿：Summary 页记录视图信息与概要统计，每张图表一页。
// 柱状图附带 Excel 原生柱形图，热力图以矩阵形式写出。
func WriteXLSX(w io.Writer, res *model.ViewResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if err := writeSummary(f, res); err != nil {
		return err
	}
	for i, chart := range res.Charts {
		name := sheetName(i, chart.Title)
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		var err error
		if chart.Kind == model.ChartHeatmap {
			err = writeMatrix(f, name, chart)
		} else {
			err = writeSeries(f, name, chart)
		}
		if err != nil {
			return fmt.Errorf("导出图表 %q 失败: %w", chart.Title, err)
		}
	}
	return f.Write(w)
}

func writeSummary(f *excelize.File, res *model.ViewResult) error {
	rows := [][]interface{}{
		{"View", res.View},
		{"Title", res.Title},
		{"Fingerprint", res.Fingerprint},
		{"Generated At", res.GeneratedAt.String()},
	}
	if len(res.Stats) > 0 {
		rows = append(rows, []interface{}{}, []interface{}{"Statistic", "Value"})
		for _, s := range res.Stats {
			rows = append(rows, []interface{}{s.Label, s.Value})
		}
	}
	return setRows(f, summarySheet, 1, rows)
}

func writeSeries(f *excelize.File, sheet string, chart model.Chart) error {
	rows := make([][]interface{}, 0, len(chart.Categories)+1)
	rows = append(rows, []interface{}{header(chart.XLabel, "Label"), header(chart.YLabel, "Count")})
	for i, c := range chart.Categories {
		rows = append(rows, []interface{}{c, chart.Values[i]})
	}
	if err := setRows(f, sheet, 1, rows); err != nil {
		return err
	}
	if chart.Kind != model.ChartBar || len(chart.Categories) == 0 {
		return nil
	}

	last := len(chart.Categories) + 1
	return f.AddChart(sheet, "D2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheet),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, last),
		}},
		Title: []excelize.RichTextRun{{Text: chart.Title}},
	})
}

func writeMatrix(f *excelize.File, sheet string, chart model.Chart) error {
	head := make([]interface{}, 0, len(chart.Categories)+1)
	head = append(head, header(chart.YLabel, "")+" \\ "+header(chart.XLabel, ""))
	for _, c := range chart.Categories {
		head = append(head, c)
	}
	rows := [][]interface{}{head}
	for i, label := range chart.RowLabels {
		row := make([]interface{}, 0, len(chart.Categories)+1)
		row = append(row, label)
		for _, v := range chart.Matrix[i] {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return setRows(f, sheet, 1, rows)
}

func setRows(f *excelize.File, sheet string, startRow int, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

func header(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// sheetName 生成不超过 31 个字符且不含非法字符的工作表名。
func sheetName(i int, title string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\', '\'':
			return '-'
		}
		return r
	}, title)
	name := fmt.Sprintf("%d %s", i+1, clean)
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	return strings.TrimSpace(name)
}
