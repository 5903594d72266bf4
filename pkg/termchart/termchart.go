// Package termchart 在终端中以文本形式渲染视图结果。
package termchart

import (
	"fmt"
	"strings"

	"chat-analysis-go/internal/model"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D8590"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4FC1FF"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// shades 由浅到深表示热力图的强度。
var shades = []rune{' ', '░', '▒', '▓', '█'}

// Render 渲染完整视图，width 为柱状图最长柱的字符数。
func Render(res *model.ViewResult, width int) string {
	if width <= 0 {
		width = 40
	}
	var blocks []string
	blocks = append(blocks, titleStyle.Render(res.Title))
	if len(res.Stats) > 0 {
		blocks = append(blocks, boxStyle.Render(Stats(res.Stats)))
	}
	for _, c := range res.Charts {
		switch c.Kind {
		case model.ChartHeatmap:
			blocks = append(blocks, Heatmap(c))
		default:
			blocks = append(blocks, Bars(c, width))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// Stats 将概要统计渲染为两列对齐的文本。
func Stats(stats []model.Stat) string {
	labelWidth := 0
	for _, s := range stats {
		if w := lipgloss.Width(s.Label); w > labelWidth {
			labelWidth = w
		}
	}
	lines := make([]string, len(stats))
	for i, s := range stats {
		label := lipgloss.NewStyle().Width(labelWidth).Render(s.Label)
		lines[i] = labelStyle.Render(label) + "  " + s.Value
	}
	return strings.Join(lines, "\n")
}

// Bars 渲染水平柱状图，柱长按最大值等比缩放。
func Bars(c model.Chart, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Title))
	b.WriteByte('\n')
	if len(c.Categories) == 0 {
		b.WriteString(labelStyle.Render("(no data)"))
		return b.String()
	}

	labelWidth, maxValue := 0, 0
	for i, cat := range c.Categories {
		if w := lipgloss.Width(cat); w > labelWidth {
			labelWidth = w
		}
		if c.Values[i] > maxValue {
			maxValue = c.Values[i]
		}
	}
	for i, cat := range c.Categories {
		n := 0
		if maxValue > 0 {
			n = c.Values[i] * width / maxValue
		}
		if n == 0 && c.Values[i] > 0 {
			n = 1
		}
		label := lipgloss.NewStyle().Width(labelWidth).Render(cat)
		fmt.Fprintf(&b, "%s │%s %d\n", label, barStyle.Render(strings.Repeat("█", n)), c.Values[i])
	}
	return strings.TrimRight(b.String(), "\n")
}

// Heatmap 用阴影字符渲染矩阵，每个单元格两列宽。
func Heatmap(c model.Chart) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Title))
	b.WriteByte('\n')

	labelWidth, maxValue := 0, 0
	for i, row := range c.RowLabels {
		if w := lipgloss.Width(row); w > labelWidth {
			labelWidth = w
		}
		for _, v := range c.Matrix[i] {
			if v > maxValue {
				maxValue = v
			}
		}
	}

	b.WriteString(strings.Repeat(" ", labelWidth+1))
	for _, cat := range c.Categories {
		fmt.Fprintf(&b, "%-3s", cat)
	}
	b.WriteByte('\n')
	for i, row := range c.RowLabels {
		b.WriteString(lipgloss.NewStyle().Width(labelWidth).Render(row))
		b.WriteByte(' ')
		for _, v := range c.Matrix[i] {
			cell := string(shade(v, maxValue))
			b.WriteString(barStyle.Render(cell + cell + " "))
		}
		b.WriteByte('\n')
	}
	b.WriteString(labelStyle.Render(fmt.Sprintf("max %d", maxValue)))
	return b.String()
}

func shade(v, maxValue int) rune {
	if v <= 0 || maxValue <= 0 {
		return shades[0]
	}
	idx := 1 + (v*(len(shades)-2))/maxValue
	if idx >= len(shades) {
		idx = len(shades) - 1
	}
	return shades[idx]
}
