package model

// ChartKind 描述图表数据的形状，具体渲染由展示层负责。
type ChartKind string

const (
	ChartBar       ChartKind = "bar"
	ChartHeatmap   ChartKind = "heatmap"
	ChartWordCloud ChartKind = "wordcloud"
)

// ViewInfo 是视图目录中的一项。
type ViewInfo struct {
	Name    string      `json:"name"`
	Title   string      `json:"title"`
	Dataset DatasetKind `json:"dataset"`
}

// Stat 是一条概要统计。
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Chart 承载一张图表的数据。
// 柱状图与词云使用 Categories/Values，热力图使用 RowLabels/Categories/Matrix。
type Chart struct {
	Title      string    `json:"title"`
	Kind       ChartKind `json:"kind"`
	XLabel     string    `json:"xLabel,omitempty"`
	YLabel     string    `json:"yLabel,omitempty"`
	Categories []string  `json:"categories"`
	Values     []int     `json:"values,omitempty"`
	RowLabels  []string  `json:"rowLabels,omitempty"`
	Matrix     [][]int   `json:"matrix,omitempty"`
}

// ViewResult 是某个视图的完整计算结果。
type ViewResult struct {
	View        string    `json:"view"`
	Title       string    `json:"title"`
	Stats       []Stat    `json:"stats,omitempty"`
	Charts      []Chart   `json:"charts,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	GeneratedAt LocalTime `json:"generatedAt"`
}
