// Package analysis 基于已加载的数据集计算各个报表视图。
// 视图计算是纯函数：只读取数据集快照，不修改它。
package analysis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"chat-analysis-go/internal/model"
	"chat-analysis-go/pkg/textanalysis"

	"golang.org/x/crypto/blake2b"
)

var (
	// ErrUnknownView 表示请求的视图名不在目录中。
	ErrUnknownView = errors.New("unknown view")
	// ErrMissingColumn 表示视图依赖的列在数据集中不存在。
	ErrMissingColumn = errors.New("missing column")
	// ErrNoDatasets 表示没有可用的数据集。
	ErrNoDatasets = errors.New("datasets not loaded")
)

// Options 控制视图计算的参数与可替换的文本分析实现。
type Options struct {
	TopN              int
	WordCloudMaxWords int
	Emoji             textanalysis.EmojiExtractor
	Scorer            textanalysis.PolarityScorer
	Tokenizer         *textanalysis.Tokenizer
	Now               func() time.Time
}

const (
	defaultTopN     = 10
	defaultMaxWords = 200
)

// Analyzer 根据视图名分发计算。
type Analyzer struct {
	opts Options
}

// NewAnalyzer 创建 Analyzer，未设置的选项使用默认实现。
func NewAnalyzer(opts Options) *Analyzer {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	if opts.WordCloudMaxWords <= 0 {
		opts.WordCloudMaxWords = defaultMaxWords
	}
	if opts.Emoji == nil {
		opts.Emoji = textanalysis.NewEmojiExtractor()
	}
	if opts.Scorer == nil {
		opts.Scorer = textanalysis.NewLexiconScorer(nil)
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = textanalysis.NewTokenizer(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{opts: opts}
}

// WithTopN 返回一个只修改 TopN 的副本。
func (a *Analyzer) WithTopN(n int) *Analyzer {
	opts := a.opts
	if n > 0 {
		opts.TopN = n
	}
	return &Analyzer{opts: opts}
}

// Signature 是影响视图结果的参数摘要，与数据指纹一起组成缓存键。
func (a *Analyzer) Signature() string {
	sum := blake2b.Sum256([]byte(fmt.Sprintf("top=%d;words=%d;stop=%s",
		a.opts.TopN, a.opts.WordCloudMaxWords, strings.Join(a.opts.Tokenizer.Stopwords(), ","))))
	return hex.EncodeToString(sum[:8])
}

type viewFunc func(a *Analyzer, ds *model.Datasets) ([]model.Stat, []model.Chart, error)

type viewDef struct {
	info    model.ViewInfo
	compute viewFunc
}

var catalogue = []viewDef{
	{model.ViewInfo{Name: "dataset1-overview", Title: "WhatsApp Chat Analysis Overview", Dataset: model.Dataset1}, (*Analyzer).overview1},
	{model.ViewInfo{Name: "dataset1-top-users", Title: "Top 10 Most Active Users", Dataset: model.Dataset1}, (*Analyzer).topUsers1},
	{model.ViewInfo{Name: "dataset1-activity", Title: "Activity Trends", Dataset: model.Dataset1}, (*Analyzer).activity1},
	{model.ViewInfo{Name: "dataset1-wordcloud", Title: "Word Cloud", Dataset: model.Dataset1}, (*Analyzer).wordCloud},
	{model.ViewInfo{Name: "dataset1-emoji", Title: "Emoji Analysis", Dataset: model.Dataset1}, (*Analyzer).emoji},
	{model.ViewInfo{Name: "dataset1-sentiment", Title: "Sentiment Analysis", Dataset: model.Dataset1}, (*Analyzer).sentiment},
	{model.ViewInfo{Name: "dataset2-overview", Title: "Dataset 2 Overview", Dataset: model.Dataset2}, (*Analyzer).overview2},
	{model.ViewInfo{Name: "dataset2-top-users", Title: "Top 10 Most Active Users (Dataset 2)", Dataset: model.Dataset2}, (*Analyzer).topUsers2},
	{model.ViewInfo{Name: "dataset2-activity", Title: "Activity Trends (Dataset 2)", Dataset: model.Dataset2}, (*Analyzer).activity2},
}

// Views 返回视图目录，顺序与菜单一致。
func Views() []model.ViewInfo {
	out := make([]model.ViewInfo, len(catalogue))
	for i, v := range catalogue {
		out[i] = v.info
	}
	return out
}

// Lookup 按名称查找视图。
func Lookup(name string) (model.ViewInfo, bool) {
	for _, v := range catalogue {
		if v.info.Name == name {
			return v.info, true
		}
	}
	return model.ViewInfo{}, false
}

// Compute 计算指定视图。
func (a *Analyzer) Compute(ctx context.Context, name string, ds *model.Datasets) (*model.ViewResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var def *viewDef
	for i := range catalogue {
		if catalogue[i].info.Name == name {
			def = &catalogue[i]
			break
		}
	}
	if def == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	if ds == nil || ds.Dataset1 == nil || ds.Dataset2 == nil {
		return nil, ErrNoDatasets
	}

	stats, charts, err := def.compute(a, ds)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", name, err)
	}
	return &model.ViewResult{
		View:        def.info.Name,
		Title:       def.info.Title,
		Stats:       stats,
		Charts:      charts,
		Fingerprint: ds.Fingerprint,
		GeneratedAt: model.LocalTime(a.opts.Now()),
	}, nil
}

func requireColumn(d *model.Dataset, name string) error {
	if !d.HasColumn(name) {
		return fmt.Errorf("%w: %s has no %q column", ErrMissingColumn, d.Kind, name)
	}
	return nil
}
