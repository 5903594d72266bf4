package analysis

import (
	"fmt"
	"strconv"

	"chat-analysis-go/internal/model"
	"chat-analysis-go/pkg/textanalysis"
)

func (a *Analyzer) overview1(ds *model.Datasets) ([]model.Stat, []model.Chart, error) {
	d := ds.Dataset1
	stats := []model.Stat{
		{Label: "Total Messages", Value: strconv.Itoa(d.Rows())},
		{Label: "Unique Users", Value: strconv.Itoa(uniqueCount(d.Column(model.ColUser)))},
		{Label: "Time Range", Value: yearRange(d)},
	}
	return stats, nil, nil
}

// yearRange 返回 "最早年份 - 最晚年份"，数据集为空时返回 "-"。
func yearRange(d *model.Dataset) string {
	if len(d.Times) == 0 {
		return "-"
	}
	lo, hi := d.Times[0].Year(), d.Times[0].Year()
	for _, t := range d.Times[1:] {
		if y := t.Year(); y < lo {
			lo = y
		} else if y > hi {
			hi = y
		}
	}
	return fmt.Sprintf("%d - %d", lo, hi)
}

func (a *Analyzer) topUsers1(ds *model.Datasets) ([]model.Stat, []model.Chart, error) {
	counts := Top(ValueCounts(ds.Dataset1.Column(model.ColUser)), a.opts.TopN)
	return nil, []model.Chart{barChart("Most Active Users", "User", "Message Count", counts)}, nil
}

func (a *Analyzer) activity1(ds *model.Datasets) ([]model.Stat, []model.Chart, error) {
	hours, err := intColumn(ds.Dataset1, model.ColHour)
	if err != nil {
		return nil, nil, err
	}
	return nil, []model.Chart{barChart("Messages by Hour of Day", "Hour", "Message Count", hourCounts(hours))}, nil
}

func (a *Analyzer) wordCloud(ds *model.Datasets) ([]model.Stat, []model.Chart, error) {
	messages, err := messageColumn(ds.Dataset1)
	if err != nil {
		return nil, nil, err
	}
	freq := make(map[string]int)
	for _, m := range messages {
		if isMissing(m) {
			continue
		}
		for _, w := range a.opts.Tokenizer.Words(m) {
			freq[w]++
		}
	}
	counts := Top(sortCounts(freq), a.opts.WordCloudMaxWords)
	chart := barChart("Word Cloud", "", "", counts)
	chart.Kind = model.ChartWordCloud
	return nil, []model.Chart{chart}, nil
}

func (a *Analyzer) emoji(ds *model.Datasets) ([]model.Stat, []model.Chart, error) {
	messages, err := messageColumn(ds.Dataset1)
	if err != nil {
		return nil, nil, err
	}
	freq := make(map[string]int)
	for _, m := range messages {
		if isMissing(m) {
			continue
		}
		for _, e := range a.opts.Emoji.Extract(m) {
			freq[e]++
		}
	}
	counts := Top(sortCounts(freq), a.opts.TopN)
	return nil, []model.Chart{barChart("Top Emojis", "Emoji", "Count", counts)}, nil
}

func (a *Analyzer) sentiment(ds *model.Datasets) ([]model.Stat, []model.Chart, error) {
	messages, err := messageColumn(ds.Dataset1)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, len(messages))
	for i, m := range messages {
		polarity := 0.0
		if !isMissing(m) {
			polarity = a.opts.Scorer.Polarity(m)
		}
		labels[i] = string(textanalysis.Classify(polarity))
	}
	order := make([]string, len(textanalysis.Sentiments))
	for i, s := range textanalysis.Sentiments {
		order[i] = string(s)
	}
	return nil, []model.Chart{barChart("Sentiment Distribution", "Sentiment", "Count", orderedCounts(labels, order))}, nil
}

func messageColumn(d *model.Dataset) ([]string, error) {
	if err := requireColumn(d, model.ColMessage); err != nil {
		return nil, err
	}
	return d.Column(model.ColMessage), nil
}

func intColumn(d *model.Dataset, name string) ([]int, error) {
	if err := requireColumn(d, name); err != nil {
		return nil, err
	}
	values, err := d.Frame.Col(name).Int()
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	return values, nil
}
