package analysis

import (
	"context"
	"testing"
	"time"

	"chat-analysis-go/internal/model"
	"chat-analysis-go/internal/preprocess"
	"chat-analysis-go/pkg/textanalysis"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDataset(t *testing.T, kind model.DatasetKind, records [][]string) *model.Dataset {
	t.Helper()
	frame := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	require.NoError(t, frame.Err)
	res, err := preprocess.Apply(kind, frame, nil)
	require.NoError(t, err)
	return &model.Dataset{Kind: kind, Frame: res.Frame, Times: res.Times}
}

func fixture(t *testing.T) *model.Datasets {
	t.Helper()
	d1 := newDataset(t, model.Dataset1, [][]string{
		{"datetime", "user", "message"},
		{"2021-01-01 10:15:00", "alice", "Good morning 😂"},
		{"2023-06-15 23:59:00", "bob", "this is terrible 😂😂"},
		{"2022-01-01 10:16:00", "alice", "pizza pizza tonight"},
		{"2022-03-04 08:00:00", "carol", "see you at the station"},
		{"2022-03-04 08:05:00", "bob", ""},
	})
	d2 := newDataset(t, model.Dataset2, [][]string{
		{"datetime", "names", "text"},
		{"2023-01-02 09:00:00", "dan", "hi"},   // Monday
		{"2023-01-02 09:00:00", "dan", "hi"},   // duplicate
		{"2023-01-03 21:30:00", "erin", "yo"},  // Tuesday
		{"2023-03-05 09:10:00", "erin", "hey"}, // Sunday
	})
	return &model.Datasets{Dataset1: d1, Dataset2: d2, Fingerprint: "fp"}
}

func newTestAnalyzer() *Analyzer {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewAnalyzer(Options{Now: func() time.Time { return fixed }})
}

func statValue(t *testing.T, res *model.ViewResult, label string) string {
	t.Helper()
	for _, s := range res.Stats {
		if s.Label == label {
			return s.Value
		}
	}
	t.Fatalf("stat %q not found", label)
	return ""
}

func TestViewsCatalogue(t *testing.T) {
	views := Views()
	require.Len(t, views, 9)
	assert.Equal(t, "dataset1-overview", views[0].Name)
	assert.Equal(t, model.Dataset2, views[8].Dataset)

	info, ok := Lookup("dataset1-emoji")
	assert.True(t, ok)
	assert.Equal(t, "Emoji Analysis", info.Title)
	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestComputeUnknownView(t *testing.T) {
	_, err := newTestAnalyzer().Compute(context.Background(), "nope", fixture(t))
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestComputeWithoutDatasets(t *testing.T) {
	_, err := newTestAnalyzer().Compute(context.Background(), "dataset1-overview", nil)
	assert.ErrorIs(t, err, ErrNoDatasets)
}

func TestComputeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestAnalyzer().Compute(ctx, "dataset1-overview", fixture(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOverview1(t *testing.T) {
	res, err := newTestAnalyzer().Compute(context.Background(), "dataset1-overview", fixture(t))
	require.NoError(t, err)

	assert.Equal(t, "WhatsApp Chat Analysis Overview", res.Title)
	assert.Equal(t, "fp", res.Fingerprint)
	assert.Equal(t, "5", statValue(t, res, "Total Messages"))
	assert.Equal(t, "3", statValue(t, res, "Unique Users"))
	assert.Equal(t, "2021 - 2023", statValue(t, res, "Time Range"))
	assert.Equal(t, "2024-01-01 00:00:00", res.GeneratedAt.String())
}

func TestTopUsersDeterministicOnTies(t *testing.T) {
	res, err := newTestAnalyzer().Compute(context.Background(), "dataset1-top-users", fixture(t))
	require.NoError(t, err)

	chart := res.Charts[0]
	assert.Equal(t, []string{"alice", "bob", "carol"}, chart.Categories)
	assert.Equal(t, []int{2, 2, 1}, chart.Values)

	res, err = newTestAnalyzer().WithTopN(1).Compute(context.Background(), "dataset1-top-users", fixture(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, res.Charts[0].Categories)
}

func TestActivity1HoursPresentAscending(t *testing.T) {
	res, err := newTestAnalyzer().Compute(context.Background(), "dataset1-activity", fixture(t))
	require.NoError(t, err)

	chart := res.Charts[0]
	assert.Equal(t, []string{"8", "10", "23"}, chart.Categories)
	assert.Equal(t, []int{2, 2, 1}, chart.Values)
}

func TestWordCloud(t *testing.T) {
	res, err := newTestAnalyzer().Compute(context.Background(), "dataset1-wordcloud", fixture(t))
	require.NoError(t, err)

	chart := res.Charts[0]
	assert.Equal(t, model.ChartWordCloud, chart.Kind)
	assert.Equal(t, "pizza", chart.Categories[0])
	assert.Equal(t, 2, chart.Values[0])
	assert.NotContains(t, chart.Categories, "the")

	small := NewAnalyzer(Options{WordCloudMaxWords: 2})
	res, err = small.Compute(context.Background(), "dataset1-wordcloud", fixture(t))
	require.NoError(t, err)
	assert.Len(t, res.Charts[0].Categories, 2)
}

func TestEmojiCounts(t *testing.T) {
	res, err := newTestAnalyzer().Compute(context.Background(), "dataset1-emoji", fixture(t))
	require.NoError(t, err)

	chart := res.Charts[0]
	assert.Equal(t, []string{"😂"}, chart.Categories)
	assert.Equal(t, []int{3}, chart.Values)
}

func TestSentimentBuckets(t *testing.T) {
	res, err := newTestAnalyzer().Compute(context.Background(), "dataset1-sentiment", fixture(t))
	require.NoError(t, err)

	chart := res.Charts[0]
	assert.Equal(t, []string{"Positive", "Negative", "Neutral"}, chart.Categories)
	// "Good morning" 正面，"terrible" 负面，其余三条（含空消息）为中性
	assert.Equal(t, []int{1, 1, 3}, chart.Values)
}

type constScorer float64

func (c constScorer) Polarity(string) float64 { return float64(c) }

func TestSentimentUsesInjectedScorer(t *testing.T) {
	a := NewAnalyzer(Options{Scorer: constScorer(-0.2)})
	res, err := a.Compute(context.Background(), "dataset1-sentiment", fixture(t))
	require.NoError(t, err)
	// 空消息不参与打分，始终为中性
	assert.Equal(t, []int{0, 4, 1}, res.Charts[0].Values)
}

func TestTextViewsRequireMessageColumn(t *testing.T) {
	ds := fixture(t)
	ds.Dataset1 = newDataset(t, model.Dataset1, [][]string{
		{"datetime", "user"},
		{"2023-01-01 10:15:00", "alice"},
	})
	for _, name := range []string{"dataset1-wordcloud", "dataset1-emoji", "dataset1-sentiment"} {
		_, err := newTestAnalyzer().Compute(context.Background(), name, ds)
		assert.ErrorIs(t, err, ErrMissingColumn, name)
	}
	_, err := newTestAnalyzer().Compute(context.Background(), "dataset1-overview", ds)
	assert.NoError(t, err)
}

func TestOverview2Duplicates(t *testing.T) {
	res, err := newTestAnalyzer().Compute(context.Background(), "dataset2-overview", fixture(t))
	require.NoError(t, err)

	assert.Equal(t, "4", statValue(t, res, "Total Rows"))
	assert.Equal(t, "2", statValue(t, res, "Unique Users"))
	assert.Equal(t, "1 (25.00%)", statValue(t, res, "Duplicated Rows"))
}

func TestTopUsers2(t *testing.T) {
	res, err := newTestAnalyzer().Compute(context.Background(), "dataset2-top-users", fixture(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"dan", "erin"}, res.Charts[0].Categories)
	assert.Equal(t, []int{2, 2}, res.Charts[0].Values)
}

func TestActivity2(t *testing.T) {
	res, err := newTestAnalyzer().Compute(context.Background(), "dataset2-activity", fixture(t))
	require.NoError(t, err)
	require.Len(t, res.Charts, 4)

	hourly, daily, monthly, heat := res.Charts[0], res.Charts[1], res.Charts[2], res.Charts[3]

	assert.Equal(t, []string{"9", "21"}, hourly.Categories)
	assert.Equal(t, []int{3, 1}, hourly.Values)

	assert.Equal(t, Weekdays, daily.Categories)
	assert.Equal(t, []int{2, 1, 0, 0, 0, 0, 1}, daily.Values)

	require.Len(t, monthly.Values, 12)
	assert.Equal(t, "January", monthly.Categories[0])
	assert.Equal(t, 3, monthly.Values[0])
	assert.Equal(t, 1, monthly.Values[2])

	assert.Equal(t, model.ChartHeatmap, heat.Kind)
	assert.Equal(t, []string{"9", "21"}, heat.Categories)
	require.Len(t, heat.Matrix, 7)
	assert.Equal(t, []int{2, 0}, heat.Matrix[0])
	assert.Equal(t, []int{0, 1}, heat.Matrix[1])
	assert.Equal(t, []int{1, 0}, heat.Matrix[6])
}

func TestValueCountsSkipsMissing(t *testing.T) {
	got := ValueCounts([]string{"b", "a", "", "NaN", "b", "a", "c"})
	assert.Equal(t, []Count{{"a", 2}, {"b", 2}, {"c", 1}}, got)
	assert.Len(t, Top(got, 5), 3)
}

func TestSignatureTracksOptions(t *testing.T) {
	base := NewAnalyzer(Options{})
	assert.Equal(t, base.Signature(), NewAnalyzer(Options{TopN: 10, WordCloudMaxWords: 200}).Signature())
	assert.Len(t, base.Signature(), 16)

	assert.NotEqual(t, base.Signature(), base.WithTopN(5).Signature())
	assert.NotEqual(t, base.Signature(), NewAnalyzer(Options{WordCloudMaxWords: 50}).Signature())
	assert.NotEqual(t, base.Signature(), NewAnalyzer(Options{Tokenizer: textanalysis.NewTokenizer([]string{"pizza"})}).Signature())
}
