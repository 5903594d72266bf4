package export

import (
	"bytes"
	"testing"

	"chat-analysis-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleView() *model.ViewResult {
	return &model.ViewResult{
		View:        "dataset2-activity",
		Title:       "Activity Trends (Dataset 2)",
		Fingerprint: "abc",
		Stats:       []model.Stat{{Label: "Total Rows", Value: "4"}},
		Charts: []model.Chart{
			{Title: "Messages by Hour of Day", Kind: model.ChartBar, XLabel: "Hour", YLabel: "Message Count",
				Categories: []string{"9", "21"}, Values: []int{3, 1}},
			{Title: "Activity Heatmap (Day vs Hour)", Kind: model.ChartHeatmap, XLabel: "Hour", YLabel: "Day",
				Categories: []string{"9", "21"}, RowLabels: []string{"Monday", "Tuesday"}, Matrix: [][]int{{2, 0}, {0, 1}}},
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleView()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "1 Messages by Hour of Day", "2 Activity Heatmap (Day vs Hour"}, f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"View", "dataset2-activity"}, summary[0])
	assert.Equal(t, []string{"Total Rows", "4"}, summary[len(summary)-1])

	bars, err := f.GetRows("1 Messages by Hour of Day")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Hour", "Message Count"}, {"9", "3"}, {"21", "1"}}, bars)

	heat, err := f.GetRows("2 Activity Heatmap (Day vs Hour")
	require.NoError(t, err)
	assert.Equal(t, []string{"Day \\ Hour", "9", "21"}, heat[0])
	assert.Equal(t, []string{"Monday", "2", "0"}, heat[1])
}

func TestSheetNameSanitises(t *testing.T) {
	assert.Equal(t, "3 a-b-c", sheetName(2, "a/b:c"))
	assert.LessOrEqual(t, len([]rune(sheetName(0, "a very long chart title that overflows"))), 31)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "dataset2-activity.xlsx", FileName(sampleView()))
}
