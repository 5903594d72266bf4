package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTimeJSON(t *testing.T) {
	in := LocalTime(time.Date(2023, 6, 15, 23, 59, 0, 0, time.Local))

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `"2023-06-15 23:59:00"`, string(data))

	var out LocalTime
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, time.Time(in).Equal(time.Time(out)))
}

func TestDatasetKind(t *testing.T) {
	assert.Equal(t, "dataset1", Dataset1.String())
	assert.Equal(t, ColUser, Dataset1.IdentityColumn())
	assert.Equal(t, []string{ColDatetime, ColNames}, Dataset2.RequiredColumns())
}

func TestNilDatasetRows(t *testing.T) {
	var d *Dataset
	assert.Equal(t, 0, d.Rows())
}

func TestDatasetKindJSON(t *testing.T) {
	b, err := json.Marshal(ViewInfo{Name: "dataset2-activity", Dataset: Dataset2})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"dataset":"dataset2"`)

	var info ViewInfo
	require.NoError(t, json.Unmarshal(b, &info))
	assert.Equal(t, Dataset2, info.Dataset)
}
