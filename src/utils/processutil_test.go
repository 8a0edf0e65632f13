package utils

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"Spring", "Fall"}, "Fall"))
	assert.False(t, Contains([]int{1, 2}, 3))
	assert.False(t, Contains(nil, "x"))
}

func TestExcelSerialToTime(t *testing.T) {
	assert.Equal(t, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), ExcelSerialToTime(40544))
	assert.Equal(t, time.Date(2011, 1, 1, 12, 0, 0, 0, time.UTC), ExcelSerialToTime(40544.5))
}

func TestNormalizeExcelDate(t *testing.T) {
	assert.Equal(t, "2011-01-01", NormalizeExcelDate("40544"))
	assert.Equal(t, "2011-01-01 06:00:00", NormalizeExcelDate("40544.25"))
	assert.Equal(t, "2011-01-01", NormalizeExcelDate("2011-01-01"))
	assert.Equal(t, "", NormalizeExcelDate(""))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "a_b", SheetName("a/b"))
	assert.Equal(t, "Sheet1", SheetName("  "))
	assert.Len(t, []rune(SheetName(strings.Repeat("x", 40))), 31)
}

func TestSaveToExcel(t *testing.T) {
	seasons := dataframe.New(
		series.New([]string{"Spring", "Fall"}, series.String, "season"),
		series.New([]int{10, 20}, series.Int, "total"),
	)
	metrics := dataframe.New(
		series.New([]float64{1.5}, series.Float, "mean"),
	)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, SaveToExcel([]NamedTable{
		{Name: "seasonal", Data: seasons},
		{Name: "metrics", Data: metrics},
	}, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"seasonal", "metrics"}, f.GetSheetList())

	rows, err := f.GetRows("seasonal")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"season", "total"}, {"Spring", "10"}, {"Fall", "20"}}, rows)

	rows, err = f.GetRows("metrics")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"mean"}, {"1.5"}}, rows)
}

func TestWriteExcelToBuffer(t *testing.T) {
	df := dataframe.New(series.New([]string{"x"}, series.String, "col"))
	buf, err := WriteExcelToBuffer([]NamedTable{{Name: "t", Data: df}})
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}
