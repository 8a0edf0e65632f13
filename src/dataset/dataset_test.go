package dataset

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"
)

var header = []string{
	"dteday", "hr", "season", "yr", "mnth", "holiday", "weekday", "workingday",
	"weathersit", "temp", "atemp", "hum", "windspeed", "casual", "registered", "cnt",
}

type dayFixture struct {
	date       string
	season     int
	weather    int
	weekday    int
	casual     int
	registered int
	temp       float64
}

// rows 每天 24 个小时记录
func (d dayFixture) rows() [][]string {
	var out [][]string
	for hr := 0; hr < 24; hr++ {
		out = append(out, []string{
			d.date, fmt.Sprint(hr), fmt.Sprint(d.season), "0", "1", "0", fmt.Sprint(d.weekday), "1",
			fmt.Sprint(d.weather), fmt.Sprint(d.temp), "0.3", "0.5", "0.1",
			fmt.Sprint(d.casual), fmt.Sprint(d.registered), fmt.Sprint(d.casual + d.registered),
		})
	}
	return out
}

func twoDays() []dayFixture {
	return []dayFixture{
		{date: "2011-01-01", season: 1, weather: 1, weekday: 6, casual: 5, registered: 5, temp: 0.2},
		{date: "2011-06-01", season: 2, weather: 1, weekday: 3, casual: 5, registered: 15, temp: 0.7},
	}
}

func fixtureRecords(days []dayFixture) [][]string {
	records := [][]string{append([]string(nil), header...)}
	for _, d := range days {
		records = append(records, d.rows()...)
	}
	return records
}

func fixtureFrame(records [][]string) dataframe.DataFrame {
	return dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
}

func writeCSV(t *testing.T, records [][]string) string {
	t.Helper()
	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(strings.Join(r, ","))
		sb.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "hour.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
	return path
}

func mustLoad(t *testing.T, days []dayFixture) *Dataset {
	t.Helper()
	ds, err := Load(fixtureFrame(fixtureRecords(days)), nil)
	require.NoError(t, err)
	return ds
}

func TestLoadBuildsDayTable(t *testing.T) {
	ds := mustLoad(t, twoDays())

	require.Len(t, ds.Hourly, 48)
	require.Len(t, ds.Daily, 2)
	assert.Empty(t, ds.Warnings)

	spring, summer := ds.Daily[0], ds.Daily[1]
	assert.Equal(t, NewDate(2011, time.January, 1), spring.Date)
	assert.Equal(t, "Spring", spring.Season)
	assert.Equal(t, "Clear", spring.Weather)
	assert.Equal(t, "Saturday", spring.Weekday)
	assert.Equal(t, Weekend, spring.DayType)
	assert.Equal(t, 240, spring.Total)
	assert.Equal(t, 24, spring.Hours)
	assert.InDelta(t, 0.2, spring.Temp, 1e-9)

	assert.Equal(t, "Summer", summer.Season)
	assert.Equal(t, Weekday, summer.DayType)
	assert.Equal(t, 480, summer.Total)

	for _, d := range ds.Daily {
		assert.Equal(t, d.Casual+d.Registered, d.Total)
	}
	assert.Equal(t, spring.Date, ds.MinDate)
	assert.Equal(t, summer.Date, ds.MaxDate)
}

func TestLoadSortsDaysAscending(t *testing.T) {
	days := twoDays()
	days[0], days[1] = days[1], days[0]
	ds := mustLoad(t, days)

	assert.Equal(t, "2011-01-01", ds.Daily[0].Date.String())
	assert.Equal(t, "2011-06-01", ds.Daily[1].Date.String())
	// 小时表保持原始顺序
	assert.Equal(t, "2011-06-01", ds.Hourly[0].Date.String())
}

func TestLoadUnmappedCodesKeepRows(t *testing.T) {
	days := twoDays()
	days[0].season = 9
	days[0].weather = 7
	ds := mustLoad(t, days)

	assert.Equal(t, "", ds.Daily[0].Season)
	assert.Equal(t, "", ds.Daily[0].Weather)
	assert.Len(t, ds.Hourly, 48)
}

func TestLoadMissingColumns(t *testing.T) {
	records := fixtureRecords(twoDays())
	df := fixtureFrame(records).Drop([]string{"cnt", "hum"})

	_, err := Load(df, nil)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "missing required columns", le.Reason)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 2)
}

func TestLoadCustomColumnMap(t *testing.T) {
	records := fixtureRecords(twoDays())
	records[0][15] = "count"

	ds, err := Load(fixtureFrame(records), ColumnMap{ColTotal: "count"})
	require.NoError(t, err)
	assert.Equal(t, 240, ds.Daily[0].Total)

	// 改列名不能影响其他用例共用的表头
	assert.Equal(t, "cnt", header[15])
	_, err = Load(fixtureFrame(fixtureRecords(twoDays())), nil)
	assert.NoError(t, err)
}

func TestLoadRowErrors(t *testing.T) {
	tests := []struct {
		name   string
		col    int
		value  string
		column string
		reason string
	}{
		{name: "bad date", col: 0, value: "not-a-date", column: "dteday", reason: "unparseable date"},
		{name: "bad hour", col: 1, value: "24", column: "hr", reason: "hour 24 out of range 0-23"},
		{name: "bad number", col: 9, value: "warm", column: "temp", reason: `invalid number "warm"`},
		{name: "bad total", col: 15, value: "11", column: "cnt", reason: "total 11 != casual 5 + registered 5"},
		{name: "empty integer", col: 13, value: "", column: "casual", reason: `invalid integer ""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := fixtureRecords(twoDays())
			records[3][tt.col] = tt.value

			_, err := Load(fixtureFrame(records), nil)
			var le *LoadError
			require.True(t, errors.As(err, &le), "got %v", err)
			assert.Equal(t, 3, le.Row)
			assert.Equal(t, tt.column, le.Column)
			assert.Equal(t, tt.reason, le.Reason)
		})
	}
}

func TestLoadAcceptsFloatIntegers(t *testing.T) {
	records := fixtureRecords(twoDays())
	records[1][1] = "0.0"

	ds, err := Load(fixtureFrame(records), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Hourly[0].Hour)
}

func TestLoadInconsistentDayWarns(t *testing.T) {
	records := fixtureRecords(twoDays())
	records[5][5] = "1" // 同一天内节假日标记不同

	ds, err := Load(fixtureFrame(records), nil)
	require.NoError(t, err)
	require.Len(t, ds.Warnings, 1)
	assert.Contains(t, ds.Warnings[0], "2011-01-01")
	// 取第一条
	assert.Equal(t, 0, ds.Daily[0].Holiday)
	// 小时表保留原值
	assert.Equal(t, 1, ds.Hourly[4].Holiday)
}

func TestLoadWeatherChangesWithinDay(t *testing.T) {
	records := fixtureRecords(twoDays())
	// 两天都从 13 点开始转为小雨
	for i := 1; i < len(records); i++ {
		if (i-1)%24 >= 13 {
			records[i][8] = "3"
		}
	}

	ds, err := Load(fixtureFrame(records), nil)
	require.NoError(t, err)
	assert.Empty(t, ds.Warnings)
	assert.Equal(t, "Clear", ds.Daily[0].Weather)
	assert.Equal(t, "Light Rain/Snow", ds.Hourly[13].Weather)
}

func TestLoadEmpty(t *testing.T) {
	cols := make([]series.Series, len(header))
	for i, name := range header {
		cols[i] = series.New([]string{}, series.String, name)
	}
	_, err := Load(dataframe.New(cols...), nil)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "dataset has no rows", le.Reason)
}

func TestLoadFileCSV(t *testing.T) {
	path := writeCSV(t, fixtureRecords(twoDays()))

	ds, err := LoadFile(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, path, ds.Source)
	assert.Len(t, ds.Daily, 2)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "file not found", le.Reason)

	path := filepath.Join(t.TempDir(), "hour.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	_, err = LoadFile(path, LoadOptions{})
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Reason, "unsupported file type")

	records := fixtureRecords(twoDays())
	records[2][0] = "bad"
	csvPath := writeCSV(t, records)
	_, err = LoadFile(csvPath, LoadOptions{})
	require.True(t, errors.As(err, &le))
	assert.Equal(t, csvPath, le.Path)
	assert.Equal(t, 2, le.Row)
}

func TestLoadFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	records := fixtureRecords(twoDays()[:1])
	for r, row := range records {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			var value interface{} = v
			if r > 0 && c == 0 {
				value = 40544 // 2011-01-01
			}
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}
	path := filepath.Join(t.TempDir(), "hour.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := LoadFile(path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, ds.Daily, 1)
	assert.Equal(t, "2011-01-01", ds.Daily[0].Date.String())
	assert.Equal(t, 240, ds.Daily[0].Total)
}

func TestLoadFileSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bike.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE hour (dteday TEXT, hr INTEGER, season INTEGER, yr INTEGER, mnth INTEGER,
		holiday INTEGER, weekday INTEGER, workingday INTEGER, weathersit INTEGER, temp REAL, atemp REAL,
		hum REAL, windspeed REAL, casual INTEGER, registered INTEGER, cnt INTEGER)`)
	require.NoError(t, err)
	for _, row := range fixtureRecords(twoDays())[1:] {
		args := make([]interface{}, len(row))
		for i, v := range row {
			args[i] = v
		}
		_, err = db.Exec(`INSERT INTO hour VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`, args...)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	ds, err := LoadFile(path, LoadOptions{Table: "hour"})
	require.NoError(t, err)
	assert.Len(t, ds.Hourly, 48)
	assert.Equal(t, 480, ds.Daily[1].Total)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2011-01-01", "2011/01/01", "01/01/2011", "2011-01-01 13:00:00"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, NewDate(2011, time.January, 1), d, s)
	}
	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2012, time.March, 4)
	data, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2012-03-04"`, string(data))

	var back Date
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, d, back)
}
