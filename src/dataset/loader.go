package dataset

import (
	"BikeSharingInsight/src/datasource/database"
	"BikeSharingInsight/src/datasource/file"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/hashicorp/go-multierror"
)

// 逻辑列名
const (
	ColDate       = "date"
	ColHour       = "hour"
	ColSeason     = "season"
	ColYear       = "year"
	ColMonth      = "month"
	ColHoliday    = "holiday"
	ColWeekday    = "weekday"
	ColWorkingDay = "workingday"
	ColWeather    = "weather"
	ColTemp       = "temp"
	ColATemp      = "atemp"
	ColHumidity   = "humidity"
	ColWindSpeed  = "windspeed"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColTotal      = "total"
)

// RequiredColumns 加载所需的全部逻辑列，顺序即报错顺序
var RequiredColumns = []string{
	ColDate, ColHour, ColSeason, ColYear, ColMonth, ColHoliday, ColWeekday, ColWorkingDay,
	ColWeather, ColTemp, ColATemp, ColHumidity, ColWindSpeed, ColCasual, ColRegistered, ColTotal,
}

// ColumnMap 逻辑列名 -> 源数据列名，未配置的逻辑列按 UCI 默认列名查找
type ColumnMap map[string]string

var defaultColumns = ColumnMap{
	ColDate:       "dteday",
	ColHour:       "hr",
	ColSeason:     "season",
	ColYear:       "yr",
	ColMonth:      "mnth",
	ColHoliday:    "holiday",
	ColWeekday:    "weekday",
	ColWorkingDay: "workingday",
	ColWeather:    "weathersit",
	ColTemp:       "temp",
	ColATemp:      "atemp",
	ColHumidity:   "hum",
	ColWindSpeed:  "windspeed",
	ColCasual:     "casual",
	ColRegistered: "registered",
	ColTotal:      "cnt",
}

func DefaultColumns() ColumnMap {
	m := make(ColumnMap, len(defaultColumns))
	for k, v := range defaultColumns {
		m[k] = v
	}
	return m
}

// Source 返回逻辑列对应的源列名
func (m ColumnMap) Source(logical string) string {
	if name, ok := m[logical]; ok && name != "" {
		return name
	}
	return defaultColumns[logical]
}

// Dataset 加载完成后只读，可在多个会话间共享
type Dataset struct {
	Source   string
	Hourly   []HourlyRecord
	Daily    []DayRecord
	MinDate  Date
	MaxDate  Date
	Warnings []string
}

// LoadOptions 文件加载参数
type LoadOptions struct {
	Columns   ColumnMap
	SheetName string // xlsx
	Table     string // sqlite
}

// LoadFile 按扩展名选择读取方式并加载数据集
func LoadFile(path string, opts LoadOptions) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Reason: "file not found", Err: err}
	}

	var (
		df  dataframe.DataFrame
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		df, err = file.ReadCSVToDataFrame(path)
	case ".xlsx":
		df, err = file.ReadXLSXToDataFrame(path, opts.SheetName, opts.Columns.Source(ColDate))
	case ".db", ".sqlite", ".sqlite3":
		table := opts.Table
		if table == "" {
			table = "hour"
		}
		df, err = database.ReadSQLiteToDataFrame(path, table)
	default:
		return nil, &LoadError{Path: path, Reason: fmt.Sprintf("unsupported file type %q", filepath.Ext(path))}
	}
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "malformed file", Err: err}
	}

	ds, err := Load(df, opts.Columns)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	ds.Source = path
	return ds, nil
}

// Load 从 DataFrame 构建小时表和日表，任何一行不合法都返回 LoadError
func Load(df dataframe.DataFrame, columns ColumnMap) (*Dataset, error) {
	if df.Err != nil {
		return nil, &LoadError{Reason: "malformed table", Err: df.Err}
	}

	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}

	var missing error
	for _, logical := range RequiredColumns {
		if src := columns.Source(logical); !present[src] {
			missing = multierror.Append(missing, fmt.Errorf("column %q (%s) not found", src, logical))
		}
	}
	if missing != nil {
		return nil, &LoadError{Reason: "missing required columns", Err: missing}
	}

	if df.Nrow() == 0 {
		return nil, &LoadError{Reason: "dataset has no rows"}
	}

	cols := make(map[string][]string, len(RequiredColumns))
	for _, logical := range RequiredColumns {
		cols[logical] = df.Col(columns.Source(logical)).Records()
	}

	hourly := make([]HourlyRecord, df.Nrow())
	for i := range hourly {
		rec, err := parseRow(cols, i, columns)
		if err != nil {
			return nil, err
		}
		hourly[i] = rec
	}

	daily, warnings := buildDaily(hourly)
	return &Dataset{
		Hourly:   hourly,
		Daily:    daily,
		MinDate:  daily[0].Date,
		MaxDate:  daily[len(daily)-1].Date,
		Warnings: warnings,
	}, nil
}

// rowParser 在第一个错误后不再解析，错误带上行号和列名
type rowParser struct {
	cols    map[string][]string
	columns ColumnMap
	row     int
	err     *LoadError
}

func (p *rowParser) fail(logical, reason string, err error) {
	if p.err == nil {
		p.err = &LoadError{Row: p.row + 1, Column: p.columns.Source(logical), Reason: reason, Err: err}
	}
}

func (p *rowParser) integer(logical string) int {
	if p.err != nil {
		return 0
	}
	raw := strings.TrimSpace(p.cols[logical][p.row])
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	// xlsx/sqlite 可能把整数写成 1.0
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		p.fail(logical, fmt.Sprintf("invalid integer %q", raw), err)
		return 0
	}
	return int(f)
}

func (p *rowParser) number(logical string) float64 {
	if p.err != nil {
		return 0
	}
	raw := strings.TrimSpace(p.cols[logical][p.row])
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.fail(logical, fmt.Sprintf("invalid number %q", raw), err)
		return 0
	}
	return f
}

func (p *rowParser) date(logical string) Date {
	if p.err != nil {
		return Date{}
	}
	d, err := ParseDate(p.cols[logical][p.row])
	if err != nil {
		p.fail(logical, "unparseable date", err)
	}
	return d
}

func parseRow(cols map[string][]string, row int, columns ColumnMap) (HourlyRecord, error) {
	p := &rowParser{cols: cols, columns: columns, row: row}
	rec := HourlyRecord{
		Date:        p.date(ColDate),
		Hour:        p.integer(ColHour),
		SeasonCode:  p.integer(ColSeason),
		Year:        p.integer(ColYear),
		Month:       p.integer(ColMonth),
		Holiday:     p.integer(ColHoliday),
		WeekdayCode: p.integer(ColWeekday),
		WorkingDay:  p.integer(ColWorkingDay),
		WeatherCode: p.integer(ColWeather),
		Temp:        p.number(ColTemp),
		ATemp:       p.number(ColATemp),
		Humidity:    p.number(ColHumidity),
		WindSpeed:   p.number(ColWindSpeed),
		Casual:      p.integer(ColCasual),
		Registered:  p.integer(ColRegistered),
		Total:       p.integer(ColTotal),
	}
	if p.err != nil {
		return HourlyRecord{}, p.err
	}

	if rec.Hour < 0 || rec.Hour > 23 {
		p.fail(ColHour, fmt.Sprintf("hour %d out of range 0-23", rec.Hour), nil)
	} else if rec.Total != rec.Casual+rec.Registered {
		p.fail(ColTotal, fmt.Sprintf("total %d != casual %d + registered %d", rec.Total, rec.Casual, rec.Registered), nil)
	}
	if p.err != nil {
		return HourlyRecord{}, p.err
	}

	rec.Season = SeasonLabel(rec.SeasonCode)
	rec.Weather = WeatherLabel(rec.WeatherCode)
	rec.Weekday = WeekdayLabel(rec.WeekdayCode)
	rec.DayType = DayType(rec.WeekdayCode)
	return rec, nil
}

// buildDaily 按日期聚合：分类字段取第一条，连续值取均值，计数求和。
// 天气按小时记录，一天内变化是正常的，不计入一致性检查
func buildDaily(hourly []HourlyRecord) ([]DayRecord, []string) {
	var (
		days         []DayRecord
		index        = make(map[Date]int)
		inconsistent = make(map[Date]bool)
		warnings     []string
	)

	for _, h := range hourly {
		i, ok := index[h.Date]
		if !ok {
			i = len(days)
			index[h.Date] = i
			days = append(days, DayRecord{
				Date:        h.Date,
				SeasonCode:  h.SeasonCode,
				Year:        h.Year,
				Month:       h.Month,
				Holiday:     h.Holiday,
				WeekdayCode: h.WeekdayCode,
				WorkingDay:  h.WorkingDay,
				WeatherCode: h.WeatherCode,
				Season:      h.Season,
				Weather:     h.Weather,
				Weekday:     h.Weekday,
				DayType:     h.DayType,
			})
		}

		d := &days[i]
		if ok && !inconsistent[h.Date] && !sameDayCategories(d, h) {
			inconsistent[h.Date] = true
			warnings = append(warnings, fmt.Sprintf("%s: categorical fields differ within the day, first value kept", h.Date))
		}
		d.Temp += h.Temp
		d.ATemp += h.ATemp
		d.Humidity += h.Humidity
		d.WindSpeed += h.WindSpeed
		d.Casual += h.Casual
		d.Registered += h.Registered
		d.Total += h.Total
		d.Hours++
	}

	for i := range days {
		n := float64(days[i].Hours)
		days[i].Temp /= n
		days[i].ATemp /= n
		days[i].Humidity /= n
		days[i].WindSpeed /= n
	}

	sort.SliceStable(days, func(a, b int) bool {
		return days[a].Date.Before(days[b].Date.Time)
	})
	return days, warnings
}

func sameDayCategories(d *DayRecord, h HourlyRecord) bool {
	return d.SeasonCode == h.SeasonCode &&
		d.Year == h.Year &&
		d.Month == h.Month &&
		d.Holiday == h.Holiday &&
		d.WeekdayCode == h.WeekdayCode &&
		d.WorkingDay == h.WorkingDay
}
