package dataset

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout 日期统一格式
const DateLayout = "2006-01-02"

// 支持的日期格式，按顺序尝试
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"01-02-2006",
	time.RFC3339,
}

// Date 日历日期(UTC 零点)，JSON 输出为 2006-01-02
type Date struct {
	time.Time
}

// NewDate 构造日历日期
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 截取 t 的日期部分
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate 依次尝试 dateFormats 解析日期
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("无法解析日期 %q", s)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// HourlyRecord 小时粒度记录，加载后不再修改
type HourlyRecord struct {
	Date        Date    `json:"date"`
	Hour        int     `json:"hour"`
	SeasonCode  int     `json:"season_code"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Holiday     int     `json:"holiday"`
	WeekdayCode int     `json:"weekday_code"`
	WorkingDay  int     `json:"working_day"`
	WeatherCode int     `json:"weather_code"`
	Temp        float64 `json:"temp"`
	ATemp       float64 `json:"atemp"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windspeed"`
	Casual      int     `json:"casual"`
	Registered  int     `json:"registered"`
	Total       int     `json:"total"`

	// 加载时派生
	Season  string `json:"season"`
	Weather string `json:"weather"`
	Weekday string `json:"weekday"`
	DayType string `json:"day_type"`
}

// DayRecord 日粒度记录，由同一天的小时记录聚合而来
type DayRecord struct {
	Date        Date    `json:"date"`
	SeasonCode  int     `json:"season_code"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Holiday     int     `json:"holiday"`
	WeekdayCode int     `json:"weekday_code"`
	WorkingDay  int     `json:"working_day"`
	WeatherCode int     `json:"weather_code"`
	Temp        float64 `json:"temp"`
	ATemp       float64 `json:"atemp"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windspeed"`
	Casual      int     `json:"casual"`
	Registered  int     `json:"registered"`
	Total       int     `json:"total"`
	Hours       int     `json:"hours"`

	Season  string `json:"season"`
	Weather string `json:"weather"`
	Weekday string `json:"weekday"`
	DayType string `json:"day_type"`
}

// RowKey 过滤用到的字段
type RowKey struct {
	Date    Date
	Season  string
	Weather string
}

// Filterable 小时表和日表都能被过滤
type Filterable interface {
	Key() RowKey
}

func (r HourlyRecord) Key() RowKey {
	return RowKey{Date: r.Date, Season: r.Season, Weather: r.Weather}
}

func (r DayRecord) Key() RowKey {
	return RowKey{Date: r.Date, Season: r.Season, Weather: r.Weather}
}
