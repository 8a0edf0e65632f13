package processor

import (
	"BikeSharingInsight/src/utils"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// 结果表名，用于 /tables/:name 和导出工作簿
const (
	TableMetrics            = "key_metrics"
	TableSeasonal           = "seasonal_impact"
	TableWeather            = "weather_impact"
	TableTemperature        = "temperature_series"
	TableHumidity           = "humidity_series"
	TableHourly             = "hourly_average"
	TableHourlyDayType      = "hourly_by_day_type"
	TableHourlyUserType     = "hourly_by_user_type"
	TableTimeClusters       = "time_clusters"
	TableTimeClusterSummary = "time_cluster_summary"
	TableWeatherTemp        = "weather_temp_clusters"
	TableWeatherTempDays    = "weather_temp_days"
	TableComposition        = "user_composition"
	TableDays               = "filtered_days"
)

// tableOrder 导出时的工作表顺序
var tableOrder = []string{
	TableMetrics, TableSeasonal, TableWeather, TableTemperature, TableHumidity,
	TableHourly, TableHourlyDayType, TableHourlyUserType, TableTimeClusters,
	TableTimeClusterSummary, TableWeatherTemp, TableWeatherTempDays, TableComposition, TableDays,
}

func TableNames() []string {
	return append([]string(nil), tableOrder...)
}

// Table 把某个结果转换为 DataFrame
func (d *Dashboard) Table(name string) (dataframe.DataFrame, bool) {
	build, ok := tableBuilders[name]
	if !ok {
		return dataframe.DataFrame{}, false
	}
	return build(d), true
}

// Tables 全部结果表，按 tableOrder 排列
func (d *Dashboard) Tables() []utils.NamedTable {
	tables := make([]utils.NamedTable, 0, len(tableOrder))
	for _, name := range tableOrder {
		df, _ := d.Table(name)
		tables = append(tables, utils.NamedTable{Name: name, Data: df})
	}
	return tables
}

var tableBuilders = map[string]func(d *Dashboard) dataframe.DataFrame{
	TableMetrics:            metricsFrame,
	TableSeasonal:           seasonalFrame,
	TableWeather:            weatherFrame,
	TableTemperature:        func(d *Dashboard) dataframe.DataFrame { return scatterFrame(d.Temperature, "temp") },
	TableHumidity:           func(d *Dashboard) dataframe.DataFrame { return scatterFrame(d.Humidity, "humidity") },
	TableHourly:             hourlyFrame,
	TableHourlyDayType:      hourlyDayTypeFrame,
	TableHourlyUserType:     hourlyUserTypeFrame,
	TableTimeClusters:       timeClustersFrame,
	TableTimeClusterSummary: clusterSummaryFrame,
	TableWeatherTemp:        weatherTempFrame,
	TableWeatherTempDays:    weatherTempDaysFrame,
	TableComposition:        compositionFrame,
	TableDays:               daysFrame,
}

func metricsFrame(d *Dashboard) dataframe.DataFrame {
	m := d.Metrics
	return dataframe.New(
		series.New([]string{"total_rentals", "mean_daily_rentals", "max_daily_rentals", "days"}, series.String, "metric"),
		series.New([]float64{float64(m.TotalRentals), m.MeanDailyRentals, float64(m.MaxDailyRentals), float64(m.Days)}, series.Float, "value"),
	)
}

func seasonalFrame(d *Dashboard) dataframe.DataFrame {
	n := len(d.Seasonal)
	season, mean, sum := make([]string, n), make([]float64, n), make([]int, n)
	for i, r := range d.Seasonal {
		season[i], mean[i], sum[i] = r.Season, r.Mean, r.Sum
	}
	return dataframe.New(
		series.New(season, series.String, "season"),
		series.New(mean, series.Float, "mean"),
		series.New(sum, series.Int, "sum"),
	)
}

func weatherFrame(d *Dashboard) dataframe.DataFrame {
	n := len(d.Weather)
	weather, mean, sum, count := make([]string, n), make([]float64, n), make([]int, n), make([]int, n)
	for i, r := range d.Weather {
		weather[i], mean[i], sum[i], count[i] = r.Weather, r.Mean, r.Sum, r.Count
	}
	return dataframe.New(
		series.New(weather, series.String, "weather"),
		series.New(mean, series.Float, "mean"),
		series.New(sum, series.Int, "sum"),
		series.New(count, series.Int, "count"),
	)
}

// scatterFrame 展开成 (season, x, total, date) 的长表
func scatterFrame(all []ScatterSeries, xName string) dataframe.DataFrame {
	var (
		season, date []string
		x            []float64
		total        []int
	)
	for _, s := range all {
		for _, p := range s.Points {
			season = append(season, s.Season)
			x = append(x, p.X)
			total = append(total, p.Total)
			date = append(date, p.Date.String())
		}
	}
	return dataframe.New(
		series.New(nonNil(season), series.String, "season"),
		series.New(nonNilFloat(x), series.Float, xName),
		series.New(nonNilInt(total), series.Int, "total"),
		series.New(nonNil(date), series.String, "date"),
	)
}

func hourlyFrame(d *Dashboard) dataframe.DataFrame {
	n := len(d.Hourly)
	hour, mean := make([]int, n), make([]float64, n)
	for i, r := range d.Hourly {
		hour[i], mean[i] = r.Hour, r.Mean
	}
	return dataframe.New(
		series.New(hour, series.Int, "hour"),
		series.New(mean, series.Float, "mean"),
	)
}

func hourlyDayTypeFrame(d *Dashboard) dataframe.DataFrame {
	n := len(d.HourlyByDayType)
	hour, dayType, mean := make([]int, n), make([]string, n), make([]float64, n)
	for i, r := range d.HourlyByDayType {
		hour[i], dayType[i], mean[i] = r.Hour, r.DayType, r.Mean
	}
	return dataframe.New(
		series.New(hour, series.Int, "hour"),
		series.New(dayType, series.String, "day_type"),
		series.New(mean, series.Float, "mean"),
	)
}

func hourlyUserTypeFrame(d *Dashboard) dataframe.DataFrame {
	n := len(d.HourlyByUserType)
	hour, userType, label, mean := make([]int, n), make([]string, n), make([]string, n), make([]float64, n)
	for i, r := range d.HourlyByUserType {
		hour[i], userType[i], label[i], mean[i] = r.Hour, r.UserType, r.Label, r.Mean
	}
	return dataframe.New(
		series.New(hour, series.Int, "hour"),
		series.New(userType, series.String, "user_type"),
		series.New(label, series.String, "label"),
		series.New(mean, series.Float, "mean"),
	)
}

func timeClustersFrame(d *Dashboard) dataframe.DataFrame {
	rows := d.TimeClusters.Hours
	n := len(rows)
	hour, mean, cluster := make([]int, n), make([]float64, n), make([]string, n)
	for i, r := range rows {
		hour[i], mean[i], cluster[i] = r.Hour, r.Mean, r.Cluster
	}
	return dataframe.New(
		series.New(hour, series.Int, "hour"),
		series.New(mean, series.Float, "mean"),
		series.New(cluster, series.String, "cluster"),
	)
}

func clusterSummaryFrame(d *Dashboard) dataframe.DataFrame {
	rows := d.TimeClusters.Summary
	n := len(rows)
	cluster, count, hours := make([]string, n), make([]int, n), make([]string, n)
	for i, r := range rows {
		cluster[i], count[i], hours[i] = r.Cluster, r.Count, r.HoursText
	}
	return dataframe.New(
		series.New(cluster, series.String, "cluster"),
		series.New(count, series.Int, "count"),
		series.New(hours, series.String, "hours"),
	)
}

func weatherTempFrame(d *Dashboard) dataframe.DataFrame {
	rows := d.WeatherTemp.Groups
	n := len(rows)
	group, mean, count := make([]string, n), make([]float64, n), make([]int, n)
	for i, r := range rows {
		group[i], mean[i], count[i] = r.Group, r.Mean, r.Count
	}
	return dataframe.New(
		series.New(group, series.String, "group"),
		series.New(mean, series.Float, "mean"),
		series.New(count, series.Int, "count"),
	)
}

func weatherTempDaysFrame(d *Dashboard) dataframe.DataFrame {
	rows := d.WeatherTemp.Days
	n := len(rows)
	date, weather, tempBucket, humBucket, group := make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n)
	temp, hum, total := make([]float64, n), make([]float64, n), make([]int, n)
	for i, r := range rows {
		date[i], weather[i], group[i] = r.Date.String(), r.Weather, r.Group
		temp[i], tempBucket[i] = r.Temp, r.TempBucket
		hum[i], humBucket[i] = r.Humidity, r.HumidityBucket
		total[i] = r.Total
	}
	return dataframe.New(
		series.New(date, series.String, "date"),
		series.New(weather, series.String, "weather"),
		series.New(temp, series.Float, "temp"),
		series.New(tempBucket, series.String, "temp_bucket"),
		series.New(hum, series.Float, "humidity"),
		series.New(humBucket, series.String, "humidity_bucket"),
		series.New(group, series.String, "group"),
		series.New(total, series.Int, "total"),
	)
}

func compositionFrame(d *Dashboard) dataframe.DataFrame {
	n := len(d.Composition)
	season, category, pct := make([]string, n), make([]string, n), make([]float64, n)
	for i, r := range d.Composition {
		season[i], category[i], pct[i] = r.Season, r.Category, r.Percentage
	}
	return dataframe.New(
		series.New(season, series.String, "season"),
		series.New(category, series.String, "category"),
		series.New(pct, series.Float, "percentage"),
	)
}

func daysFrame(d *Dashboard) dataframe.DataFrame {
	n := len(d.days)
	date, season, weather, weekday, dayType := make([]string, n), make([]string, n), make([]string, n), make([]string, n), make([]string, n)
	temp, hum := make([]float64, n), make([]float64, n)
	casual, registered, total := make([]int, n), make([]int, n), make([]int, n)
	for i, r := range d.days {
		date[i], season[i], weather[i], weekday[i], dayType[i] = r.Date.String(), r.Season, r.Weather, r.Weekday, r.DayType
		temp[i], hum[i] = r.Temp, r.Humidity
		casual[i], registered[i], total[i] = r.Casual, r.Registered, r.Total
	}
	return dataframe.New(
		series.New(date, series.String, "date"),
		series.New(season, series.String, "season"),
		series.New(weather, series.String, "weather"),
		series.New(weekday, series.String, "weekday"),
		series.New(dayType, series.String, "day_type"),
		series.New(temp, series.Float, "temp"),
		series.New(hum, series.Float, "humidity"),
		series.New(casual, series.Int, "casual"),
		series.New(registered, series.Int, "registered"),
		series.New(total, series.Int, "total"),
	)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilFloat(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

func nonNilInt(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// Summary 关键指标的简短文本，用于日志和推送
func (d *Dashboard) Summary() string {
	var sb strings.Builder
	sb.WriteString("days=" + strconv.Itoa(d.Metrics.Days))
	sb.WriteString(" total=" + strconv.Itoa(d.Metrics.TotalRentals))
	sb.WriteString(" mean=" + strconv.FormatFloat(d.Metrics.MeanDailyRentals, 'f', 2, 64))
	sb.WriteString(" max=" + strconv.Itoa(d.Metrics.MaxDailyRentals))
	if len(d.Warnings) > 0 {
		pipelines := make(map[string]bool)
		for _, w := range d.Warnings {
			pipelines[w.Pipeline] = true
		}
		names := make([]string, 0, len(pipelines))
		for p := range pipelines {
			names = append(names, p)
		}
		sort.Strings(names)
		sb.WriteString(" warnings=" + strings.Join(names, ","))
	}
	return sb.String()
}
