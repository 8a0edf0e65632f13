package processor

import (
	"BikeSharingInsight/src/dataset"
	"sort"
)

// 管道名称
const (
	PipelineSeasonal       = "seasonal_impact"
	PipelineWeather        = "weather_impact"
	PipelineTemperature    = "temperature_series"
	PipelineHumidity       = "humidity_series"
	PipelineHourly         = "hourly_average"
	PipelineHourlyDayType  = "hourly_by_day_type"
	PipelineHourlyUserType = "hourly_by_user_type"
	PipelineTimeClusters   = "time_clusters"
	PipelineWeatherTemp    = "weather_temp_clusters"
	PipelineComposition    = "user_composition"
	PipelineMetrics        = "key_metrics"
)

type SeasonImpact struct {
	Season string  `json:"season"`
	Mean   float64 `json:"mean"`
	Sum    int     `json:"sum"`
}

func dayTotal(d dataset.DayRecord) int          { return d.Total }
func dayTotalFloat(d dataset.DayRecord) float64 { return float64(d.Total) }

// SeasonalImpact 按季节统计日租借量均值和总和，按总和降序，相同时保持首次出现顺序
func SeasonalImpact(days []dataset.DayRecord) ([]SeasonImpact, []Warning) {
	out := []SeasonImpact{}
	if len(days) == 0 {
		return out, emptyInput(PipelineSeasonal)
	}

	for _, g := range groupBy(days, func(d dataset.DayRecord) string { return d.Season }) {
		out = append(out, SeasonImpact{
			Season: g.key,
			Mean:   meanOf(g.rows, dayTotalFloat),
			Sum:    sumOf(g.rows, dayTotal),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sum > out[j].Sum })
	return out, nil
}

type WeatherImpactRow struct {
	Weather string  `json:"weather"`
	Mean    float64 `json:"mean"`
	Sum     int     `json:"sum"`
	Count   int     `json:"count"`
}

// WeatherImpact 按天气统计均值、总和与天数，按均值降序
func WeatherImpact(days []dataset.DayRecord) ([]WeatherImpactRow, []Warning) {
	out := []WeatherImpactRow{}
	if len(days) == 0 {
		return out, emptyInput(PipelineWeather)
	}

	for _, g := range groupBy(days, func(d dataset.DayRecord) string { return d.Weather }) {
		out = append(out, WeatherImpactRow{
			Weather: g.key,
			Mean:    meanOf(g.rows, dayTotalFloat),
			Sum:     sumOf(g.rows, dayTotal),
			Count:   len(g.rows),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out, nil
}

// ScatterPoint 散点图上的一个点，趋势线由前端计算
type ScatterPoint struct {
	X     float64      `json:"x"`
	Total int          `json:"total"`
	Date  dataset.Date `json:"date"`
}

type ScatterSeries struct {
	Season string         `json:"season"`
	Points []ScatterPoint `json:"points"`
}

// TemperatureSeries 每个季节一组 (温度, 日租借量)
func TemperatureSeries(days []dataset.DayRecord) ([]ScatterSeries, []Warning) {
	return scatterBySeason(PipelineTemperature, days, func(d dataset.DayRecord) float64 { return d.Temp })
}

// HumiditySeries 每个季节一组 (湿度, 日租借量)
func HumiditySeries(days []dataset.DayRecord) ([]ScatterSeries, []Warning) {
	return scatterBySeason(PipelineHumidity, days, func(d dataset.DayRecord) float64 { return d.Humidity })
}

func scatterBySeason(pipeline string, days []dataset.DayRecord, x func(dataset.DayRecord) float64) ([]ScatterSeries, []Warning) {
	out := []ScatterSeries{}
	if len(days) == 0 {
		return out, emptyInput(pipeline)
	}

	for _, g := range groupBy(days, func(d dataset.DayRecord) string { return d.Season }) {
		points := make([]ScatterPoint, len(g.rows))
		for i, d := range g.rows {
			points[i] = ScatterPoint{X: x(d), Total: d.Total, Date: d.Date}
		}
		out = append(out, ScatterSeries{Season: g.key, Points: points})
	}
	return out, nil
}
