// data.go
package processor

import (
	"BikeSharingInsight/src/config"
	"BikeSharingInsight/src/dataset"
	"time"
)

// DataProcessor 对一个过滤视图运行全部聚合管道
type DataProcessor struct {
	dcfg *config.DataConfig
}

func NewDataProcessor(dcfg *config.DataConfig) *DataProcessor {
	if dcfg == nil {
		dcfg = config.DefaultDataConfig()
	}
	return &DataProcessor{dcfg: dcfg}
}

type KeyMetrics struct {
	TotalRentals     int     `json:"total_rentals"`
	MeanDailyRentals float64 `json:"mean_daily_rentals"`
	MaxDailyRentals  int     `json:"max_daily_rentals"`
	Days             int     `json:"days"`
}

// CalculateMetrics 总租借量、日均、单日最大、天数
func CalculateMetrics(days []dataset.DayRecord) (KeyMetrics, []Warning) {
	if len(days) == 0 {
		return KeyMetrics{}, emptyInput(PipelineMetrics)
	}

	m := KeyMetrics{Days: len(days)}
	for _, d := range days {
		m.TotalRentals += d.Total
		if d.Total > m.MaxDailyRentals {
			m.MaxDailyRentals = d.Total
		}
	}
	m.MeanDailyRentals = float64(m.TotalRentals) / float64(m.Days)
	return m, nil
}

// Dashboard 一次过滤对应的全部结果
type Dashboard struct {
	Criteria         dataset.FilterCriteria `json:"criteria"`
	GeneratedAt      time.Time              `json:"generated_at"`
	Metrics          KeyMetrics             `json:"metrics"`
	Seasonal         []SeasonImpact         `json:"seasonal_impact"`
	Weather          []WeatherImpactRow     `json:"weather_impact"`
	Temperature      []ScatterSeries        `json:"temperature_series"`
	Humidity         []ScatterSeries        `json:"humidity_series"`
	Hourly           []HourlyMean           `json:"hourly_average"`
	HourlyByDayType  []DayTypeHourlyMean    `json:"hourly_by_day_type"`
	HourlyByUserType []UserTypeHourlyMean   `json:"hourly_by_user_type"`
	TimeClusters     TimeClusters           `json:"time_clusters"`
	WeatherTemp      WeatherTempClusters    `json:"weather_temp_clusters"`
	Composition      []CompositionShare     `json:"user_composition"`
	Warnings         []Warning              `json:"warnings"`

	days []dataset.DayRecord
}

// Process 每次过滤条件变化都重新计算，不修改视图
func (p *DataProcessor) Process(view dataset.View) *Dashboard {
	d := &Dashboard{
		Criteria:    view.Criteria,
		GeneratedAt: time.Now(),
		Warnings:    []Warning{},
		days:        view.Daily,
	}
	collect := func(ws []Warning) {
		d.Warnings = append(d.Warnings, ws...)
	}

	var ws []Warning
	d.Metrics, ws = CalculateMetrics(view.Daily)
	collect(ws)
	d.Seasonal, ws = SeasonalImpact(view.Daily)
	collect(ws)
	d.Weather, ws = WeatherImpact(view.Daily)
	collect(ws)
	d.Temperature, ws = TemperatureSeries(view.Daily)
	collect(ws)
	d.Humidity, ws = HumiditySeries(view.Daily)
	collect(ws)
	d.Hourly, ws = HourlyAverage(view.Hourly)
	collect(ws)
	d.HourlyByDayType, ws = HourlyByDayType(view.Hourly)
	collect(ws)
	d.HourlyByUserType, ws = HourlyByUserType(view.Hourly, p.dcfg.UserTypeLabelMap())
	collect(ws)
	d.TimeClusters, ws = TimeClustering(d.Hourly)
	collect(ws)
	d.WeatherTemp, ws = WeatherTempClustering(view.Daily)
	collect(ws)
	d.Composition, ws = UserComposition(view.Daily)
	collect(ws)
	return d
}
