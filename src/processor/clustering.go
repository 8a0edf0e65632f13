package processor

import (
	"BikeSharingInsight/src/dataset"
	"fmt"
	"sort"
	"strings"
)

type HourCluster struct {
	Hour    int     `json:"hour"`
	Mean    float64 `json:"mean"`
	Cluster string  `json:"cluster"`
}

type ClusterSummary struct {
	Cluster   string `json:"cluster"`
	Count     int    `json:"count"`
	Hours     []int  `json:"hours"`
	HoursText string `json:"hours_text"`
}

type TimeClusters struct {
	Hours   []HourCluster    `json:"hours"`
	Summary []ClusterSummary `json:"summary"`
}

// TimeClustering 按小时均值分档。0 或超过 500 的小时记为 Unclassified，
// 汇总按 Low -> Very High 排列，Unclassified 放在最后
func TimeClustering(avg []HourlyMean) (TimeClusters, []Warning) {
	out := TimeClusters{Hours: []HourCluster{}, Summary: []ClusterSummary{}}
	if len(avg) == 0 {
		return out, emptyInput(PipelineTimeClusters)
	}

	var warnings []Warning
	for _, h := range avg {
		label := UsageBins.Label(h.Mean)
		if label == Unclassified {
			warnings = append(warnings, warnf(PipelineTimeClusters, "hour %d mean %.2f is outside every usage bin", h.Hour, h.Mean))
		}
		out.Hours = append(out.Hours, HourCluster{Hour: h.Hour, Mean: h.Mean, Cluster: label})
	}

	for _, g := range groupBy(out.Hours, func(h HourCluster) string { return h.Cluster }) {
		hours := make([]int, len(g.rows))
		text := make([]string, len(g.rows))
		for i, h := range g.rows {
			hours[i] = h.Hour
		}
		sort.Ints(hours)
		for i, h := range hours {
			text[i] = fmt.Sprintf("%d:00", h)
		}
		out.Summary = append(out.Summary, ClusterSummary{
			Cluster:   g.key,
			Count:     len(hours),
			Hours:     hours,
			HoursText: strings.Join(text, ", "),
		})
	}
	sort.SliceStable(out.Summary, func(i, j int) bool {
		return UsageBins.Rank(out.Summary[i].Cluster) < UsageBins.Rank(out.Summary[j].Cluster)
	})
	return out, warnings
}

type WeatherTempGroup struct {
	Group      string  `json:"group"`
	Weather    string  `json:"weather"`
	TempBucket string  `json:"temp_bucket"`
	Mean       float64 `json:"mean"`
	Count      int     `json:"count"`
}

// DayAssignment 每天所属的温度、湿度档位
type DayAssignment struct {
	Date           dataset.Date `json:"date"`
	Weather        string       `json:"weather"`
	Temp           float64      `json:"temp"`
	TempBucket     string       `json:"temp_bucket"`
	Humidity       float64      `json:"humidity"`
	HumidityBucket string       `json:"humidity_bucket"`
	Group          string       `json:"group"`
	Total          int          `json:"total"`
}

type WeatherTempClusters struct {
	Groups []WeatherTempGroup `json:"groups"`
	Days   []DayAssignment    `json:"days"`
}

// WeatherTempClustering 以 "天气 - 温度档" 为组合键统计日租借量，
// 少于 MinClusterSupport 天的组合不输出，其余按均值降序
func WeatherTempClustering(days []dataset.DayRecord) (WeatherTempClusters, []Warning) {
	out := WeatherTempClusters{Groups: []WeatherTempGroup{}, Days: []DayAssignment{}}
	if len(days) == 0 {
		return out, emptyInput(PipelineWeatherTemp)
	}

	var warnings []Warning
	for _, d := range days {
		tempBucket := TemperatureBins.Label(d.Temp)
		if tempBucket == Unclassified {
			warnings = append(warnings, warnf(PipelineWeatherTemp, "%s: temp %.3f is outside every temperature bin", d.Date, d.Temp))
		}
		out.Days = append(out.Days, DayAssignment{
			Date:           d.Date,
			Weather:        d.Weather,
			Temp:           d.Temp,
			TempBucket:     tempBucket,
			Humidity:       d.Humidity,
			HumidityBucket: HumidityBins.Label(d.Humidity),
			Group:          d.Weather + " - " + tempBucket,
			Total:          d.Total,
		})
	}

	for _, g := range groupBy(out.Days, func(a DayAssignment) string { return a.Group }) {
		if len(g.rows) < MinClusterSupport {
			continue
		}
		out.Groups = append(out.Groups, WeatherTempGroup{
			Group:      g.key,
			Weather:    g.rows[0].Weather,
			TempBucket: g.rows[0].TempBucket,
			Mean:       meanOf(g.rows, func(a DayAssignment) float64 { return float64(a.Total) }),
			Count:      len(g.rows),
		})
	}
	sort.SliceStable(out.Groups, func(i, j int) bool { return out.Groups[i].Mean > out.Groups[j].Mean })
	return out, warnings
}

type CompositionShare struct {
	Season     string  `json:"season"`
	Category   string  `json:"category"`
	Percentage float64 `json:"percentage"`
}

// UserComposition 按注册用户占比给每天分档，统计每个季节各档所占天数百分比。
// total 为 0 或占比不在任何档位的天只在本管道中排除
func UserComposition(days []dataset.DayRecord) ([]CompositionShare, []Warning) {
	out := []CompositionShare{}
	if len(days) == 0 {
		return out, emptyInput(PipelineComposition)
	}

	var warnings []Warning
	counts := make(map[string]map[string]int)
	seasonTotals := make(map[string]int)
	observed := make(map[string]bool)
	for _, d := range days {
		if d.Total == 0 {
			warnings = append(warnings, warnf(PipelineComposition, "%s: total is zero, day excluded", d.Date))
			continue
		}
		ratio := float64(d.Registered) / float64(d.Total)
		category, ok := CompositionBins.Classify(ratio)
		if !ok {
			warnings = append(warnings, warnf(PipelineComposition, "%s: registered ratio %.3f is outside every composition bin, day excluded", d.Date, ratio))
			continue
		}
		if counts[d.Season] == nil {
			counts[d.Season] = make(map[string]int)
		}
		counts[d.Season][category]++
		seasonTotals[d.Season]++
		observed[category] = true
	}

	seasons := make([]string, 0, len(seasonTotals))
	for s := range seasonTotals {
		seasons = append(seasons, s)
	}
	sort.Strings(seasons)

	for _, category := range CompositionBins.Labels() {
		if !observed[category] {
			continue
		}
		for _, s := range seasons {
			out = append(out, CompositionShare{
				Season:     s,
				Category:   category,
				Percentage: float64(counts[s][category]) / float64(seasonTotals[s]) * 100,
			})
		}
	}
	return out, warnings
}
