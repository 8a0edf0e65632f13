package processor

import (
	"BikeSharingInsight/src/dataset"
)

// 用户类型，也是长表的 user_type 取值顺序
const (
	UserCasual     = "casual"
	UserRegistered = "registered"
	UserTotal      = "total"
)

var userTypes = []string{UserCasual, UserRegistered, UserTotal}

// DefaultUserTypeLabels 用户类型的展示名称
var DefaultUserTypeLabels = map[string]string{
	UserCasual:     "Casual Users",
	UserRegistered: "Registered Users",
	UserTotal:      "Total Rentals",
}

type HourlyMean struct {
	Hour int     `json:"hour"`
	Mean float64 `json:"mean"`
}

// hourAccumulator 小时已在加载时校验为 0-23
type hourAccumulator struct {
	sum   [24]float64
	count [24]int
}

func (a *hourAccumulator) add(hour int, v float64) {
	a.sum[hour] += v
	a.count[hour]++
}

func (a *hourAccumulator) mean(hour int) (float64, bool) {
	if a.count[hour] == 0 {
		return 0, false
	}
	return a.sum[hour] / float64(a.count[hour]), true
}

// HourlyAverage 每个出现过的小时的平均租借量，按小时升序，不补零
func HourlyAverage(hours []dataset.HourlyRecord) ([]HourlyMean, []Warning) {
	out := []HourlyMean{}
	if len(hours) == 0 {
		return out, emptyInput(PipelineHourly)
	}

	var acc hourAccumulator
	for _, h := range hours {
		acc.add(h.Hour, float64(h.Total))
	}
	for hour := 0; hour < 24; hour++ {
		if m, ok := acc.mean(hour); ok {
			out = append(out, HourlyMean{Hour: hour, Mean: m})
		}
	}
	return out, nil
}

type DayTypeHourlyMean struct {
	Hour    int     `json:"hour"`
	DayType string  `json:"day_type"`
	Mean    float64 `json:"mean"`
}

// HourlyByDayType 按 (小时, 日类型) 求均值，同一小时内 Weekday 在前
func HourlyByDayType(hours []dataset.HourlyRecord) ([]DayTypeHourlyMean, []Warning) {
	out := []DayTypeHourlyMean{}
	if len(hours) == 0 {
		return out, emptyInput(PipelineHourlyDayType)
	}

	dayTypes := []string{dataset.Weekday, dataset.Weekend}
	acc := map[string]*hourAccumulator{
		dataset.Weekday: {},
		dataset.Weekend: {},
	}
	for _, h := range hours {
		dayType := h.DayType
		if dayType == "" {
			dayType = dataset.DayType(h.WeekdayCode)
		}
		a, ok := acc[dayType]
		if !ok {
			continue
		}
		a.add(h.Hour, float64(h.Total))
	}
	for hour := 0; hour < 24; hour++ {
		for _, dt := range dayTypes {
			if m, ok := acc[dt].mean(hour); ok {
				out = append(out, DayTypeHourlyMean{Hour: hour, DayType: dt, Mean: m})
			}
		}
	}
	return out, nil
}

type UserTypeHourlyMean struct {
	Hour     int     `json:"hour"`
	UserType string  `json:"user_type"`
	Label    string  `json:"label"`
	Mean     float64 `json:"mean"`
}

// HourlyByUserType 每小时 casual/registered/total 的均值，转成长表：
// 先是所有小时的 casual，然后 registered，最后 total
func HourlyByUserType(hours []dataset.HourlyRecord, labels map[string]string) ([]UserTypeHourlyMean, []Warning) {
	out := []UserTypeHourlyMean{}
	if len(hours) == 0 {
		return out, emptyInput(PipelineHourlyUserType)
	}

	acc := map[string]*hourAccumulator{
		UserCasual:     {},
		UserRegistered: {},
		UserTotal:      {},
	}
	for _, h := range hours {
		acc[UserCasual].add(h.Hour, float64(h.Casual))
		acc[UserRegistered].add(h.Hour, float64(h.Registered))
		acc[UserTotal].add(h.Hour, float64(h.Total))
	}

	for _, ut := range userTypes {
		label := labels[ut]
		if label == "" {
			label = DefaultUserTypeLabels[ut]
		}
		for hour := 0; hour < 24; hour++ {
			if m, ok := acc[ut].mean(hour); ok {
				out = append(out, UserTypeHourlyMean{Hour: hour, UserType: ut, Label: label, Mean: m})
			}
		}
	}
	return out, nil
}
