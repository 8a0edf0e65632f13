package dataset

// 日类型标签
const (
	Weekday = "Weekday"
	Weekend = "Weekend"
)

// 编码到标签的固定映射
var (
	seasonLabels = map[int]string{
		1: "Spring",
		2: "Summer",
		3: "Fall",
		4: "Winter",
	}
	weatherLabels = map[int]string{
		1: "Clear",
		2: "Misty/Cloudy",
		3: "Light Rain/Snow",
		4: "Heavy Rain/Snow",
	}
	weekdayLabels = map[int]string{
		0: "Sunday",
		1: "Monday",
		2: "Tuesday",
		3: "Wednesday",
		4: "Thursday",
		5: "Friday",
		6: "Saturday",
	}
)

// SeasonLabel 未知编码返回空字符串
func SeasonLabel(code int) string { return seasonLabels[code] }

func WeatherLabel(code int) string { return weatherLabels[code] }

func WeekdayLabel(code int) string { return weekdayLabels[code] }

// DayType 周日(0)和周六(6)为 Weekend
func DayType(weekdayCode int) string {
	if weekdayCode == 0 || weekdayCode == 6 {
		return Weekend
	}
	return Weekday
}
