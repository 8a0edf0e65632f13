package dataset

// FilterCriteria 日期为闭区间，零值表示使用数据集的最小/最大日期；
// Seasons/Weathers 为空表示不过滤
type FilterCriteria struct {
	Start    Date     `json:"start"`
	End      Date     `json:"end"`
	Seasons  []string `json:"seasons"`
	Weathers []string `json:"weathers"`
}

// Validate 结束日期早于开始日期时返回 FilterError
func (c FilterCriteria) Validate() error {
	if !c.Start.IsZero() && !c.End.IsZero() && c.End.Before(c.Start.Time) {
		return &FilterError{Start: c.Start, End: c.End, Reason: "end date is before start date"}
	}
	return nil
}

// ApplyFilters 对小时表或日表应用同一组条件，保持输入顺序，不修改输入
func ApplyFilters[T Filterable](rows []T, c FilterCriteria) []T {
	seasons := toSet(c.Seasons)
	weathers := toSet(c.Weathers)

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		key := row.Key()
		if !c.Start.IsZero() && key.Date.Before(c.Start.Time) {
			continue
		}
		if !c.End.IsZero() && key.Date.After(c.End.Time) {
			continue
		}
		if seasons != nil && !seasons[key.Season] {
			continue
		}
		if weathers != nil && !weathers[key.Weather] {
			continue
		}
		out = append(out, row)
	}
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// View 一组条件下过滤后的两张表
type View struct {
	Criteria FilterCriteria `json:"criteria"`
	Hourly   []HourlyRecord `json:"-"`
	Daily    []DayRecord    `json:"-"`
}

// Resolve 用数据集的日期范围补全未设置的边界
func (d *Dataset) Resolve(c FilterCriteria) FilterCriteria {
	if c.Start.IsZero() {
		c.Start = d.MinDate
	}
	if c.End.IsZero() {
		c.End = d.MaxDate
	}
	return c
}

// Filter 校验条件后过滤两张表；结果为空也是合法的
func (d *Dataset) Filter(c FilterCriteria) (View, error) {
	c = d.Resolve(c)
	if err := c.Validate(); err != nil {
		return View{}, err
	}
	return View{
		Criteria: c,
		Hourly:   ApplyFilters(d.Hourly, c),
		Daily:    ApplyFilters(d.Daily, c),
	}, nil
}

// Options 可供选择的过滤项
type Options struct {
	Seasons  []string `json:"seasons"`
	Weathers []string `json:"weathers"`
	MinDate  Date     `json:"min_date"`
	MaxDate  Date     `json:"max_date"`
}

// Options 按出现顺序列出季节和天气标签，未映射的空标签不列出
func (d *Dataset) Options() Options {
	opts := Options{
		Seasons:  []string{},
		Weathers: []string{},
		MinDate:  d.MinDate,
		MaxDate:  d.MaxDate,
	}
	seenSeason := make(map[string]bool)
	seenWeather := make(map[string]bool)
	for _, day := range d.Daily {
		if day.Season != "" && !seenSeason[day.Season] {
			seenSeason[day.Season] = true
			opts.Seasons = append(opts.Seasons, day.Season)
		}
		if day.Weather != "" && !seenWeather[day.Weather] {
			seenWeather[day.Weather] = true
			opts.Weathers = append(opts.Weathers, day.Weather)
		}
	}
	return opts
}
