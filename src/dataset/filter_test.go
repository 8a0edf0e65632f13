package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeDays(t *testing.T) *Dataset {
	days := append(twoDays(), dayFixture{
		date: "2011-09-01", season: 3, weather: 2, weekday: 4, casual: 1, registered: 9, temp: 0.6,
	})
	return mustLoad(t, days)
}

func TestApplyFiltersDateRangeInclusive(t *testing.T) {
	ds := threeDays(t)
	c := FilterCriteria{Start: NewDate(2011, time.January, 1), End: NewDate(2011, time.June, 1)}

	daily := ApplyFilters(ds.Daily, c)
	require.Len(t, daily, 2)
	assert.Equal(t, "2011-01-01", daily[0].Date.String())
	assert.Equal(t, "2011-06-01", daily[1].Date.String())

	assert.Len(t, ApplyFilters(ds.Hourly, c), 48)
}

func TestApplyFiltersCategorical(t *testing.T) {
	ds := threeDays(t)

	daily := ApplyFilters(ds.Daily, FilterCriteria{Seasons: []string{"Summer", "Fall"}})
	require.Len(t, daily, 2)
	assert.Equal(t, "Summer", daily[0].Season)

	daily = ApplyFilters(ds.Daily, FilterCriteria{Seasons: []string{"Summer", "Fall"}, Weathers: []string{"Misty/Cloudy"}})
	require.Len(t, daily, 1)
	assert.Equal(t, "Fall", daily[0].Season)

	assert.Empty(t, ApplyFilters(ds.Hourly, FilterCriteria{Weathers: []string{"Heavy Rain/Snow"}}))
}

func TestApplyFiltersIdentity(t *testing.T) {
	ds := threeDays(t)
	c := ds.Resolve(FilterCriteria{Seasons: []string{}, Weathers: nil})

	assert.Equal(t, ds.Daily, ApplyFilters(ds.Daily, c))
	assert.Equal(t, ds.Hourly, ApplyFilters(ds.Hourly, c))
}

func TestApplyFiltersIdempotent(t *testing.T) {
	ds := threeDays(t)
	c := FilterCriteria{Start: NewDate(2011, time.February, 1), Seasons: []string{"Summer", "Fall"}}

	once := ApplyFilters(ds.Hourly, c)
	twice := ApplyFilters(once, c)
	assert.Equal(t, once, twice)
}

func TestApplyFiltersDoesNotMutate(t *testing.T) {
	ds := threeDays(t)
	before := append([]DayRecord(nil), ds.Daily...)

	filtered := ApplyFilters(ds.Daily, FilterCriteria{Seasons: []string{"Fall"}})
	filtered[0].Total = -1

	assert.Equal(t, before, ds.Daily)
}

func TestDatasetFilter(t *testing.T) {
	ds := threeDays(t)

	view, err := ds.Filter(FilterCriteria{})
	require.NoError(t, err)
	assert.Equal(t, ds.MinDate, view.Criteria.Start)
	assert.Equal(t, ds.MaxDate, view.Criteria.End)
	assert.Len(t, view.Daily, 3)
	assert.Len(t, view.Hourly, 72)

	view, err = ds.Filter(FilterCriteria{Start: NewDate(2012, time.January, 1)})
	require.NoError(t, err)
	assert.Empty(t, view.Daily)
	assert.Empty(t, view.Hourly)
}

func TestDatasetFilterEndBeforeStart(t *testing.T) {
	ds := threeDays(t)

	_, err := ds.Filter(FilterCriteria{Start: NewDate(2011, time.June, 1), End: NewDate(2011, time.January, 1)})
	var fe *FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "end date is before start date", fe.Reason)

	// 只设置结束日期且早于数据集起点
	_, err = ds.Filter(FilterCriteria{End: NewDate(2010, time.December, 31)})
	assert.True(t, errors.As(err, &fe))
}

func TestDatasetOptions(t *testing.T) {
	days := append(twoDays(), dayFixture{date: "2011-07-01", season: 9, weather: 2, weekday: 5, casual: 1, registered: 1})
	ds := mustLoad(t, days)

	opts := ds.Options()
	assert.Equal(t, []string{"Spring", "Summer"}, opts.Seasons)
	assert.Equal(t, []string{"Clear", "Misty/Cloudy"}, opts.Weathers)
	assert.Equal(t, "2011-01-01", opts.MinDate.String())
	assert.Equal(t, "2011-07-01", opts.MaxDate.String())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Winter", SeasonLabel(4))
	assert.Equal(t, "Misty/Cloudy", WeatherLabel(2))
	assert.Equal(t, "Sunday", WeekdayLabel(0))
	assert.Equal(t, "", SeasonLabel(0))
	assert.Equal(t, Weekend, DayType(0))
	assert.Equal(t, Weekend, DayType(6))
	assert.Equal(t, Weekday, DayType(3))
}
