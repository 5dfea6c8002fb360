package session

import (
	"time"

	"github.com/rickar/cal/v2"
)

// Fixed-date exchange holidays. Lunar holidays (Lunar New Year, Dragon Boat,
// Mid-Autumn) move every year and are not modelled.
var (
	newYear = &cal.Holiday{
		Name:  "Founding Day",
		Type:  cal.ObservancePublic,
		Month: time.January,
		Day:   1,
		Func:  cal.CalcDayOfMonth,
	}
	peaceMemorial = &cal.Holiday{
		Name:  "Peace Memorial Day",
		Type:  cal.ObservancePublic,
		Month: time.February,
		Day:   28,
		Func:  cal.CalcDayOfMonth,
	}
	childrensDay = &cal.Holiday{
		Name:  "Children's Day",
		Type:  cal.ObservancePublic,
		Month: time.April,
		Day:   4,
		Func:  cal.CalcDayOfMonth,
	}
	labourDay = &cal.Holiday{
		Name:  "Labour Day",
		Type:  cal.ObservancePublic,
		Month: time.May,
		Day:   1,
		Func:  cal.CalcDayOfMonth,
	}
	nationalDay = &cal.Holiday{
		Name:  "National Day",
		Type:  cal.ObservancePublic,
		Month: time.October,
		Day:   10,
		Func:  cal.CalcDayOfMonth,
	}
)

// NewTaiwanCalendar returns a Monday-Friday calendar with the fixed-date
// TWSE closures.
func NewTaiwanCalendar() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(newYear, peaceMemorial, childrensDay, labourDay, nationalDay)
	c.Cacheable = true
	return c
}

// NewWeekdayCalendar returns a plain Monday-Friday calendar.
func NewWeekdayCalendar() *cal.BusinessCalendar {
	return cal.NewBusinessCalendar()
}

// NewAlwaysOpenCalendar treats every day as a trading day, for venues like
// crypto exchanges that never close.
func NewAlwaysOpenCalendar() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.WorkdayFunc = func(time.Time) bool { return true }
	return c
}
