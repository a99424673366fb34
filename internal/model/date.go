package model

import (
	"fmt"
	"sort"
	"time"
)

// Date là một ngày lịch, không gắn giờ.
// 持久化格式 2006-01-02，展示格式 02/01/2006（theo thói quen người Việt）。
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("invalid calendar date %d/%d/%d", day, int(month), year)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// DateOf 取 t 在其自身时区下的日历日。
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// String renders the user-facing form, e.g. 05/01/2026.
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// Compact renders without zero padding, e.g. 5/1/2026 (dùng trong digest).
func (d Date) Compact() string {
	return fmt.Sprintf("%d/%d/%d", d.Day, int(d.Month), d.Year)
}

const dateStorageLayout = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time(time.UTC).Format(dateStorageLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(raw []byte) error {
	s := string(raw)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date literal %s", s)
	}
	t, err := time.Parse(dateStorageLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid stored date %s: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}

// SortDates 就地升序排序。
func SortDates(dates []Date) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}
