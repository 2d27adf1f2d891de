package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// Date is a day-granularity timestamp. JSON and SQL representations carry
// no time-of-day component.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	y, m, d := time.Now().UTC().Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.Format(time.DateOnly))), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		y, m, day := v.Date()
		d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// DateRange is an inclusive [Start, End] day interval.
type DateRange struct {
	Start Date `json:"startDate"`
	End   Date `json:"endDate"`
}

func (r DateRange) Valid() bool {
	return !r.Start.After(r.End.Time)
}

// Overlaps reports whether two inclusive ranges share at least one day.
// A range ending the day another starts counts as an overlap: a vehicle
// cannot be turned over same-day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End.Time) && !o.Start.After(r.End.Time)
}
