package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day, encoded as "YYYY-MM-DD". The zero Date encodes as null.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's location
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return Date{}, fmt.Errorf("[tasks ParseDate] %w", err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON accepts "YYYY-MM-DD" and full RFC 3339 timestamps
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("[tasks Date] %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		*d = Date{t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("[tasks Date] unrecognised date %q", s)
	}
	*d = NewDate(t.Local())
	return nil
}

// DaysUntil is the number of whole calendar days from now's day to d. Past
// dates are negative.
func (d Date) DaysUntil(now time.Time) int {
	from := NewDate(now.In(d.Location()))
	// Round to absorb DST shifts of an hour either way
	return int(math.Round(d.Sub(from.Time).Hours() / 24))
}
