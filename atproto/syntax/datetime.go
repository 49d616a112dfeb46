package syntax

import (
	"time"
)

const AtprotoDatetimeLayout = "2006-01-02T15:04:05.999Z"

// Datetime string in the atproto profile of RFC-3339, always UTC with millisecond precision
type Datetime string

func DatetimeNow() Datetime {
	return NewDatetime(time.Now())
}

func NewDatetime(t time.Time) Datetime {
	return Datetime(t.UTC().Format(AtprotoDatetimeLayout))
}

func (d Datetime) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, string(d))
}

func (d Datetime) String() string {
	return string(d)
}
