package mediatime

import (
	"fmt"
	"math"
)

// RationalTime is a point in time expressed as Value units at Rate units per second.
type RationalTime struct {
	Value float64 `json:"value"`
	Rate  float64 `json:"rate"`
}

// NewRationalTime returns a RationalTime at the given rate.
func NewRationalTime(value, rate float64) RationalTime {
	return RationalTime{Value: value, Rate: rate}
}

// FromFrames returns the time of a frame number at the given rate.
func FromFrames(frame int, rate float64) RationalTime {
	return RationalTime{Value: float64(frame), Rate: rate}
}

// RescaledTo converts t to the given rate.
func (t RationalTime) RescaledTo(rate float64) RationalTime {
	if t.Rate == rate || t.Rate == 0 {
		return RationalTime{Value: t.Value, Rate: rate}
	}
	return RationalTime{Value: t.Value * rate / t.Rate, Rate: rate}
}

// Add returns t+o at t's rate.
func (t RationalTime) Add(o RationalTime) RationalTime {
	return RationalTime{Value: t.Value + o.RescaledTo(t.Rate).Value, Rate: t.Rate}
}

// Sub returns t-o at t's rate.
func (t RationalTime) Sub(o RationalTime) RationalTime {
	return RationalTime{Value: t.Value - o.RescaledTo(t.Rate).Value, Rate: t.Rate}
}

// Seconds returns t in seconds, or 0 when the rate is unset.
func (t RationalTime) Seconds() float64 {
	if t.Rate == 0 {
		return 0
	}
	return t.Value / t.Rate
}

// Frames returns the nearest whole frame at t's own rate.
func (t RationalTime) Frames() int {
	return int(math.Round(t.Value))
}

// Compare orders two times by their position in seconds.
func (t RationalTime) Compare(o RationalTime) int {
	a, b := t.Seconds(), o.Seconds()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (t RationalTime) String() string {
	return fmt.Sprintf("%s@%s", formatFloat(t.Value), formatFloat(t.Rate))
}

// TimeRange is the half-open interval [Start, Start+Duration).
type TimeRange struct {
	Start    RationalTime `json:"start"`
	Duration RationalTime `json:"duration"`
}

// NewTimeRange builds a range from a start and duration.
func NewTimeRange(start, duration RationalTime) TimeRange {
	return TimeRange{Start: start, Duration: duration}
}

// End returns the exclusive end of the range at the start's rate.
func (r TimeRange) End() RationalTime {
	return r.Start.Add(r.Duration)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s +%s)", r.Start, r.Duration)
}

// RoundRate rounds a frame rate to three decimals, the precision image headers carry.
func RoundRate(rate float64) float64 {
	return math.Round(rate*1000) / 1000
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
