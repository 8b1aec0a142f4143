package audiograph

import (
	"fmt"
	"time"
)

// TimeRange is a half-open interval [Start, Start+Duration) of audio time.
type TimeRange struct {
	Start    time.Duration
	Duration time.Duration
}

// Range returns a range that starts at start and lasts duration.
func Range(start, duration time.Duration) TimeRange {
	return TimeRange{Start: start, Duration: duration}
}

// End returns the exclusive end of the range.
func (r TimeRange) End() time.Duration {
	return r.Start + r.Duration
}

// IsEmpty reports if range has no duration.
func (r TimeRange) IsEmpty() bool {
	return r.Duration <= 0
}

// Shift returns the same range moved by d.
func (r TimeRange) Shift(d time.Duration) TimeRange {
	return TimeRange{Start: r.Start + d, Duration: r.Duration}
}

// Contains reports if t is within the range.
func (r TimeRange) Contains(t time.Duration) bool {
	return t >= r.Start && t < r.End()
}

// Intersect returns overlap of two ranges. Empty range is returned if they
// don't overlap.
func (r TimeRange) Intersect(o TimeRange) TimeRange {
	start := max(r.Start, o.Start)
	end := min(r.End(), o.End())
	if end <= start {
		return TimeRange{Start: start}
	}
	return TimeRange{Start: start, Duration: end - start}
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%v, %v)", r.Start, r.End())
}

// SamplesOf returns number of samples that duration d takes at sampleRate.
// Result is rounded to the nearest sample.
func SamplesOf(d time.Duration, sampleRate int) int {
	if d <= 0 {
		return 0
	}
	whole, rest := int64(d/time.Second), int64(d%time.Second)
	return int(whole*int64(sampleRate) + (rest*int64(sampleRate)+int64(time.Second)/2)/int64(time.Second))
}

// DurationOf returns duration of n samples at sampleRate.
func DurationOf(n, sampleRate int) time.Duration {
	whole, rest := int64(n)/int64(sampleRate), int64(n)%int64(sampleRate)
	return time.Duration(whole)*time.Second + time.Duration(rest*int64(time.Second)/int64(sampleRate))
}
