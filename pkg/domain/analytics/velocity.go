// Package analytics forecasts when a plan will be finished from the pace
// at which its tasks are being completed.
package analytics

import (
	"math"
	"time"
)

// TrendDirection indicates the direction of velocity change over time.
type TrendDirection string

const (
	TrendAccelerating TrendDirection = "accelerating"
	TrendDecelerating TrendDirection = "decelerating"
	TrendStable       TrendDirection = "stable"
)

// DefaultWindows are the lookback windows in days, shortest first.
var DefaultWindows = []int{7, 14, 28}

// trendThreshold is the relative change between the shortest and longest
// window that counts as a trend.
const trendThreshold = 0.1

// VelocityWindow is the completion rate over the last Days days.
type VelocityWindow struct {
	Days     int     `json:"days"`
	Velocity float64 `json:"velocity"` // tasks per day
	Count    int     `json:"count"`
}

// VelocityTrend compares recent velocity against the longer-term rate.
type VelocityTrend struct {
	Direction  TrendDirection   `json:"direction"`
	Slope      float64          `json:"slope"`
	Confidence float64          `json:"confidence"` // 0..1
	Windows    []VelocityWindow `json:"windows"`
}

// ConfidenceInterval holds low, expected and high estimates in days.
type ConfidenceInterval struct {
	Low      float64 `json:"low"`
	Expected float64 `json:"expected"`
	High     float64 `json:"high"`
}

func (ci ConfidenceInterval) Range() float64 {
	return ci.High - ci.Low
}

// ForecastResult projects the remaining work of a plan.
type ForecastResult struct {
	RemainingTasks int                `json:"remaining_tasks"`
	CompletedTasks int                `json:"completed_tasks"`
	TotalTasks     int                `json:"total_tasks"`
	Velocity       float64            `json:"velocity"`
	EstimatedDays  float64            `json:"estimated_days"`
	Interval       ConfidenceInterval `json:"interval"`
	Trend          VelocityTrend      `json:"trend"`
	// FinishDate is zero when there is no pace to project from or nothing
	// remains.
	FinishDate time.Time `json:"finish_date,omitempty"`
}

// OnTrack reports whether the projected finish is no later than end.
// A plan with nothing remaining is on track.
func (f ForecastResult) OnTrack(end time.Time) bool {
	if f.RemainingTasks == 0 {
		return true
	}
	return !f.FinishDate.IsZero() && !f.FinishDate.After(end)
}

// Windows counts completions inside each window ending on today,
// inclusive. Completion times are compared by date.
func Windows(completions []time.Time, today time.Time, days ...int) []VelocityWindow {
	if len(days) == 0 {
		days = DefaultWindows
	}
	today = dateOf(today)
	out := make([]VelocityWindow, len(days))
	for i, d := range days {
		cutoff := today.AddDate(0, 0, -(d - 1))
		count := 0
		for _, c := range completions {
			day := dateOf(c)
			if !day.Before(cutoff) && !day.After(today) {
				count++
			}
		}
		out[i] = VelocityWindow{Days: d, Velocity: float64(count) / float64(d), Count: count}
	}
	return out
}

// Trend compares the shortest window against the longest.
func Trend(windows []VelocityWindow) VelocityTrend {
	trend := VelocityTrend{Direction: TrendStable, Windows: windows}
	if len(windows) < 2 {
		return trend
	}

	short := windows[0].Velocity
	long := windows[len(windows)-1].Velocity
	switch {
	case long > 0:
		trend.Slope = (short - long) / long
	case short > 0:
		trend.Slope = 1
	default:
		return trend
	}

	switch {
	case trend.Slope > trendThreshold:
		trend.Direction = TrendAccelerating
	case trend.Slope < -trendThreshold:
		trend.Direction = TrendDecelerating
	}
	trend.Confidence = confidence(windows)
	return trend
}

// confidence grows with the amount of data and shrinks with the spread
// of velocities across windows.
func confidence(windows []VelocityWindow) float64 {
	total := 0
	mean := 0.0
	for _, w := range windows {
		total += w.Count
		mean += w.Velocity
	}
	mean /= float64(len(windows))

	data := math.Min(math.Log10(float64(total+1))/2, 1)
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, w := range windows {
		variance += (w.Velocity - mean) * (w.Velocity - mean)
	}
	cv := math.Sqrt(variance/float64(len(windows))) / mean
	consistency := math.Max(0, 1-cv)
	return math.Round(data*consistency*100) / 100
}

// Forecast projects the finish date of remaining tasks from the recent
// completion pace.
func Forecast(completions []time.Time, remaining, total int, today time.Time) ForecastResult {
	trend := Trend(Windows(completions, today))
	res := ForecastResult{
		RemainingTasks: remaining,
		CompletedTasks: len(completions),
		TotalTasks:     total,
		Trend:          trend,
	}
	if len(trend.Windows) > 0 {
		res.Velocity = trend.Windows[0].Velocity
	}
	if res.Velocity <= 0 || remaining == 0 {
		return res
	}

	res.EstimatedDays = float64(remaining) / res.Velocity
	res.Interval = interval(res.EstimatedDays, trend)
	res.FinishDate = dateOf(today).AddDate(0, 0, int(math.Ceil(res.EstimatedDays)))
	return res
}

func interval(expected float64, trend VelocityTrend) ConfidenceInterval {
	var low, high float64
	switch trend.Direction {
	case TrendAccelerating:
		low, high = expected*0.7, expected*1.2
	case TrendDecelerating:
		low, high = expected*0.9, expected*1.8
	default:
		low, high = expected*0.8, expected*1.3
	}
	if trend.Confidence < 0.5 {
		low *= 0.8
		high *= 1.5
	}
	return ConfidenceInterval{Low: low, Expected: expected, High: high}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
