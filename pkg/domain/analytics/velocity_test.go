package analytics

import (
	"math"
	"testing"
	"time"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestWindows(t *testing.T) {
	today := day(t, "2026-03-28")
	completions := []time.Time{
		day(t, "2026-03-28").Add(15 * time.Hour),
		day(t, "2026-03-22"),
		day(t, "2026-03-21"), // outside the 7 day window
		day(t, "2026-03-01"),
		day(t, "2026-02-28"), // outside every window
		day(t, "2026-03-29"), // future
	}

	w := Windows(completions, today)
	want := []int{2, 3, 4}
	for i, n := range want {
		if w[i].Count != n {
			t.Errorf("window %dd: count %d, want %d", w[i].Days, w[i].Count, n)
		}
	}
	if math.Abs(w[0].Velocity-2.0/7) > 1e-9 {
		t.Errorf("unexpected velocity %f", w[0].Velocity)
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name    string
		windows []VelocityWindow
		want    TrendDirection
	}{
		{"accelerating", []VelocityWindow{{Days: 7, Velocity: 1, Count: 7}, {Days: 28, Velocity: 0.5, Count: 14}}, TrendAccelerating},
		{"decelerating", []VelocityWindow{{Days: 7, Velocity: 0.2, Count: 1}, {Days: 28, Velocity: 0.5, Count: 14}}, TrendDecelerating},
		{"stable", []VelocityWindow{{Days: 7, Velocity: 0.5, Count: 4}, {Days: 28, Velocity: 0.52, Count: 15}}, TrendStable},
		{"no data", []VelocityWindow{{Days: 7}, {Days: 28}}, TrendStable},
		{"single window", []VelocityWindow{{Days: 7, Velocity: 1, Count: 7}}, TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trend(tt.windows)
			if got.Direction != tt.want {
				t.Errorf("direction = %s, want %s (slope %f)", got.Direction, tt.want, got.Slope)
			}
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("confidence out of range: %f", got.Confidence)
			}
		})
	}
}

func TestForecast(t *testing.T) {
	today := day(t, "2026-03-10")
	var completions []time.Time
	for i := 0; i < 7; i++ {
		completions = append(completions, today.AddDate(0, 0, -i))
	}

	f := Forecast(completions, 14, 30, today)
	if f.Velocity != 1 {
		t.Fatalf("expected 1 task/day, got %f", f.Velocity)
	}
	if f.EstimatedDays != 14 {
		t.Errorf("expected 14 days, got %f", f.EstimatedDays)
	}
	if !f.FinishDate.Equal(day(t, "2026-03-24")) {
		t.Errorf("unexpected finish date %v", f.FinishDate)
	}
	if f.Interval.Low >= f.Interval.Expected || f.Interval.High <= f.Interval.Expected {
		t.Errorf("interval should bracket the estimate: %+v", f.Interval)
	}
	if !f.OnTrack(day(t, "2026-03-31")) || f.OnTrack(day(t, "2026-03-20")) {
		t.Error("unexpected on-track result")
	}
}

func TestForecast_NoPace(t *testing.T) {
	f := Forecast(nil, 10, 10, day(t, "2026-03-10"))
	if !f.FinishDate.IsZero() || f.EstimatedDays != 0 {
		t.Errorf("expected no projection, got %+v", f)
	}
	if f.OnTrack(day(t, "2026-12-31")) {
		t.Error("a plan with no pace is not on track")
	}
	if !Forecast(nil, 0, 10, day(t, "2026-03-10")).OnTrack(day(t, "2026-03-01")) {
		t.Error("a plan with nothing remaining is on track")
	}
}

func TestConfidenceInterval_Range(t *testing.T) {
	ci := ConfidenceInterval{Low: 4, Expected: 5, High: 9}
	if ci.Range() != 5 {
		t.Errorf("expected range 5, got %f", ci.Range())
	}
}
