package extract

import "time"

// Day-type and hour-band buckets used by the time correlation engine. Hours
// use the timestamp's local wall clock; no timezone normalization beyond that.
const (
	DayWeekend = "weekend"
	DayWeekday = "weekday"

	BandMorning   = "morning"   // 5-12
	BandAfternoon = "afternoon" // 12-17
	BandEvening   = "evening"   // 17-21
	BandNight     = "night"     // 21-5
)

// DayType classifies a timestamp as weekend or weekday.
func DayType(t time.Time) string {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return DayWeekend
	default:
		return DayWeekday
	}
}

// HourBand classifies a timestamp's wall-clock hour into a time-of-day band.
func HourBand(t time.Time) string {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 12:
		return BandMorning
	case hour >= 12 && hour < 17:
		return BandAfternoon
	case hour >= 17 && hour < 21:
		return BandEvening
	default:
		return BandNight
	}
}

// IsLateNight reports whether a timestamp falls in the late-night risk window
// used by the burnout scorer's overwork factor (23:00-04:59).
func IsLateNight(t time.Time) bool {
	hour := t.Hour()
	return hour >= 23 || hour < 5
}
