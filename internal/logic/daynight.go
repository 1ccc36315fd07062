package logic

// Context selects a playlist and a volume baseline.
type Context string

const (
	Night Context = "night"
	Day   Context = "day"
)

// IsDay reports whether hour falls in [dayStart, nightStart).
func IsDay(hour, dayStart, nightStart int) bool {
	return dayStart <= hour && hour < nightStart
}

// ContextAt returns Day or Night for the given hour.
func ContextAt(hour, dayStart, nightStart int) Context {
	if IsDay(hour, dayStart, nightStart) {
		return Day
	}
	return Night
}
