package services

import "time"

// DailyDateLayout is the calendar-day format used to seed the daily pick.
const DailyDateLayout = "2006-01-02"

// DailyDate returns the UTC calendar date of t.
func DailyDate(t time.Time) string {
	return t.UTC().Format(DailyDateLayout)
}

// DailyHash is a 31-multiplier rolling hash over the bytes of s with
// 32-bit signed wraparound.
func DailyHash(s string) int32 {
	var hash int32
	for i := 0; i < len(s); i++ {
		hash = hash*31 + int32(s[i])
	}
	return hash
}

// DailyID maps a date string to an id in [1, catalogSize].
func DailyID(date string, catalogSize int) int {
	rem := int(DailyHash(date)) % catalogSize
	if rem < 0 {
		rem = -rem
	}
	return rem + 1
}
