package utils

import (
	"time"

	_ "time/tzdata"
)

var istLoc = loadIST()

func loadIST() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// ISTLoc returns the India Standard Time location.
func ISTLoc() *time.Location {
	return istLoc
}

func NowIST() time.Time {
	return time.Now().In(istLoc)
}

// DateTime returns a string like "22 Oct 2025, 16:40:05" (in IST).
func DateTime(t time.Time) string {
	return t.In(istLoc).Format("02 Jan 2006, 15:04:05")
}

// TimeHHMMSS is the chart axis label.
func TimeHHMMSS(t time.Time) string {
	return t.In(istLoc).Format("15:04:05")
}

// ParseHHMM parses "HH:MM" and returns minutes since midnight.
func ParseHHMM(hhmm string) (int, bool) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if hhmm[i] < '0' || hhmm[i] > '9' {
			return 0, false
		}
	}
	hh := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	mm := int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')
	if hh > 23 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}

// InQuietHours checks if a given minute-of-day is within [start, end).
// start == end means no quiet hours. Ranges may cross midnight, e.g. 22:00 -> 08:00.
func InQuietHours(minuteOfDay int, start int, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return minuteOfDay >= start && minuteOfDay < end
	}
	return minuteOfDay >= start || minuteOfDay < end
}

// MinuteOfDay is t's minutes since IST midnight.
func MinuteOfDay(t time.Time) int {
	t = t.In(istLoc)
	return t.Hour()*60 + t.Minute()
}
