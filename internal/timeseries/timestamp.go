package timeseries

import (
	"fmt"
	"strings"
	"time"
)

// Simulation timestamps carry no year; day arithmetic uses a fixed non-leap year.
const referenceYear = 2001

// NormalizeTimestamp converts a simulation timestamp such as "01/21 24:00:00"
// into canonical "MM/DD HH:MM:SS" form. Hour 24 denotes midnight of the next
// day and is rolled over to hour 0 of the following date.
func NormalizeTimestamp(ts string) (string, error) {
	fields := strings.Fields(ts)
	if len(fields) != 2 {
		return "", fmt.Errorf("timestamp %q: want \"MM/DD HH:MM:SS\"", ts)
	}
	var month, day, hour, minute, second int
	if _, err := fmt.Sscanf(fields[0], "%d/%d", &month, &day); err != nil {
		return "", fmt.Errorf("timestamp %q: date: %w", ts, err)
	}
	if _, err := fmt.Sscanf(fields[1], "%d:%d:%d", &hour, &minute, &second); err != nil {
		return "", fmt.Errorf("timestamp %q: time: %w", ts, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 24 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return "", fmt.Errorf("timestamp %q: out of range", ts)
	}
	if day > daysIn(time.Month(month)) {
		return "", fmt.Errorf("timestamp %q: %s has no day %d", ts, time.Month(month), day)
	}

	extraDays := 0
	if hour == 24 {
		hour = 0
		extraDays = 1
	}
	t := time.Date(referenceYear, time.Month(month), day+extraDays, hour, minute, second, 0, time.UTC)
	return t.Format("01/02 15:04:05"), nil
}

func daysIn(m time.Month) int {
	return time.Date(referenceYear, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func segmentTitle(timestamps []string) string {
	if len(timestamps) == 0 {
		return ""
	}
	first, last := timestamps[0], timestamps[len(timestamps)-1]
	if n, err := NormalizeTimestamp(first); err == nil {
		first = n
	}
	if n, err := NormalizeTimestamp(last); err == nil {
		last = n
	}
	return first + " - " + last
}
