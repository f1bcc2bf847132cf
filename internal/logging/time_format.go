package logging

import "time"

// Console stamps carry milliseconds so log lines can be matched against
// recording offsets and exported window bounds.
const logTimestampLayout = "2006-01-02 15:04:05.000"

// JSON stamps are UTC with fixed millisecond precision.
const jsonTimestampLayout = "2006-01-02T15:04:05.000Z"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(logTimestampLayout)
}

func formatJSONTimestamp(ts time.Time) string {
	return ts.UTC().Format(jsonTimestampLayout)
}

// formatDuration renders stage timings and stream offsets to the millisecond.
func formatDuration(d time.Duration) string {
	if d > time.Second || d < -time.Second {
		d = d.Round(time.Millisecond)
	}
	return d.String()
}
