package notifications

import (
	"fmt"
	"strings"
	"time"
)

// Alert describes a highlight that crossed the notification threshold.
type Alert struct {
	Rank           int
	WindowIndex    int
	Score          float64
	Threshold      float64
	Start          time.Duration
	End            time.Duration
	Room           string
	Streamer       string
	StreamTitle    string
	ClickbaitTitle string
	Excerpt        string
}

// Message renders the alert as a markdown notification.
func (a Alert) Message() Message {
	name := valueOr(a.Streamer, "Unknown")

	var b strings.Builder
	b.WriteString("### High Score Alert\n\n")
	fmt.Fprintf(&b, "**Rank:** %d (window %d)\n", a.Rank, a.WindowIndex)
	fmt.Fprintf(&b, "**Score:** %.2f (Threshold: %.2f)\n", a.Score, a.Threshold)
	fmt.Fprintf(&b, "**Time Range:** %s - %s\n", FormatClock(a.Start), FormatClock(a.End))
	fmt.Fprintf(&b, "**Room ID:** %s\n", valueOr(a.Room, "Unknown"))
	fmt.Fprintf(&b, "**Name:** %s\n", name)
	fmt.Fprintf(&b, "**Title:** %s\n\n", valueOr(a.StreamTitle, "Unknown"))
	if title := strings.TrimSpace(a.ClickbaitTitle); title != "" {
		fmt.Fprintf(&b, "**Clickbait Title:** %s\n\n", title)
	}
	fmt.Fprintf(&b, "**Content:**\n%s\n", valueOr(a.Excerpt, "Not Available"))

	return Message{
		Title:    "High Score Alert: " + name,
		Body:     b.String(),
		Tags:     []string{"highlighter", "highlight"},
		Priority: "high",
	}
}

// FormatClock renders d as HH:MM:SS.mmm.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func valueOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
