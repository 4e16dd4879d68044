package engine

import "time"

// ParsedAppointment holds the four raw fields extracted from one appointment line.
// Values are the exact substrings of the line; nothing is normalized yet.
type ParsedAppointment struct {
	Summary   string
	DateText  string
	StartText string
	EndText   string
}

// CalendarEvent is a fully normalized appointment, ready to become a VEVENT.
type CalendarEvent struct {
	Summary string

	// Start / End carry the configured timezone (wall clock as written in the input).
	Start time.Time
	End   time.Time

	// CreatedAt is the DTSTAMP, always UTC.
	CreatedAt time.Time

	// UID is unique within a run and across runs (it embeds a per-run nonce).
	UID string
}

// Stats summarizes one conversion run.
type Stats struct {
	Lines           int // lines read, blank ones included
	Blank           int
	Parsed          int
	SkippedParse    int
	SkippedDateTime int
	Inverted        int // events whose end precedes their start, whatever the policy did
	Rejected        int // inverted events dropped by the reject policy
	Events          int
}
