package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tartampluch/chronos-ics/internal/config"
)

// Assembler turns normalized appointments into CalendarEvents.
//
// It owns the per-run success counter that makes UIDs unique within a run;
// RunID makes them unique across runs. An Assembler serves one run only.
type Assembler struct {
	Clock  Clock
	RunID  string
	Domain string
	// Policy decides what happens to events ending before they start:
	// config.InvertedPass, config.InvertedReject or config.InvertedSwap.
	Policy string
	Logger *slog.Logger

	count int
}

// ValidatePolicy reports whether p names a known inverted range policy.
func ValidatePolicy(p string) error {
	switch p {
	case config.InvertedPass, config.InvertedReject, config.InvertedSwap:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvertedPolicy, p)
	}
}

// Count returns the number of events assembled so far.
func (a *Assembler) Count() int {
	return a.count
}

// Assemble builds the event for appt. The counter only advances on success.
func (a *Assembler) Assemble(appt ParsedAppointment, start, end time.Time) (CalendarEvent, error) {
	log := logger(a.Logger)

	if end.Before(start) {
		log.Warn(config.MsgInvertedRange,
			config.LogKeyComponent, config.CompAssembler,
			config.LogKeySummary, appt.Summary,
			config.LogKeyStart, start,
			config.LogKeyEnd, end,
			config.LogKeyPolicy, a.Policy,
		)
		switch a.Policy {
		case config.InvertedReject:
			return CalendarEvent{}, fmt.Errorf("%w: %s %s - %s", ErrInvertedRange, appt.DateText, appt.StartText, appt.EndText)
		case config.InvertedSwap:
			start, end = end, start
		}
	}

	ev := CalendarEvent{
		Summary:   appt.Summary,
		Start:     start,
		End:       end,
		CreatedAt: a.Clock.Now().UTC(),
		UID:       a.uid(start),
	}
	a.count++

	log.Info(config.MsgEventAdded,
		config.LogKeyComponent, config.CompAssembler,
		config.LogKeySummary, ev.Summary,
		config.LogKeyStart, ev.Start,
		config.LogKeyUID, ev.UID,
	)
	return ev, nil
}

func (a *Assembler) uid(start time.Time) string {
	domain := a.Domain
	if domain == "" {
		domain = config.DefaultUIDDomain
	}
	return fmt.Sprintf(config.FormatUID, start.Format(config.UIDTimeLayout), a.count, shortRunID(a.RunID), domain)
}

// shortRunID keeps the first RunIDLength characters of a UUID-like nonce, dashes removed.
func shortRunID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > config.RunIDLength {
		return id[:config.RunIDLength]
	}
	return id
}
