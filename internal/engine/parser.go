package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tartampluch/chronos-ics/internal/config"
)

// summarySeparator ends the summary. The first occurrence wins, so summaries
// cannot themselves contain ", ".
const summarySeparator = ", "

// appointmentTail matches everything after the summary:
//
//	<Month> <Day>[st|nd|rd|th], <Year>, <H:MM AM|PM> - <H:MM AM|PM>
var appointmentTail = regexp.MustCompile(
	`^(\w+ \d{1,2}(?:st|nd|rd|th)?, \d{4}), (\d{1,2}:\d{2} [AP]M) - (\d{1,2}:\d{2} [AP]M)$`,
)

// Parser extracts appointment fields from single lines of text.
type Parser struct {
	Logger *slog.Logger
}

// NewParser returns a Parser logging through logger (slog.Default() when nil).
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{Logger: logger}
}

// Parse splits one line into a ParsedAppointment.
//
// The line is trimmed first (a UTF-8 BOM is dropped too). Anything that does
// not match the grammar yields an error wrapping ErrLineMismatch; the failure
// is also logged as a warning carrying the offending line.
func (p *Parser) Parse(line string) (ParsedAppointment, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))

	appt, ok := matchAppointment(trimmed)
	if !ok {
		logger(p.Logger).Warn(config.MsgParseFailed,
			config.LogKeyComponent, config.CompParser,
			config.LogKeyLine, trimmed,
		)
		return ParsedAppointment{}, fmt.Errorf("%w: %q", ErrLineMismatch, trimmed)
	}
	return appt, nil
}

func matchAppointment(line string) (ParsedAppointment, bool) {
	summary, rest, found := strings.Cut(line, summarySeparator)
	if !found || summary == "" {
		return ParsedAppointment{}, false
	}

	m := appointmentTail.FindStringSubmatch(rest)
	if m == nil {
		return ParsedAppointment{}, false
	}

	return ParsedAppointment{
		Summary:   summary,
		DateText:  m[1],
		StartText: m[2],
		EndText:   m[3],
	}, true
}

// logger returns l, or the process default when l is nil.
func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
