package engine

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"
	_ "time/tzdata" // zones must resolve on hosts without a zoneinfo database

	"github.com/tartampluch/chronos-ics/internal/config"
)

var ordinalSuffix = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)

// DateLayouts lists the accepted date layouts in priority order.
var DateLayouts = []string{
	config.DateLayoutComma,
	config.DateLayoutNoComma,
}

// Normalizer turns date and time text into instants of a fixed timezone.
type Normalizer struct {
	Location *time.Location
	Logger   *slog.Logger
}

// NewNormalizer loads the named IANA zone once for the whole run.
func NewNormalizer(tz string, logger *slog.Logger) (*Normalizer, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrUnknownTimezone, tz, err)
	}
	return &Normalizer{Location: loc, Logger: logger}, nil
}

// StripOrdinals removes English ordinal suffixes from day numbers ("1st" -> "1").
func StripOrdinals(date string) string {
	return ordinalSuffix.ReplaceAllString(date, "${1}")
}

// Normalize parses "<date> <time>" as wall-clock time in n.Location.
//
// The first layout of DateLayouts that parses wins. On failure the returned
// *NormalizeError holds the original strings and the failure is logged.
func (n *Normalizer) Normalize(dateText, timeText string) (time.Time, error) {
	combined := StripOrdinals(dateText) + " " + timeText

	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout+" "+config.TimeLayout, combined, n.Location); err == nil {
			return t, nil
		}
	}

	err := &NormalizeError{Date: dateText, Time: timeText}
	logger(n.Logger).Error(config.MsgNormalizeFail,
		config.LogKeyComponent, config.CompNormalizer,
		config.LogKeyDate, dateText,
		config.LogKeyTime, timeText,
		config.LogKeyTimezone, n.Location.String(),
		config.LogKeyError, err,
	)
	return time.Time{}, err
}
