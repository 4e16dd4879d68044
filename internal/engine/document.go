package engine

import (
	"bytes"
	"fmt"
	"io"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/chronos-ics/internal/config"
)

// Document is the ordered set of events of one run plus the fixed calendar metadata.
type Document struct {
	ProdID string
	Events []CalendarEvent
}

// NewDocument creates an empty document. An empty prodID falls back to config.ICalProdid.
func NewDocument(prodID string) *Document {
	if prodID == "" {
		prodID = config.ICalProdid
	}
	return &Document{ProdID: prodID}
}

// Append adds ev after the events already present.
func (d *Document) Append(ev CalendarEvent) {
	d.Events = append(d.Events, ev)
}

// Len returns the number of events.
func (d *Document) Len() int {
	return len(d.Events)
}

// Calendar converts the document into its iCalendar representation.
func (d *Document) Calendar() *ical.Calendar {
	cal := ical.NewCalendar()

	cal.Props.SetText(config.PropProdid, d.ProdID)
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)

	for _, ev := range d.Events {
		event := ical.NewEvent()
		event.Props.SetText(config.PropSummary, ev.Summary)
		// Non-UTC locations are written as local time with a TZID parameter.
		event.Props.SetDateTime(config.PropDTStart, ev.Start)
		event.Props.SetDateTime(config.PropDTEnd, ev.End)
		event.Props.SetDateTime(config.PropDTStamp, ev.CreatedAt.UTC())
		event.Props.SetText(config.PropUID, ev.UID)
		cal.Children = append(cal.Children, event.Component)
	}
	return cal
}

// Encode writes the serialized calendar to w. Empty documents are refused
// with ErrNoEvents: a run either yields events or no document at all.
func (d *Document) Encode(w io.Writer) error {
	if d.Len() == 0 {
		return ErrNoEvents
	}
	if err := ical.NewEncoder(w).Encode(d.Calendar()); err != nil {
		return fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return nil
}

// Bytes returns the serialized calendar.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
