package gcal

import (
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/yhlin/sitecal/internal/agenda"
)

// toAPIEvent converts a local custom event into a Calendar API event body.
// Date-only values become all-day events; timestamped values become timed
// events in UTC.
func toAPIEvent(ev agenda.CustomEvent) (*calendar.Event, error) {
	start, ok := agenda.ParseDate(ev.StartDate)
	if !ok {
		return nil, fmt.Errorf("event %s has unparseable start date %q", ev.ID, ev.StartDate)
	}
	end, ok := agenda.ParseDate(ev.EndDate)
	if !ok {
		end = start
	}
	if end.Before(start) {
		return nil, fmt.Errorf("event %s ends before it starts", ev.ID)
	}

	body := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
	}

	if isDateOnly(ev.StartDate) {
		// The Calendar API treats the all-day end date as exclusive.
		body.Start = &calendar.EventDateTime{Date: start.Format("2006-01-02")}
		body.End = &calendar.EventDateTime{Date: end.AddDate(0, 0, 1).Format("2006-01-02")}
		return body, nil
	}

	body.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"}
	body.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: "UTC"}
	return body, nil
}

// isDateOnly reports whether the host date string carries no time component.
func isDateOnly(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
