package agenda

import (
	"fmt"
	"time"
)

// defaultProjectSpan is assumed when a project has a start date but no end
// date yet.
const defaultProjectSpan = 30 * 24 * time.Hour

// visitDuration is the fixed length of a site visit appointment.
const visitDuration = time.Hour

// dateLayouts are tried in order when parsing record dates. Host snapshots
// mix full timestamps and bare dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses a record date in any of the host formats. The second
// return value is false when the string is empty or unparseable.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dayEnd normalizes a timestamp to 23:59:59 of the same day so all-day
// spans render through their final day.
func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// Aggregate merges every source collection into one event sequence under the
// given filters and viewer. Records with missing or unparseable dates are
// skipped individually; the pass itself never fails. Output order is
// category order, then source iteration order.
func Aggregate(sources Sources, filters Filters, viewer Viewer) []Event {
	var events []Event

	if filters.Projects {
		for i := range sources.Projects {
			if ev, ok := projectEvent(&sources.Projects[i], filters, viewer); ok {
				events = append(events, ev)
			}
		}
	}

	if filters.Payments {
		for i := range sources.Projects {
			events = append(events, paymentEvents(&sources.Projects[i], filters, viewer)...)
		}
	}

	if filters.Dispatches {
		for i := range sources.Projects {
			events = append(events, dispatchEvents(&sources.Projects[i], filters, viewer)...)
		}
	}

	if filters.Leaves {
		for i := range sources.Leaves {
			if ev, ok := leaveEvent(&sources.Leaves[i], sources.Members, filters, viewer); ok {
				events = append(events, ev)
			}
		}
	}

	if filters.Visits {
		for i := range sources.Visits {
			if ev, ok := visitEvent(&sources.Visits[i]); ok {
				events = append(events, ev)
			}
		}
	}

	if filters.Custom {
		for i := range sources.Custom {
			if ev, ok := customEvent(&sources.Custom[i], filters, viewer); ok {
				events = append(events, ev)
			}
		}
	}

	return events
}

// viewerManages reports whether the viewer is one of the project's manager,
// quotation manager, or engineering manager. Manager fields store names, but
// some older records carry ids, so both viewer identifiers are checked.
func viewerManages(p *Project, viewer Viewer) bool {
	for _, m := range []string{p.Manager, p.QuotationManager, p.EngineeringManager} {
		if m == "" {
			continue
		}
		if (viewer.Name != "" && m == viewer.Name) || (viewer.ID != "" && m == viewer.ID) {
			return true
		}
	}
	return false
}

func projectEvent(p *Project, filters Filters, viewer Viewer) (Event, bool) {
	start, ok := ParseDate(p.StartDate)
	if !ok {
		return Event{}, false
	}
	if earlyStageStatuses[p.Status] {
		return Event{}, false
	}
	if p.HideInCalendar && !filters.ShowHidden {
		return Event{}, false
	}
	if filters.OnlyMine && !viewerManages(p, viewer) {
		return Event{}, false
	}

	end, ok := ParseDate(p.EndDate)
	if !ok || end.Before(start) {
		end = start.Add(defaultProjectSpan)
	}

	return Event{
		ID:       "project-" + p.ID,
		Title:    p.Name,
		Start:    start,
		End:      dayEnd(end),
		AllDay:   true,
		Category: CategoryProject,
		Color:    ColorProject,
		Source:   ProjectSource{Project: p},
	}, true
}

func paymentEvents(p *Project, filters Filters, viewer Viewer) []Event {
	if filters.OnlyMine && !viewerManages(p, viewer) {
		return nil
	}

	var events []Event
	for i := range p.Payments {
		stage := &p.Payments[i]
		date, ok := ParseDate(stage.Date)
		if !ok {
			continue
		}
		color := ColorPaymentDue
		if stage.Status == PaymentStatusPaid {
			color = ColorPaymentOK
		}
		title := p.Name
		if stage.Label != "" {
			title = fmt.Sprintf("%s · %s", p.Name, stage.Label)
		}
		events = append(events, Event{
			ID:       fmt.Sprintf("payment-%s-%s", p.ID, stage.ID),
			Title:    title,
			Start:    date,
			End:      dayEnd(date),
			AllDay:   true,
			Category: CategoryPayment,
			Color:    color,
			Source:   PaymentSource{Project: p, Stage: stage},
		})
	}
	return events
}

func dispatchEvents(p *Project, filters Filters, viewer Viewer) []Event {
	var events []Event
	for i := range p.Assignments {
		a := &p.Assignments[i]
		date, ok := ParseDate(a.Date)
		if !ok {
			continue
		}
		if filters.OnlyMine {
			assigned := (viewer.ID != "" && a.MemberID == viewer.ID) ||
				(viewer.Name != "" && a.MemberName == viewer.Name)
			if !assigned {
				continue
			}
		}
		title := a.MemberName
		if title == "" {
			title = a.MemberID
		}
		events = append(events, Event{
			ID:       fmt.Sprintf("dispatch-%s-%s", p.ID, a.ID),
			Title:    fmt.Sprintf("%s · %s", title, p.Name),
			Start:    date,
			End:      dayEnd(date),
			AllDay:   true,
			Category: CategoryDispatch,
			Color:    ColorDispatch,
			Source:   DispatchSource{Project: p, Assignment: a},
		})
	}
	return events
}

func leaveEvent(req *LeaveRequest, members []TeamMember, filters Filters, viewer Viewer) (Event, bool) {
	if req.Status != StatusApproved || req.TemplateID != LeaveTemplateID {
		return Event{}, false
	}
	start, ok := ParseDate(req.StartDate)
	if !ok {
		return Event{}, false
	}
	end, ok := ParseDate(req.EndDate)
	if !ok || end.Before(start) {
		return Event{}, false
	}
	if filters.OnlyMine && req.RequesterID != viewer.ID {
		return Event{}, false
	}

	name := req.RequesterName
	for _, m := range members {
		if m.ID == req.RequesterID {
			name = m.Name
			break
		}
	}
	if name == "" {
		name = req.RequesterID
	}

	kind := req.LeaveType
	if kind == "" {
		kind = "請假"
	}

	return Event{
		ID:       "leave-" + req.ID,
		Title:    fmt.Sprintf("%s: %s", kind, name),
		Start:    start,
		End:      dayEnd(end),
		AllDay:   true,
		Category: CategoryLeave,
		Color:    ColorLeave,
		Source:   LeaveSource{Request: req},
	}, true
}

func visitEvent(v *SiteVisit) (Event, bool) {
	start, ok := ParseDate(v.Timestamp)
	if !ok {
		return Event{}, false
	}
	return Event{
		ID:       "visit-" + v.ID,
		Title:    fmt.Sprintf("會勘: %s", v.CustomerName),
		Start:    start,
		End:      start.Add(visitDuration),
		AllDay:   false,
		Category: CategoryVisit,
		Color:    ColorVisit,
		Source:   VisitSource{Visit: v},
	}, true
}

func customEvent(ce *CustomEvent, filters Filters, viewer Viewer) (Event, bool) {
	start, ok := ParseDate(ce.StartDate)
	if !ok {
		return Event{}, false
	}
	end, ok := ParseDate(ce.EndDate)
	if !ok || end.Before(start) {
		return Event{}, false
	}
	if filters.OnlyMine && ce.CreatedBy != viewer.ID {
		return Event{}, false
	}
	return Event{
		ID:       "custom-" + ce.ID,
		Title:    ce.Title,
		Start:    start,
		End:      end,
		AllDay:   false,
		Category: CategoryCustom,
		Color:    ColorCustom,
		Source:   CustomSource{Event: ce},
	}, true
}
