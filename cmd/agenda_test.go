package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/yhlin/sitecal/internal/agenda"
)

func TestFormatEventAllDaySingleDay(t *testing.T) {
	line := formatEvent(agenda.Event{
		Title:    "驗收",
		Category: agenda.CategoryCustom,
		Start:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 4, 1, 23, 59, 59, 0, time.UTC),
		AllDay:   true,
	})

	if !strings.Contains(line, "2025-04-01") {
		t.Errorf("expected single date in %q", line)
	}
	if strings.Contains(line, "~") {
		t.Errorf("single-day event must not render a range: %q", line)
	}
	if !strings.Contains(line, "驗收") {
		t.Errorf("expected title in %q", line)
	}
}

func TestFormatEventAllDayRange(t *testing.T) {
	line := formatEvent(agenda.Event{
		Title:    "忠孝東路案",
		Category: agenda.CategoryProject,
		Start:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 4, 30, 23, 59, 59, 0, time.UTC),
		AllDay:   true,
	})

	if !strings.Contains(line, "2025-04-01 ~ 2025-04-30") {
		t.Errorf("expected date range in %q", line)
	}
}

func TestFormatEventTimed(t *testing.T) {
	line := formatEvent(agenda.Event{
		Title:    "會勘: 王先生",
		Category: agenda.CategoryVisit,
		Start:    time.Date(2025, 4, 1, 14, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 4, 1, 15, 0, 0, 0, time.UTC),
	})

	if !strings.Contains(line, "2025-04-01 14:00 ~ 15:00") {
		t.Errorf("expected timed range in %q", line)
	}
}
