package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventIDs(events []Event) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}

func TestAggregateSkipsEarlyStageProjects(t *testing.T) {
	early := []string{"洽談中", "報價中", "已報價", "待簽約", "撤案", "未成交"}

	var projects []Project
	for i, status := range early {
		projects = append(projects, Project{
			ID:        string(rune('a' + i)),
			Name:      "早期案",
			Status:    status,
			StartDate: "2025-03-01",
		})
	}
	projects = append(projects, Project{
		ID:        "active",
		Name:      "施工案",
		Status:    "施工中",
		StartDate: "2025-03-01",
		EndDate:   "2025-03-20",
	})

	events := Aggregate(Sources{Projects: projects}, DefaultFilters(), Viewer{})
	assert.Equal(t, []string{"project-active"}, eventIDs(events))
}

func TestProjectWithoutEndDateSpansThirtyDays(t *testing.T) {
	events := Aggregate(Sources{
		Projects: []Project{{ID: "p1", Name: "新案", Status: "施工中", StartDate: "2025-03-01"}},
	}, DefaultFilters(), Viewer{})

	require.Len(t, events, 1)
	ev := events[0]
	assert.True(t, ev.AllDay)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC), ev.End,
		"missing end date defaults to thirty days after the start, at day end")
}

func TestProjectEndBeforeStartFallsBackToDefaultSpan(t *testing.T) {
	events := Aggregate(Sources{
		Projects: []Project{{
			ID: "p1", Name: "亂填的案", Status: "施工中",
			StartDate: "2025-03-10", EndDate: "2025-03-01",
		}},
	}, DefaultFilters(), Viewer{})

	require.Len(t, events, 1)
	assert.True(t, events[0].End.After(events[0].Start))
}

func TestHiddenProjectsNeedShowHidden(t *testing.T) {
	sources := Sources{
		Projects: []Project{{
			ID: "p1", Name: "隱藏案", Status: "施工中",
			StartDate: "2025-03-01", HideInCalendar: true,
		}},
	}

	events := Aggregate(sources, DefaultFilters(), Viewer{})
	assert.Empty(t, events, "hidden projects stay out by default")

	filters := DefaultFilters()
	filters.ShowHidden = true
	events = Aggregate(sources, filters, Viewer{})
	assert.Equal(t, []string{"project-p1"}, eventIDs(events))
}

func TestPaymentStageEvents(t *testing.T) {
	events := Aggregate(Sources{
		Projects: []Project{{
			ID: "p1", Name: "信義案", Status: "施工中", StartDate: "2025-03-01",
			Payments: []PaymentStage{
				{ID: "s1", Label: "頭期款", Date: "2025-03-05", Status: PaymentStatusPaid},
				{ID: "s2", Label: "尾款", Date: "2025-04-05", Status: "pending"},
				{ID: "s3", Label: "沒日期"},
			},
		}},
	}, Filters{Payments: true}, Viewer{})

	require.Len(t, events, 2, "stages without a date are skipped")

	paid, due := events[0], events[1]
	assert.Equal(t, "payment-p1-s1", paid.ID)
	assert.Equal(t, "信義案 · 頭期款", paid.Title)
	assert.Equal(t, ColorPaymentOK, paid.Color)
	assert.Equal(t, ColorPaymentDue, due.Color)
	assert.Equal(t, CategoryPayment, paid.Category)
	assert.True(t, paid.AllDay)
}

func TestDispatchOnlyMineMatchesMemberIDOrName(t *testing.T) {
	sources := Sources{
		Projects: []Project{{
			ID: "p1", Name: "信義案", Status: "施工中",
			Assignments: []WorkAssignment{
				{ID: "w1", Date: "2025-03-07", MemberID: "m1", MemberName: "阿宏"},
				{ID: "w2", Date: "2025-03-08", MemberID: "m2", MemberName: "小陳"},
			},
		}},
	}
	filters := Filters{Dispatches: true, OnlyMine: true}

	byID := Aggregate(sources, filters, Viewer{ID: "m1"})
	assert.Equal(t, []string{"dispatch-p1-w1"}, eventIDs(byID))

	byName := Aggregate(sources, filters, Viewer{Name: "小陳"})
	assert.Equal(t, []string{"dispatch-p1-w2"}, eventIDs(byName))
}

func TestOnlyMineProjectScoping(t *testing.T) {
	sources := Sources{
		Projects: []Project{
			{ID: "mine", Name: "我的案", Status: "施工中", StartDate: "2025-03-01",
				EngineeringManager: "阿宏",
				Payments:           []PaymentStage{{ID: "s1", Date: "2025-03-05"}}},
			{ID: "other", Name: "別人的案", Status: "施工中", StartDate: "2025-03-01",
				Manager:  "小陳",
				Payments: []PaymentStage{{ID: "s1", Date: "2025-03-05"}}},
		},
	}
	filters := Filters{Projects: true, Payments: true, OnlyMine: true}

	events := Aggregate(sources, filters, Viewer{Name: "阿宏"})
	assert.Equal(t, []string{"project-mine", "payment-mine-s1"}, eventIDs(events),
		"payment scoping follows the owning project's managers")
}

func TestLeaveEventRules(t *testing.T) {
	members := []TeamMember{{ID: "m1", Name: "阿宏"}}
	base := LeaveRequest{
		ID: "l1", TemplateID: LeaveTemplateID, Status: StatusApproved,
		RequesterID: "m1", StartDate: "2025-03-10", EndDate: "2025-03-12",
		LeaveType: "特休",
	}

	t.Run("approved leave becomes an all-day event", func(t *testing.T) {
		events := Aggregate(Sources{Leaves: []LeaveRequest{base}, Members: members},
			Filters{Leaves: true}, Viewer{})
		require.Len(t, events, 1)
		assert.Equal(t, "leave-l1", events[0].ID)
		assert.Equal(t, "特休: 阿宏", events[0].Title, "requester name resolves via the member list")
		assert.Equal(t, time.Date(2025, 3, 12, 23, 59, 59, 0, time.UTC), events[0].End)
	})

	t.Run("pending or foreign requests are skipped", func(t *testing.T) {
		pending := base
		pending.Status = "pending"
		otherTemplate := base
		otherTemplate.TemplateID = "TPL-EXPENSE"

		events := Aggregate(Sources{Leaves: []LeaveRequest{pending, otherTemplate}, Members: members},
			Filters{Leaves: true}, Viewer{})
		assert.Empty(t, events)
	})

	t.Run("missing leave type falls back to a generic label", func(t *testing.T) {
		generic := base
		generic.LeaveType = ""
		generic.RequesterID = "unknown"
		generic.RequesterName = ""

		events := Aggregate(Sources{Leaves: []LeaveRequest{generic}, Members: members},
			Filters{Leaves: true}, Viewer{})
		require.Len(t, events, 1)
		assert.Equal(t, "請假: unknown", events[0].Title)
	})

	t.Run("end before start is skipped", func(t *testing.T) {
		inverted := base
		inverted.EndDate = "2025-03-01"

		events := Aggregate(Sources{Leaves: []LeaveRequest{inverted}, Members: members},
			Filters{Leaves: true}, Viewer{})
		assert.Empty(t, events)
	})
}

func TestVisitBecomesOneHourTimedEvent(t *testing.T) {
	events := Aggregate(Sources{
		Visits: []SiteVisit{{ID: "v1", CustomerName: "王先生", Timestamp: "2025-03-10T14:00:00Z"}},
	}, Filters{Visits: true}, Viewer{})

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "visit-v1", ev.ID)
	assert.Equal(t, "會勘: 王先生", ev.Title)
	assert.False(t, ev.AllDay)
	assert.Equal(t, time.Hour, ev.End.Sub(ev.Start))
}

func TestCustomEventRules(t *testing.T) {
	sources := Sources{
		Custom: []CustomEvent{
			{ID: "c1", Title: "下午茶", StartDate: "2025-03-10T15:00:00Z", EndDate: "2025-03-10T16:00:00Z", CreatedBy: "m1"},
			{ID: "c2", Title: "倒著填", StartDate: "2025-03-10", EndDate: "2025-03-01"},
			{ID: "c3", Title: "沒日期"},
		},
	}

	events := Aggregate(sources, Filters{Custom: true}, Viewer{})
	assert.Equal(t, []string{"custom-c1"}, eventIDs(events),
		"invalid ranges and missing dates are skipped")

	events = Aggregate(sources, Filters{Custom: true, OnlyMine: true}, Viewer{ID: "m2"})
	assert.Empty(t, events, "only-mine keeps only the viewer's own custom events")
}

func TestAllFiltersOffYieldsNothing(t *testing.T) {
	sources := Sources{
		Projects: []Project{{ID: "p1", Name: "案", Status: "施工中", StartDate: "2025-03-01"}},
		Visits:   []SiteVisit{{ID: "v1", Timestamp: "2025-03-10T14:00:00Z"}},
	}

	events := Aggregate(sources, Filters{}, Viewer{})
	assert.Empty(t, events)
}

func TestAggregateIsPure(t *testing.T) {
	sources := Sources{
		Projects: []Project{{ID: "p1", Name: "案", Status: "施工中", StartDate: "2025-03-01"}},
	}
	filters := DefaultFilters()

	first := Aggregate(sources, filters, Viewer{})
	second := Aggregate(sources, filters, Viewer{})
	assert.Equal(t, eventIDs(first), eventIDs(second))
}

func TestParseDateLayouts(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2025-03-10", true, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"2025-03-10T14:30:00Z", true, time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)},
		{"2025-03-10T14:30:00", true, time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)},
		{"", false, time.Time{}},
		{"10/03/2025", false, time.Time{}},
	}

	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.True(t, got.Equal(tt.want), "input %q parsed to %v", tt.in, got)
		}
	}
}
