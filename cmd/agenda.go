package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yhlin/sitecal/internal/agenda"
	"github.com/yhlin/sitecal/internal/instrumentation"
	"github.com/yhlin/sitecal/internal/logging"
)

func newAgendaCmd() *cobra.Command {
	filters := agenda.DefaultFilters()
	var viewerID, viewerName string

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Aggregate local records into a unified agenda view",
		Long: `Merge projects, payment stages, work dispatches, approved leaves, site
visits, and custom events from the local snapshot into one chronological
agenda. Category flags switch whole categories off; --only-mine keeps only
entries belonging to the configured viewer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			provider, cleanup, err := setupTelemetry(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := openStorage().Load()
			if err != nil {
				return fmt.Errorf("failed to load local data: %w", err)
			}

			viewer := agenda.Viewer{ID: viewerID, Name: viewerName}

			ctx, span := instrumentation.StartSpan(ctx, "agenda.aggregate")
			events := agenda.Aggregate(snap.Sources(), filters, viewer)
			span.End()

			recordAggregation(ctx, provider.Metrics(), events)

			sort.SliceStable(events, func(i, j int) bool {
				return events[i].Start.Before(events[j].Start)
			})

			if len(events) == 0 {
				fmt.Println("No events.")
				return nil
			}
			for _, ev := range events {
				fmt.Println(formatEvent(ev))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&filters.Projects, "projects", filters.Projects, "Include project duration events")
	cmd.Flags().BoolVar(&filters.Payments, "payments", filters.Payments, "Include payment stage events")
	cmd.Flags().BoolVar(&filters.Dispatches, "dispatches", filters.Dispatches, "Include work dispatch events")
	cmd.Flags().BoolVar(&filters.Leaves, "leaves", filters.Leaves, "Include approved leave events")
	cmd.Flags().BoolVar(&filters.Visits, "visits", filters.Visits, "Include site visit events")
	cmd.Flags().BoolVar(&filters.Custom, "custom", filters.Custom, "Include custom events")
	cmd.Flags().BoolVar(&filters.ShowHidden, "show-hidden", false, "Include projects marked hidden")
	cmd.Flags().BoolVar(&filters.OnlyMine, "only-mine", false, "Only show entries belonging to the viewer")
	cmd.Flags().StringVar(&viewerID, "viewer-id", "", "Viewer member ID for --only-mine")
	cmd.Flags().StringVar(&viewerName, "viewer-name", "", "Viewer name for --only-mine")

	return cmd
}

func recordAggregation(ctx context.Context, m *instrumentation.Metrics, events []agenda.Event) {
	counts := make(map[agenda.Category]int64)
	for _, ev := range events {
		counts[ev.Category]++
	}
	for category, n := range counts {
		m.RecordEventsAggregated(ctx, string(category), n)
		slog.Debug("aggregated events",
			logging.Category(string(category)),
			slog.Int64("count", n))
	}
}

// formatEvent renders one agenda line.
func formatEvent(ev agenda.Event) string {
	const dateOnly = "2006-01-02"
	const dateTime = "2006-01-02 15:04"

	var span string
	if ev.AllDay {
		if ev.Start.Format(dateOnly) == ev.End.Format(dateOnly) {
			span = ev.Start.Format(dateOnly)
		} else {
			span = ev.Start.Format(dateOnly) + " ~ " + ev.End.Format(dateOnly)
		}
	} else {
		span = ev.Start.Format(dateTime) + " ~ " + ev.End.Format("15:04")
	}
	return fmt.Sprintf("%-33s [%s] %s", span, ev.Category, ev.Title)
}
