package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yhlin/sitecal/internal/agenda"
	"github.com/yhlin/sitecal/internal/gcal"
	"github.com/yhlin/sitecal/internal/instrumentation"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Manage custom events and their Google Calendar copies",
	}
	cmd.AddCommand(newEventAddCmd())
	cmd.AddCommand(newEventPushCmd())
	cmd.AddCommand(newEventDeleteCmd())
	return cmd
}

func newCalendarClient(ctx context.Context, provider *instrumentation.Provider) (*gcal.Client, error) {
	manager, err := newTokenManager()
	if err != nil {
		return nil, err
	}
	return gcal.NewClient(ctx, manager, gcal.Config{
		CalendarID: viper.GetString("calendar_id"),
		Metrics:    provider.Metrics(),
	})
}

func newEventAddCmd() *cobra.Command {
	var title, description, startDate, endDate, createdBy string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a custom event in the local snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := agenda.ParseDate(startDate); !ok {
				return fmt.Errorf("invalid --start date %q", startDate)
			}
			if endDate == "" {
				endDate = startDate
			}
			if _, ok := agenda.ParseDate(endDate); !ok {
				return fmt.Errorf("invalid --end date %q", endDate)
			}

			storage := openStorage()
			snap, err := storage.Load()
			if err != nil {
				return fmt.Errorf("failed to load local data: %w", err)
			}

			ev := agenda.CustomEvent{
				ID:          uuid.NewString(),
				Title:       title,
				Description: description,
				StartDate:   startDate,
				EndDate:     endDate,
				CreatedBy:   createdBy,
			}
			snap.CustomEvents = append(snap.CustomEvents, ev)

			if err := storage.Save(snap); err != nil {
				return fmt.Errorf("failed to write local data: %w", err)
			}

			fmt.Printf("Event %s created.\n", ev.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Event title")
	cmd.Flags().StringVar(&description, "description", "", "Event description")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (2006-01-02 or RFC3339)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date, defaults to the start date")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "Member ID of the creator")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func newEventPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push [event-id...]",
		Short: "Push custom events to Google Calendar",
		Long: `Push custom events to Google Calendar. Events without a remote copy are
created; events with one are updated. Without arguments every custom event
is pushed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			provider, cleanup, err := setupTelemetry(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			storage := openStorage()
			snap, err := storage.Load()
			if err != nil {
				return fmt.Errorf("failed to load local data: %w", err)
			}

			selected := snap.CustomEvents
			if len(args) > 0 {
				selected = nil
				wanted := make(map[string]bool, len(args))
				for _, id := range args {
					wanted[id] = true
				}
				for _, ev := range snap.CustomEvents {
					if wanted[ev.ID] {
						selected = append(selected, ev)
						delete(wanted, ev.ID)
					}
				}
				for id := range wanted {
					return fmt.Errorf("no custom event with ID %s", id)
				}
			}
			if len(selected) == 0 {
				fmt.Println("No custom events to push.")
				return nil
			}

			client, err := newCalendarClient(ctx, provider)
			if err != nil {
				return err
			}

			var pushErr error
			for _, ev := range selected {
				externalID, err := client.Upsert(ctx, ev)
				if err != nil {
					pushErr = err
					fmt.Printf("Event %s failed: %v\n", ev.ID, err)
					continue
				}
				if externalID != ev.ExternalID {
					snap.SetExternalID(ev.ID, externalID)
				}
				fmt.Printf("Event %s pushed as %s\n", ev.ID, externalID)
			}

			if err := storage.Save(snap); err != nil {
				return fmt.Errorf("failed to write local data: %w", err)
			}
			return pushErr
		},
	}
}

func newEventDeleteCmd() *cobra.Command {
	var keepLocal bool

	cmd := &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete a custom event and its Google Calendar copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			eventID := args[0]

			provider, cleanup, err := setupTelemetry(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			storage := openStorage()
			snap, err := storage.Load()
			if err != nil {
				return fmt.Errorf("failed to load local data: %w", err)
			}

			idx := -1
			for i, ev := range snap.CustomEvents {
				if ev.ID == eventID {
					idx = i
					break
				}
			}
			if idx == -1 {
				return fmt.Errorf("no custom event with ID %s", eventID)
			}

			if externalID := snap.CustomEvents[idx].ExternalID; externalID != "" {
				client, err := newCalendarClient(ctx, provider)
				if err != nil {
					return err
				}
				if err := client.Delete(ctx, externalID); err != nil {
					return fmt.Errorf("failed to delete remote copy: %w", err)
				}
			}

			if keepLocal {
				snap.SetExternalID(eventID, "")
			} else {
				snap.CustomEvents = append(snap.CustomEvents[:idx], snap.CustomEvents[idx+1:]...)
			}

			if err := storage.Save(snap); err != nil {
				return fmt.Errorf("failed to write local data: %w", err)
			}

			fmt.Printf("Event %s deleted.\n", eventID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepLocal, "keep-local", false, "Remove only the Google Calendar copy")

	return cmd
}
