package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yhlin/sitecal/internal/backup"
	"github.com/yhlin/sitecal/internal/instrumentation"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Save the local snapshot to Google Drive or restore it",
	}
	cmd.AddCommand(newBackupSaveCmd())
	cmd.AddCommand(newBackupLoadCmd())
	cmd.AddCommand(newBackupStatusCmd())
	return cmd
}

func newBackupClient(ctx context.Context, provider *instrumentation.Provider) (*backup.Client, error) {
	manager, err := newTokenManager()
	if err != nil {
		return nil, err
	}
	return backup.NewClient(ctx, manager, backup.Config{
		Metrics: provider.Metrics(),
	})
}

func newBackupSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Upload the local snapshot to Google Drive",
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

			client, err := newBackupClient(ctx, provider)
			if err != nil {
				return err
			}

			stamp, err := client.Save(ctx, snap)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			// Persist the stamp locally so both copies agree on the sync time.
			if err := storage.Save(snap); err != nil {
				return fmt.Errorf("backup uploaded but local stamp not saved: %w", err)
			}

			fmt.Printf("Backup saved to Google Drive at %s\n", stamp)
			return nil
		},
	}
}

func newBackupLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Restore the local snapshot from Google Drive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			provider, cleanup, err := setupTelemetry(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			client, err := newBackupClient(ctx, provider)
			if err != nil {
				return err
			}

			snap, err := client.Load(ctx)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}
			if snap == nil {
				fmt.Println("No backup found in Google Drive.")
				return nil
			}

			if err := openStorage().Save(snap); err != nil {
				return fmt.Errorf("failed to write local data: %w", err)
			}

			fmt.Printf("Backup from %s restored.\n", snap.CloudSyncTimestamp)
			return nil
		},
	}
}

func newBackupStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a backup exists in Google Drive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			provider, cleanup, err := setupTelemetry(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			client, err := newBackupClient(ctx, provider)
			if err != nil {
				return err
			}

			desc, err := client.Find(ctx)
			if err != nil {
				return err
			}
			if desc == nil {
				fmt.Println("No backup found in Google Drive.")
				return nil
			}

			fmt.Printf("Backup %s last modified %s\n", desc.Name, desc.ModifiedTime.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
