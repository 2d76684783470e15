package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yhlin/sitecal/internal/google"
	"github.com/yhlin/sitecal/internal/instrumentation"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Run the Google OAuth consent flow and cache credentials",
		Long: `Authorize sitecal against your Google account. The granted token is
cached on disk and reused by the backup and event commands until it is
revoked or expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			provider, cleanup, err := setupTelemetry(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			manager, err := newTokenManager()
			if err != nil {
				return err
			}

			_, err = manager.AcquireToken(ctx, google.PromptConsent)
			if err != nil {
				provider.Metrics().RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
				return fmt.Errorf("authorization failed: %w", err)
			}
			provider.Metrics().RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)

			fmt.Println("Authorization successful. Credentials cached.")
			return nil
		},
	}
}
