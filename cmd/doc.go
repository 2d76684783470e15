// Package cmd implements the command-line interface for sitecal.
//
// This package provides the following commands:
//   - auth: Run the Google OAuth consent flow and cache credentials
//   - agenda: Aggregate local records into a unified agenda view
//   - backup: Save the local snapshot to Google Drive or restore it
//   - event: Manage custom events and their Google Calendar copies
//   - version: Display version information
//
// The agenda command is the default command when no subcommand is specified.
package cmd
