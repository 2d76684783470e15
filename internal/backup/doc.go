// Package backup replicates the local data snapshot to a single JSON file in
// the user's Google Drive.
//
// One reserved file name holds the backup. Save finds the existing file and
// overwrites it in place, or creates it on first use, so the Drive never
// accumulates more than one backup copy. Every save stamps the snapshot with
// the sync time before upload, so the stored copy records when it was taken.
//
// Load downloads and decodes the remote snapshot. A missing backup is not an
// error; callers get a nil snapshot. A backup that exists but does not decode
// surfaces ErrParseFailure so callers can distinguish corruption from absence.
package backup
