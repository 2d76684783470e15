// Package gcal pushes locally created custom events to Google Calendar.
//
// The client keeps the remote calendar reconciled with local state:
//   - Upsert creates a remote event when the local record carries no external
//     ID, and updates the existing remote event otherwise. An update against
//     an event that was deleted remotely recreates it and returns the new ID.
//   - Delete removes the remote event; a remote 404 is treated as success
//     since the desired end state already holds.
//
// A 401 from the API invalidates the cached OAuth token, renews it, and
// retries the operation exactly once. Any other API failure leaves local
// state untouched and surfaces as a typed error.
package gcal
