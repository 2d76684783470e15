// Package google owns the OAuth token lifecycle shared by the calendar and
// backup sync clients: acquisition with silent-to-consent escalation,
// process-wide caching of at most one token, single-flight coalescing of
// concurrent acquisitions, and the bearer transport that authorizes every
// outgoing Google API request. It also defines the error taxonomy the sync
// clients classify remote failures against.
package google
