// Package agenda merges the heterogeneous operational records of the host
// application (projects, payment stages, work assignments, leave requests,
// site visits, custom events) into one normalized calendar timeline.
//
// Aggregation is a pure transformation: it performs no I/O, never fails as a
// whole, and silently skips individual records whose dates are missing or
// unparseable. Category filters and the "only mine" viewer scope are applied
// during the pass; chronological sorting is left to the presentation layer.
package agenda
