// Package store persists the application's full data snapshot as one JSON
// file. The snapshot is also the unit of cloud backup: unknown keys from
// other parts of the host export are preserved verbatim so a backup
// round trip loses nothing this tool does not model.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yhlin/sitecal/internal/agenda"
)

// Snapshot is the host's full data export. The typed collections are what
// the aggregator and sync clients read; Extra carries every other top-level
// key untouched.
type Snapshot struct {
	Projects     []agenda.Project
	Leaves       []agenda.LeaveRequest
	Visits       []agenda.SiteVisit
	CustomEvents []agenda.CustomEvent
	Members      []agenda.TeamMember

	// CloudSyncTimestamp is stamped by the backup client at save time,
	// RFC 3339.
	CloudSyncTimestamp string

	// Extra holds top-level keys this tool does not model.
	Extra map[string]json.RawMessage
}

// knownKeys maps snapshot JSON keys to their typed fields. Kept in one place
// so Marshal and Unmarshal cannot drift apart.
const (
	keyProjects      = "projects"
	keyLeaves        = "approvalRequests"
	keyVisits        = "leads"
	keyCustomEvents  = "calendarEvents"
	keyMembers       = "teamMembers"
	keySyncTimestamp = "cloudSyncTimestamp"
)

// Sources converts the snapshot into the aggregator's input collections.
func (s *Snapshot) Sources() agenda.Sources {
	return agenda.Sources{
		Projects: s.Projects,
		Leaves:   s.Leaves,
		Visits:   s.Visits,
		Custom:   s.CustomEvents,
		Members:  s.Members,
	}
}

// MarshalJSON emits the typed collections alongside the preserved unknown
// keys. Typed fields win on key collisions.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Extra)+6)
	for k, v := range s.Extra {
		out[k] = v
	}

	put := func(key string, v interface{}) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		out[key] = raw
		return nil
	}

	if err := put(keyProjects, s.Projects); err != nil {
		return nil, err
	}
	if err := put(keyLeaves, s.Leaves); err != nil {
		return nil, err
	}
	if err := put(keyVisits, s.Visits); err != nil {
		return nil, err
	}
	if err := put(keyCustomEvents, s.CustomEvents); err != nil {
		return nil, err
	}
	if err := put(keyMembers, s.Members); err != nil {
		return nil, err
	}
	if s.CloudSyncTimestamp != "" {
		if err := put(keySyncTimestamp, s.CloudSyncTimestamp); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

// UnmarshalJSON splits known keys into their typed fields and keeps the rest
// in Extra.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(key string, dst interface{}) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		return json.Unmarshal(v, dst)
	}

	if err := take(keyProjects, &s.Projects); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", keyProjects, err)
	}
	if err := take(keyLeaves, &s.Leaves); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", keyLeaves, err)
	}
	if err := take(keyVisits, &s.Visits); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", keyVisits, err)
	}
	if err := take(keyCustomEvents, &s.CustomEvents); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", keyCustomEvents, err)
	}
	if err := take(keyMembers, &s.Members); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", keyMembers, err)
	}
	if err := take(keySyncTimestamp, &s.CloudSyncTimestamp); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", keySyncTimestamp, err)
	}

	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

// SetExternalID records the remote calendar id on a custom event after a
// successful upsert. Passing "" clears the correlation.
func (s *Snapshot) SetExternalID(eventID, externalID string) bool {
	for i := range s.CustomEvents {
		if s.CustomEvents[i].ID == eventID {
			s.CustomEvents[i].ExternalID = externalID
			return true
		}
	}
	return false
}

// Storage reads and writes the snapshot file. A mutex serializes access so
// concurrent commands cannot interleave partial writes.
type Storage struct {
	path string
	mu   sync.Mutex
}

// NewStorage creates a Storage for the given snapshot file path.
func NewStorage(path string) *Storage {
	return &Storage{path: path}
}

// Path returns the snapshot file location.
func (s *Storage) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file yields an empty snapshot rather
// than an error so first runs work without setup.
func (s *Storage) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snap, nil
}

// Save writes the snapshot, creating the directory on first use.
func (s *Storage) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
