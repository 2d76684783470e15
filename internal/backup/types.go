package backup

import (
	"time"

	drive "google.golang.org/api/drive/v3"
)

// Descriptor identifies the remote backup file.
type Descriptor struct {
	ID           string
	Name         string
	ModifiedTime time.Time
}

func toDescriptor(f *drive.File) *Descriptor {
	d := &Descriptor{
		ID:   f.Id,
		Name: f.Name,
	}
	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			d.ModifiedTime = t
		}
	}
	return d
}
