// Package model defines the entities owned by the persistence layer:
// datasets, the geographic sector hierarchy, schools, immunization records,
// and cached summaries.
package model

import "time"

// FieldsMap translates canonical field names to the source field names a
// particular dataset release uses. An empty source name means the canonical
// field has no override and raw keys pass through unchanged.
type FieldsMap map[string]string

// Dataset identifies one versioned release from the upstream portal.
//
// Sourced is only ever set true after every entry of the release has been
// resolved into entities and its summaries cached; a failed run leaves it
// false.
type Dataset struct {
	ID         int64      `json:"id"`
	UID        string     `json:"uid"`
	FieldsMap  FieldsMap  `json:"fields_map"`
	Sourced    bool       `json:"sourced"`
	QueuedDate *time.Time `json:"queued_date,omitempty"`
}
