package model

import (
	"fmt"
)

// Status is the publication state of a content item. Only published items
// are visible to non-admin callers.
type Status int

// Constants for Status
const (
	StatusDraft Status = iota
	StatusPublished
	StatusArchived
)

// String returns the canonical string representation for the status.
func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPublished:
		return "published"
	case StatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// Valid reports whether the status is one of the defined constants.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the status as a JSON string.
func (s Status) MarshalJSON() ([]byte, error) {
	// Unknown maps to "unknown" to avoid failing marshaling; consumers should validate.
	return []byte("\"" + s.String() + "\""), nil
}

// UnmarshalJSON decodes the status from a JSON string.
func (s *Status) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("status must be a JSON string")
	}
	ps, err := ParseStatus(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*s = ps
	return nil
}

// ParseStatus converts a string to a Status, returning an error for invalid values.
func ParseStatus(v string) (Status, error) {
	switch v {
	case "draft":
		return StatusDraft, nil
	case "published":
		return StatusPublished, nil
	case "archived":
		return StatusArchived, nil
	}
	return 0, fmt.Errorf("invalid status: %s", v)
}
