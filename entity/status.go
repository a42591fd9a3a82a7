package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the check-in state of a pass. The two states are reachable from each
// other in both directions so staff can undo a mistaken scan.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRegistered Status = "registered"
)

const (
	labelPending    = "pending entry"
	labelRegistered = "entry registered"
)

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return labelPending
	case StatusRegistered:
		return labelRegistered
	}
	return string(s)
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusRegistered
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Label())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus accepts both the short code and the display label.
func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(StatusPending), labelPending:
		return StatusPending, nil
	case string(StatusRegistered), labelRegistered:
		return StatusRegistered, nil
	}
	return "", fmt.Errorf("unknown status %q", value)
}
