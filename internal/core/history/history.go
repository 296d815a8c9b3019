// Package history defines status transition history domain types and interfaces.
package history

import (
	"fmt"
	"time"

	"github.com/hay-kot/lanewatch/internal/detect"
)

// Entry represents one recorded lane status transition.
type Entry struct {
	ID        string        `json:"id"`
	LaneID    string        `json:"lane_id"`
	AgentType string        `json:"agent_type"`
	Previous  detect.Status `json:"previous"`
	New       detect.Status `json:"new"`
	Timestamp time.Time     `json:"timestamp"`
}

// IsError returns true if the transition entered the error status.
func (e *Entry) IsError() bool {
	return e.New == detect.StatusError
}

// String returns a compact human-readable form of the transition.
func (e *Entry) String() string {
	return fmt.Sprintf("%s: %s -> %s", e.LaneID, e.Previous, e.New)
}
