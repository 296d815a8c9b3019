// Package detect classifies the status of AI agent terminal sessions.
//
// There is no structural signal from an interactive agent process, so
// classification is heuristic: pattern matching over ANSI-stripped output,
// idle timeouts, debounced transitions, and spinner animation detection.
// A structural hook channel, when present, overrides all of it.
package detect

import "time"

// Status represents the inferred state of an agent session.
type Status string

const (
	StatusIdle    Status = "idle"          // no agent activity
	StatusWorking Status = "working"       // agent is producing output
	StatusWaiting Status = "waiting_input" // agent is blocked on user input
	StatusDone    Status = "done"          // agent finished, output went quiet
	StatusError   Status = "error"         // output matched an error pattern
)

// Change is emitted on every status transition of a lane.
type Change struct {
	LaneID    string
	Previous  Status
	New       Status
	AgentType string
	At        time.Time
}
