package detect

import (
	"regexp"
	"time"
)

// Default tuning values. These are heuristics observed against real agent
// sessions, not derived constants; per-agent tables and config overrides
// both take precedence.
const (
	DefaultIdleTimeout        = 4 * time.Second
	DefaultDoneToWorkingBytes = 200
	DefaultDebounce           = 300 * time.Millisecond
	DefaultSpinnerWindow      = 2 * time.Second

	// doneExpiry is how long a lane stays in done before decaying to idle.
	doneExpiry = 5 * time.Minute
)

// Patterns is the immutable per-agent classification table.
type Patterns struct {
	// Waiting patterns indicate the agent is blocked on user input
	// (permission prompt, y/n question). First match wins.
	Waiting []*regexp.Regexp

	// Error patterns indicate a failure condition.
	Error []*regexp.Regexp

	// Working patterns recognize animated thinking indicators. A single
	// match is not enough: the matched value must differ between two
	// temporally-close chunks to confirm a live animation rather than a
	// static leftover frame.
	Working []*regexp.Regexp

	// IdleTimeout is how long working tolerates silence before
	// degrading to done.
	IdleTimeout time.Duration

	// DoneToWorkingBytes is the sustained-output threshold required to
	// leave done for working without flapping on keystroke echoes.
	DoneToWorkingBytes int

	// Debounce is the window used to absorb short output bursts while
	// in done before re-checking DoneToWorkingBytes.
	Debounce time.Duration

	// SpinnerWindow is the maximum gap between two differing spinner
	// frames for the animation to count as live.
	SpinnerWindow time.Duration
}

// Tuning holds per-agent overrides for the numeric pattern constants.
// Zero values leave the agent's defaults in place.
type Tuning struct {
	IdleTimeout        time.Duration
	DoneToWorkingBytes int
	Debounce           time.Duration
	SpinnerWindow      time.Duration
}

// withTuning returns a copy of p with non-zero overrides applied.
func (p Patterns) withTuning(t Tuning) Patterns {
	if t.IdleTimeout > 0 {
		p.IdleTimeout = t.IdleTimeout
	}
	if t.DoneToWorkingBytes > 0 {
		p.DoneToWorkingBytes = t.DoneToWorkingBytes
	}
	if t.Debounce > 0 {
		p.Debounce = t.Debounce
	}
	if t.SpinnerWindow > 0 {
		p.SpinnerWindow = t.SpinnerWindow
	}
	return p
}

// matchWaiting returns true if any waiting pattern matches. Patterns are
// ordered; the first match decides.
func (p Patterns) matchWaiting(text string) bool {
	for _, re := range p.Waiting {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// matchError returns true if any error pattern matches.
func (p Patterns) matchError(text string) bool {
	for _, re := range p.Error {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// matchWorking returns the first working-indicator match and its position,
// or ok=false when nothing matches.
func (p Patterns) matchWorking(text string) (value string, pos int, ok bool) {
	for _, re := range p.Working {
		loc := re.FindStringIndex(text)
		if loc != nil {
			return text[loc[0]:loc[1]], loc[0], true
		}
	}
	return "", 0, false
}
