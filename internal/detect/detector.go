package detect

import (
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// Detector is the per-lane status state machine. It consumes text chunks,
// buffer snapshots, and user-input notifications, and reports transitions
// through a single status-change callback.
//
// Timer callbacks fire on their own goroutines, so every mutation path
// takes the detector mutex; within a lock hold the state machine runs to
// completion, preserving the no-interleaved-mutation invariant.
type Detector struct {
	mu       sync.Mutex
	log      zerolog.Logger
	clk      clock.Clock
	patterns Patterns
	precheck Precheck
	inert    bool

	status   Status
	onChange func(Status)

	// done→working debounce
	pendingBytes  int
	debounceTimer *clock.Timer

	// spinner animation tracking
	lastSpinner    string
	lastSpinnerPos int
	lastSpinnerAt  time.Time

	// waiting_input stickiness
	userTyped bool

	idleTimer *clock.Timer
	doneTimer *clock.Timer

	lastSnapshot string
}

// NewDetector creates a detector for the given agent type. Tuning overrides
// zeroed fields fall back to the agent's defaults.
func NewDetector(agentType string, tuning Tuning, clk clock.Clock, log zerolog.Logger) *Detector {
	spec, ok := agentSpecs[strings.ToLower(agentType)]
	if !ok {
		spec = agentSpecs[AgentShell]
	}
	return &Detector{
		log:      log,
		clk:      clk,
		patterns: spec.patterns.withTuning(tuning),
		precheck: spec.precheck,
		inert:    spec.inert,
		status:   StatusIdle,
	}
}

// SetOnChange registers the status-change callback. The callback fires
// synchronously from whichever call performed the transition.
func (d *Detector) SetOnChange(fn func(Status)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// Status returns the current status.
func (d *Detector) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// FeedChunk classifies one chunk of streamed output.
func (d *Detector) FeedChunk(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.inert || text == "" {
		return
	}

	// Agent-specific structural signals trump pattern classification.
	if d.precheck != nil {
		if st, ok := d.precheck(text); ok {
			d.applyStructural(st)
			return
		}
	}

	stripped := StripANSI(text)

	// A matched prompt means the agent really is still waiting, no matter
	// what the user typed in the meantime.
	if d.patterns.matchWaiting(stripped) {
		d.enterWaiting()
		return
	}

	if d.patterns.matchError(stripped) {
		d.enterError()
		return
	}

	if d.confirmAnimation(stripped) {
		d.enterWorking()
		return
	}

	// waiting_input is sticky: raw output is ignored until user input
	// arrived, because TUI agents redraw the pending prompt continuously.
	if d.status == StatusWaiting {
		if d.userTyped {
			d.userTyped = false
			d.enterWorking()
		}
		return
	}

	if d.status == StatusDone {
		d.accumulatePending(len(text))
		return
	}

	// No recovery out of error on unclassified output; the next waiting,
	// error, or confirmed-working match supersedes it instead.
	if d.status == StatusError {
		return
	}

	d.enterWorking()
}

// FeedSnapshot classifies a full-screen buffer snapshot. Snapshots are
// static, so only the waiting and error checks apply; a single frame can
// never confirm an animation.
func (d *Detector) FeedSnapshot(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.inert || text == "" || text == d.lastSnapshot {
		return
	}
	d.lastSnapshot = text

	stripped := StripANSI(text)
	if d.patterns.matchWaiting(stripped) {
		d.enterWaiting()
		return
	}
	if d.patterns.matchError(stripped) {
		d.enterError()
	}
}

// FeedUserInput records that the user typed while the agent was waiting.
// The transition to working happens only once a later chunk confirms the
// agent produced non-prompt output; many TUI agents re-render the stale
// prompt on the frame right after the keystroke echo.
func (d *Detector) FeedUserInput(_ string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.status == StatusWaiting {
		d.userTyped = true
	}
}

// ForceWaiting moves the lane to waiting_input on the word of a structural
// hook event, bypassing pattern classification entirely.
func (d *Detector) ForceWaiting() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.inert {
		return
	}
	d.enterWaiting()
}

// Reset returns the detector to idle and clears all timers and counters.
// The status-change callback is preserved and fires for the transition.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

// Dispose resets the detector and drops the callback. A disposed detector
// never fires again.
func (d *Detector) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = nil
	d.reset()
}

// reset clears all mutable state. Caller holds the lock.
func (d *Detector) reset() {
	d.stopIdleTimer()
	d.stopDoneTimer()
	d.stopDebounce()
	d.pendingBytes = 0
	d.userTyped = false
	d.lastSpinner = ""
	d.lastSpinnerAt = time.Time{}
	d.lastSnapshot = ""
	d.transitionTo(StatusIdle)
}

// applyStructural handles a precheck-classified status. Caller holds the lock.
func (d *Detector) applyStructural(st Status) {
	switch st {
	case StatusWaiting:
		d.enterWaiting()
	case StatusError:
		d.enterError()
	case StatusWorking:
		d.enterWorking()
	default:
		d.transitionTo(st)
	}
}

// enterWaiting cancels superseded timers, clears the typed flag, and
// transitions to waiting_input. Caller holds the lock.
func (d *Detector) enterWaiting() {
	d.stopDebounce()
	d.stopIdleTimer()
	d.pendingBytes = 0
	d.userTyped = false
	d.transitionTo(StatusWaiting)
}

// enterError mirrors enterWaiting for the error state. The idle timer is
// deliberately not restarted: error has no timeout-based recovery.
func (d *Detector) enterError() {
	d.stopDebounce()
	d.stopIdleTimer()
	d.pendingBytes = 0
	d.userTyped = false
	d.transitionTo(StatusError)
}

// enterWorking transitions to working and (re)arms the idle timer. Caller
// holds the lock.
func (d *Detector) enterWorking() {
	d.stopDebounce()
	d.stopDoneTimer()
	d.pendingBytes = 0
	d.transitionTo(StatusWorking)
	d.restartIdleTimer()
}

// confirmAnimation reports whether this chunk completes a live spinner
// animation: the same screen position showing a different glyph than the
// previous sighting, within the spinner window. Caller holds the lock.
func (d *Detector) confirmAnimation(stripped string) bool {
	value, pos, ok := d.patterns.matchWorking(stripped)
	if !ok {
		return false
	}

	now := d.clk.Now()
	confirmed := d.lastSpinner != "" &&
		d.lastSpinner != value &&
		d.lastSpinnerPos == pos &&
		now.Sub(d.lastSpinnerAt) <= d.patterns.SpinnerWindow

	d.lastSpinner = value
	d.lastSpinnerPos = pos
	d.lastSpinnerAt = now
	return confirmed
}

// accumulatePending handles output received while in done. Short bursts
// are debounced so keystroke echoes do not flap the lane back to working;
// sustained output beyond the threshold transitions immediately. Caller
// holds the lock.
func (d *Detector) accumulatePending(n int) {
	d.pendingBytes += n

	if d.pendingBytes >= d.patterns.DoneToWorkingBytes {
		d.enterWorking()
		return
	}

	if d.debounceTimer == nil {
		d.debounceTimer = d.clk.AfterFunc(d.patterns.Debounce, d.onDebounceExpired)
	}
}

// onDebounceExpired re-checks the accumulated byte count once the debounce
// window closes. The counter resets regardless of the outcome.
func (d *Detector) onDebounceExpired() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.debounceTimer = nil
	reached := d.pendingBytes >= d.patterns.DoneToWorkingBytes
	d.pendingBytes = 0

	if d.status == StatusDone && reached {
		d.enterWorking()
	}
}

// onIdleTimeout fires when working has seen no output for IdleTimeout.
func (d *Detector) onIdleTimeout() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.idleTimer = nil
	if d.status != StatusWorking {
		return
	}
	d.transitionTo(StatusDone)
	d.stopDoneTimer()
	d.doneTimer = d.clk.AfterFunc(doneExpiry, d.onDoneExpired)
}

// onDoneExpired decays a long-quiet done lane back to idle.
func (d *Detector) onDoneExpired() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.doneTimer = nil
	if d.status == StatusDone {
		d.transitionTo(StatusIdle)
	}
}

func (d *Detector) restartIdleTimer() {
	d.stopIdleTimer()
	d.idleTimer = d.clk.AfterFunc(d.patterns.IdleTimeout, d.onIdleTimeout)
}

func (d *Detector) stopIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
}

func (d *Detector) stopDoneTimer() {
	if d.doneTimer != nil {
		d.doneTimer.Stop()
		d.doneTimer = nil
	}
}

func (d *Detector) stopDebounce() {
	if d.debounceTimer != nil {
		d.debounceTimer.Stop()
		d.debounceTimer = nil
	}
}

// transitionTo is the sole path to the status-change callback. Idempotent:
// re-entering the current status is a no-op and fires nothing. Caller
// holds the lock.
func (d *Detector) transitionTo(s Status) {
	if s == d.status {
		return
	}

	d.log.Debug().
		Str("from", string(d.status)).
		Str("to", string(s)).
		Msg("status transition")

	d.status = s
	if d.onChange != nil {
		d.onChange(s)
	}
}
