package detect

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// Hook event types delivered by the structural side channel. Hooks are
// higher-confidence than heuristic inference and are trusted unconditionally.
const (
	HookPermissionPrompt = "permission_prompt"
	HookIdlePrompt       = "idle_prompt"
	HookWaitingForInput  = "waiting_for_input"
)

// HookEvent is a structurally-certain status signal for one lane.
type HookEvent struct {
	LaneID    string `json:"lane_id"`
	EventType string `json:"event_type"`
	AgentType string `json:"agent_type"`
}

// Registry owns one detector per registered lane and is the single
// integration point between raw PTY byte streams and status consumers.
// All per-lane operations are no-ops on unknown lane ids.
type Registry struct {
	log     zerolog.Logger
	clk     clock.Clock
	tunings map[string]Tuning

	mu    sync.RWMutex
	lanes map[string]*lane

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int

	statusMu sync.RWMutex
	statuses map[string]Status
	changed  map[string]time.Time
}

// lane wraps one detector plus bookkeeping.
type lane struct {
	detector  *Detector
	agentType string
	decoder   *streamDecoder
}

// NewRegistry creates a lane registry. tunings maps agent types to config
// overrides and may be nil.
func NewRegistry(log zerolog.Logger, clk clock.Clock, tunings map[string]Tuning) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		log:      log,
		clk:      clk,
		tunings:  tunings,
		lanes:    make(map[string]*lane),
		subs:     make(map[int]func(Change)),
		statuses: make(map[string]Status),
		changed:  make(map[string]time.Time),
	}
}

// RegisterLane installs a fresh detector for the lane. Any pre-existing
// detector is fully disposed first so its timers cannot leak across an
// agent-type change on the same lane.
func (r *Registry) RegisterLane(id, agentType string) {
	r.mu.Lock()
	if old, ok := r.lanes[id]; ok {
		old.detector.Dispose()
	}

	det := NewDetector(agentType, r.tunings[agentType], r.clk,
		r.log.With().Str("lane", id).Str("agent", agentType).Logger())
	det.SetOnChange(func(s Status) {
		r.publish(id, agentType, s)
	})

	r.lanes[id] = &lane{
		detector:  det,
		agentType: agentType,
		decoder:   newStreamDecoder(),
	}
	r.mu.Unlock()

	r.statusMu.Lock()
	r.statuses[id] = StatusIdle
	r.changed[id] = r.clk.Now()
	r.statusMu.Unlock()

	r.log.Debug().Str("lane", id).Str("agent", agentType).Msg("lane registered")
}

// UnregisterLane disposes the lane's detector and removes all bookkeeping.
func (r *Registry) UnregisterLane(id string) {
	r.mu.Lock()
	ln, ok := r.lanes[id]
	if ok {
		ln.detector.Dispose()
		delete(r.lanes, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.statusMu.Lock()
	delete(r.statuses, id)
	delete(r.changed, id)
	r.statusMu.Unlock()
}

// FeedOutput decodes raw process bytes and forwards them to the lane's
// detector. Partial multi-byte characters are buffered until complete.
func (r *Registry) FeedOutput(id string, raw []byte) {
	ln := r.lane(id)
	if ln == nil {
		return
	}
	if text := ln.decoder.Decode(raw); text != "" {
		ln.detector.FeedChunk(text)
	}
}

// FeedUserInput notifies the lane's detector that the user typed.
func (r *Registry) FeedUserInput(id, text string) {
	if ln := r.lane(id); ln != nil {
		ln.detector.FeedUserInput(text)
	}
}

// FeedSnapshot forwards a periodic full-screen snapshot to the detector.
func (r *Registry) FeedSnapshot(id, text string) {
	if ln := r.lane(id); ln != nil {
		ln.detector.FeedSnapshot(text)
	}
}

// MarkExited resets the lane to idle. Process exit always means no agent
// is running, whatever the heuristic state said.
func (r *Registry) MarkExited(id string) {
	if ln := r.lane(id); ln != nil {
		ln.detector.Reset()
	}
}

// HandleHook applies a structural hook event, forcing the lane straight to
// waiting_input through the same change-notification path as a heuristic
// transition. Unknown event types are ignored.
func (r *Registry) HandleHook(ev HookEvent) {
	switch ev.EventType {
	case HookPermissionPrompt, HookIdlePrompt, HookWaitingForInput:
	default:
		r.log.Debug().Str("event", ev.EventType).Msg("ignoring unknown hook event")
		return
	}

	if ln := r.lane(ev.LaneID); ln != nil {
		ln.detector.ForceWaiting()
	}
}

// Status returns the current status for a lane.
func (r *Registry) Status(id string) (Status, bool) {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	s, ok := r.statuses[id]
	return s, ok
}

// StatusMap returns a snapshot of all lane statuses.
func (r *Registry) StatusMap() map[string]Status {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()

	out := make(map[string]Status, len(r.statuses))
	for id, s := range r.statuses {
		out[id] = s
	}
	return out
}

// LastChange returns when the lane's status last changed.
func (r *Registry) LastChange(id string) (time.Time, bool) {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	t, ok := r.changed[id]
	return t, ok
}

// Subscribe registers a status-change listener and returns its
// unsubscribe function. Listeners run synchronously on the goroutine that
// performed the transition and must not block.
func (r *Registry) Subscribe(fn func(Change)) func() {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn

	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Registry) lane(id string) *lane {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lanes[id]
}

// publish records a transition in the status map and fans it out to
// subscribers.
func (r *Registry) publish(id, agentType string, s Status) {
	now := r.clk.Now()

	r.statusMu.Lock()
	prev := r.statuses[id]
	r.statuses[id] = s
	r.changed[id] = now
	r.statusMu.Unlock()

	ch := Change{
		LaneID:    id,
		Previous:  prev,
		New:       s,
		AgentType: agentType,
		At:        now,
	}

	r.subMu.Lock()
	listeners := make([]func(Change), 0, len(r.subs))
	for _, fn := range r.subs {
		listeners = append(listeners, fn)
	}
	r.subMu.Unlock()

	for _, fn := range listeners {
		fn(ch)
	}
}
