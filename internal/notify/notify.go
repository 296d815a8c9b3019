package notify

import (
	"fmt"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/hay-kot/lanewatch/internal/detect"
)

// Notifier delivers a single notification to the user.
type Notifier interface {
	Notify(title, body string) error
}

// FocusFunc reports whether the application window currently has focus.
// Focus tracking itself belongs to the host shell; this package only
// consumes the answer.
type FocusFunc func() bool

// Dispatcher listens to lane status changes and forwards the interesting
// ones to a Notifier. Wire it up with registry.Subscribe(d.HandleChange).
type Dispatcher struct {
	log      zerolog.Logger
	store    *SettingsStore
	notifier Notifier
	focused  FocusFunc
	lanes    []string // glob allow-list; empty means all lanes

	mu       sync.RWMutex
	settings Settings
}

// NewDispatcher creates a dispatcher. Settings are loaded once at
// construction; call Reload after the persisted record changes.
func NewDispatcher(log zerolog.Logger, store *SettingsStore, notifier Notifier, focused FocusFunc, lanes []string) (*Dispatcher, error) {
	settings, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		log:      log,
		store:    store,
		notifier: notifier,
		focused:  focused,
		lanes:    lanes,
		settings: settings,
	}, nil
}

// Reload re-reads the persisted settings record.
func (d *Dispatcher) Reload() error {
	settings, err := d.store.Load()
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.settings = settings
	d.mu.Unlock()
	return nil
}

// HandleChange decides whether a status change warrants a notification
// and sends it. Failures are logged, never surfaced: a missed notification
// must not disturb the session.
func (d *Dispatcher) HandleChange(c detect.Change) {
	d.mu.RLock()
	settings := d.settings
	d.mu.RUnlock()

	var reason string
	switch c.New {
	case detect.StatusDone:
		if !settings.OnDone {
			return
		}
		reason = "finished"
	case detect.StatusWaiting:
		if !settings.OnWaiting {
			return
		}
		reason = "needs your input"
	case detect.StatusError:
		if !settings.OnError {
			return
		}
		reason = "hit an error"
	default:
		return
	}

	if settings.OnlyUnfocused && d.focused != nil && d.focused() {
		return
	}

	if !d.laneAllowed(c.LaneID) {
		return
	}

	title := fmt.Sprintf("%s · %s", c.LaneID, c.AgentType)
	body := fmt.Sprintf("Agent %s", reason)

	if err := d.notifier.Notify(title, body); err != nil {
		d.log.Debug().Err(err).Str("lane", c.LaneID).Msg("notification delivery failed")
	}
}

// laneAllowed checks the lane id against the configured glob allow-list.
func (d *Dispatcher) laneAllowed(id string) bool {
	if len(d.lanes) == 0 {
		return true
	}
	for _, pattern := range d.lanes {
		if ok, err := doublestar.Match(pattern, id); err == nil && ok {
			return true
		}
	}
	return false
}
