// Package notify turns lane status changes into desktop notifications,
// gated by persisted user preferences, window focus, and lane filters.
package notify

import (
	"errors"
	"fmt"

	"github.com/hay-kot/lanewatch/internal/store/jsonfile"
)

// settingsKey is the fixed key the settings record lives under in the
// key-value store.
const settingsKey = "notifications"

// KV is the key-value persistence interface settings are stored through.
type KV interface {
	Get(key string, v any) error
	Set(key string, v any) error
}

// Settings are the user's notification preferences. The zero value keeps
// every trigger off; real defaults come from config and favor unfocused-only
// delivery with all triggers disabled until the first-run prompt is accepted.
type Settings struct {
	OnDone        bool `json:"on_done"`
	OnWaiting     bool `json:"on_waiting"`
	OnError       bool `json:"on_error"`
	OnlyUnfocused bool `json:"only_unfocused"`
}

// SettingsStore loads and saves Settings through a KV store, merging the
// stored record over defaults so that schema growth never loses fields.
type SettingsStore struct {
	kv       KV
	defaults Settings
}

// NewSettingsStore creates a settings store with the given defaults.
func NewSettingsStore(kv KV, defaults Settings) *SettingsStore {
	return &SettingsStore{kv: kv, defaults: defaults}
}

// Load returns the persisted settings, or the defaults when no record
// exists yet. Fields absent from the stored record keep their defaults.
func (s *SettingsStore) Load() (Settings, error) {
	out := s.defaults
	err := s.kv.Get(settingsKey, &out)
	if errors.Is(err, jsonfile.ErrKeyNotFound) {
		return s.defaults, nil
	}
	if err != nil {
		return s.defaults, fmt.Errorf("load notification settings: %w", err)
	}
	return out, nil
}

// Save persists the settings record.
func (s *SettingsStore) Save(settings Settings) error {
	if err := s.kv.Set(settingsKey, settings); err != nil {
		return fmt.Errorf("save notification settings: %w", err)
	}
	return nil
}
