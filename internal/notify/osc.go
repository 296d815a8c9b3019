package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// TerminalNotifier emits OSC escape sequences that notification-capable
// terminals surface as desktop notifications. OSC 777 carries a title and
// body; OSC 9 is the plain-message fallback older terminals understand.
type TerminalNotifier struct {
	mu      sync.Mutex
	w       io.Writer
	useOSC9 bool
}

// NewTerminalNotifier creates a notifier writing to w, typically the
// controlling terminal. Set osc9 for terminals without OSC 777 support.
func NewTerminalNotifier(w io.Writer, osc9 bool) *TerminalNotifier {
	return &TerminalNotifier{w: w, useOSC9: osc9}
}

// Notify writes the notification escape sequence.
func (n *TerminalNotifier) Notify(title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var err error
	if n.useOSC9 {
		_, err = fmt.Fprintf(n.w, "\x1b]9;%s: %s\x07", sanitize(title), sanitize(body))
	} else {
		_, err = fmt.Fprintf(n.w, "\x1b]777;notify;%s;%s\x07", sanitize(title), sanitize(body))
	}
	if err != nil {
		return fmt.Errorf("write notification sequence: %w", err)
	}
	return nil
}

// sanitize strips characters that would terminate or corrupt the OSC
// sequence itself.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\x07' || r == '\x1b' || r == ';' || r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, s)
}
