package detect

import (
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	return NewRegistry(zerolog.Nop(), mock, nil), mock
}

func TestRegistry_RegisterAndFeed(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.RegisterLane("s1", AgentClaude)

	status, ok := r.Status("s1")
	require.True(t, ok)
	assert.Equal(t, StatusIdle, status)

	r.FeedOutput("s1", []byte("compiling sources"))

	status, _ = r.Status("s1")
	assert.Equal(t, StatusWorking, status)
}

func TestRegistry_UnknownLaneIsNoOp(t *testing.T) {
	r, _ := newTestRegistry(t)

	// None of these may panic or create entries.
	r.FeedOutput("ghost", []byte("output"))
	r.FeedUserInput("ghost", "y")
	r.FeedSnapshot("ghost", "frame")
	r.MarkExited("ghost")
	r.UnregisterLane("ghost")
	r.HandleHook(HookEvent{LaneID: "ghost", EventType: HookPermissionPrompt})

	assert.Empty(t, r.StatusMap())
}

func TestRegistry_ReRegistrationDisposesOldDetector(t *testing.T) {
	r, mock := newTestRegistry(t)

	r.RegisterLane("s1", AgentClaude)
	r.FeedOutput("s1", []byte("agent output"))

	status, _ := r.Status("s1")
	require.Equal(t, StatusWorking, status)

	// Same lane, new agent type: the old detector and its armed idle
	// timer must be gone.
	r.RegisterLane("s1", AgentCodex)

	status, _ = r.Status("s1")
	assert.Equal(t, StatusIdle, status)

	mock.Add(time.Hour)
	status, _ = r.Status("s1")
	assert.Equal(t, StatusIdle, status, "residual timer from the replaced detector mutated status")
}

func TestRegistry_HookOverride(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.RegisterLane("s1", AgentClaude)
	r.FeedOutput("s1", []byte("ambiguous output"))

	status, _ := r.Status("s1")
	require.Equal(t, StatusWorking, status)

	r.HandleHook(HookEvent{LaneID: "s1", EventType: HookPermissionPrompt, AgentType: AgentClaude})

	status, _ = r.Status("s1")
	assert.Equal(t, StatusWaiting, status)
}

func TestRegistry_HookUnknownEventIgnored(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.RegisterLane("s1", AgentClaude)
	r.HandleHook(HookEvent{LaneID: "s1", EventType: "telemetry_ping"})

	status, _ := r.Status("s1")
	assert.Equal(t, StatusIdle, status)
}

func TestRegistry_MarkExitedForcesIdle(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.RegisterLane("s1", AgentClaude)
	r.FeedOutput("s1", []byte("Yes, allow once"))

	status, _ := r.Status("s1")
	require.Equal(t, StatusWaiting, status)

	r.MarkExited("s1")

	status, _ = r.Status("s1")
	assert.Equal(t, StatusIdle, status)
}

func TestRegistry_SubscribeFanOut(t *testing.T) {
	r, _ := newTestRegistry(t)

	var got []Change
	unsub := r.Subscribe(func(c Change) { got = append(got, c) })

	r.RegisterLane("s1", AgentClaude)
	r.FeedOutput("s1", []byte("output"))

	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].LaneID)
	assert.Equal(t, StatusIdle, got[0].Previous)
	assert.Equal(t, StatusWorking, got[0].New)
	assert.Equal(t, AgentClaude, got[0].AgentType)

	unsub()
	r.FeedOutput("s1", []byte("Error: stop"))
	assert.Len(t, got, 1, "unsubscribed listener must not fire")
}

func TestRegistry_SplitUTF8AcrossChunks(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.RegisterLane("s1", AgentClaude)

	// "Yes, allow once" with a multi-byte rune appended, split mid-rune.
	payload := []byte("Yes, allow once ⠋")
	r.FeedOutput("s1", payload[:len(payload)-2])
	r.FeedOutput("s1", payload[len(payload)-2:])

	status, _ := r.Status("s1")
	assert.Equal(t, StatusWaiting, status)
}

func TestRegistry_UserInputRoundTrip(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.RegisterLane("s1", AgentClaude)

	r.FeedOutput("s1", []byte("Do you want to proceed?"))
	status, _ := r.Status("s1")
	require.Equal(t, StatusWaiting, status)

	r.FeedUserInput("s1", "y")
	r.FeedOutput("s1", []byte("proceeding with the plan"))

	status, _ = r.Status("s1")
	assert.Equal(t, StatusWorking, status)
}

func TestRegistry_UnregisterRemovesLane(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.RegisterLane("s1", AgentClaude)
	r.RegisterLane("s2", AgentGemini)
	r.UnregisterLane("s1")

	_, ok := r.Status("s1")
	assert.False(t, ok)

	m := r.StatusMap()
	assert.Len(t, m, 1)
	assert.Contains(t, m, "s2")
}

func TestRegistry_DoneToWorkingViaOutputBytes(t *testing.T) {
	r, mock := newTestRegistry(t)
	r.RegisterLane("s1", AgentClaude)

	r.FeedOutput("s1", []byte("working on it"))
	mock.Add(DefaultIdleTimeout)

	status, _ := r.Status("s1")
	require.Equal(t, StatusDone, status)

	r.FeedOutput("s1", []byte(strings.Repeat("z", 250)))

	status, _ = r.Status("s1")
	assert.Equal(t, StatusWorking, status)
}

func TestRegistry_LastChangeTracked(t *testing.T) {
	r, mock := newTestRegistry(t)
	r.RegisterLane("s1", AgentClaude)

	mock.Add(10 * time.Second)
	r.FeedOutput("s1", []byte("output"))

	at, ok := r.LastChange("s1")
	require.True(t, ok)
	assert.Equal(t, mock.Now(), at)
}
