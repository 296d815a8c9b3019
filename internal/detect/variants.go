package detect

import (
	"regexp"
	"strings"
	"time"
)

// Agent type tags understood by the factory. Unknown types fall back to
// AgentShell, which classifies nothing.
const (
	AgentClaude = "claude"
	AgentCodex  = "codex"
	AgentGemini = "gemini"
	AgentShell  = "shell"
)

// Precheck inspects a raw (unstripped) chunk for agent-specific structural
// signals before pattern classification runs. A returned status is trusted
// unconditionally since these signals are unambiguous.
type Precheck func(raw string) (Status, bool)

// agentSpec bundles everything the factory needs for one agent type.
type agentSpec struct {
	patterns Patterns
	precheck Precheck
	inert    bool
}

// spinnerGlyphs matches one frame of the braille and asterisk spinners the
// major CLI agents animate while thinking.
var spinnerGlyphs = regexp.MustCompile(`[⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏✢✳✶✻✽]`)

var claudePatterns = Patterns{
	Waiting: []*regexp.Regexp{
		regexp.MustCompile(`(?i)yes, allow (?:once|always)`),
		regexp.MustCompile(`(?i)no, and tell .+ what to do differently`),
		regexp.MustCompile(`(?i)do you want to (?:proceed|continue|run this command)`),
		regexp.MustCompile(`(?i)do you trust the files in this folder`),
		regexp.MustCompile(`(?i)allow this mcp server`),
		regexp.MustCompile(`(?i)use arrow keys to navigate`),
		regexp.MustCompile(`(?i)[(\[]y(?:es)?/no?[)\]]`),
	},
	Error: []*regexp.Regexp{
		regexp.MustCompile(`(?m)^panic:`),
		regexp.MustCompile(`(?i)\berror:\s*\S`),
		regexp.MustCompile(`(?i)\bfatal:`),
		regexp.MustCompile(`(?i)rate limit(?:ed| reached)`),
		regexp.MustCompile(`(?i)authentication (?:failed|error)`),
	},
	Working: []*regexp.Regexp{
		spinnerGlyphs,
		regexp.MustCompile(`(?i)\b\w+ing…`),
	},
	IdleTimeout:        DefaultIdleTimeout,
	DoneToWorkingBytes: DefaultDoneToWorkingBytes,
	Debounce:           DefaultDebounce,
	SpinnerWindow:      DefaultSpinnerWindow,
}

var codexPatterns = Patterns{
	Waiting: []*regexp.Regexp{
		regexp.MustCompile(`(?i)allow command\?`),
		regexp.MustCompile(`(?i)approve this (?:plan|change|edit)`),
		regexp.MustCompile(`(?i)press enter to (?:select|confirm)`),
		regexp.MustCompile(`(?i)[(\[]y(?:es)?/no?[)\]]`),
	},
	Error: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\berror:\s*\S`),
		regexp.MustCompile(`(?i)stream (?:disconnected|error)`),
		regexp.MustCompile(`(?i)too many requests`),
	},
	Working: []*regexp.Regexp{
		spinnerGlyphs,
	},
	IdleTimeout:        5 * time.Second,
	DoneToWorkingBytes: DefaultDoneToWorkingBytes,
	Debounce:           DefaultDebounce,
	SpinnerWindow:      DefaultSpinnerWindow,
}

// geminiPatterns has no distinguishing prompts; classification leans
// entirely on idle-timeout inference, with a low done→working threshold
// since there is no prompt echo to debounce against.
var geminiPatterns = Patterns{
	Error: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\berror:\s*\S`),
		regexp.MustCompile(`(?i)quota exceeded`),
	},
	IdleTimeout:        3 * time.Second,
	DoneToWorkingBytes: 20,
	Debounce:           DefaultDebounce,
	SpinnerWindow:      DefaultSpinnerWindow,
}

// claudePrecheck treats a bare BEL as an unambiguous waiting signal. OSC
// terminator bells are removed by StripANSI first, so a surviving BEL is
// the agent ringing for attention.
func claudePrecheck(raw string) (Status, bool) {
	if strings.Contains(StripANSI(raw), "\a") {
		return StatusWaiting, true
	}
	return "", false
}

// cursorShapePattern matches DECSCUSR bar-cursor escapes (ESC [ n SP q)
// emitted when the agent focuses its input field.
var cursorShapePattern = regexp.MustCompile(`\x1b\[[56] q`)

// codexPrecheck reads cursor-shape escapes and the vim-style mode footer,
// both of which signal an open input field regardless of surrounding text.
func codexPrecheck(raw string) (Status, bool) {
	if cursorShapePattern.MatchString(raw) {
		return StatusWaiting, true
	}
	if strings.Contains(StripANSI(raw), "-- INSERT --") {
		return StatusWaiting, true
	}
	return "", false
}

var agentSpecs = map[string]agentSpec{
	AgentClaude: {patterns: claudePatterns, precheck: claudePrecheck},
	AgentCodex:  {patterns: codexPatterns, precheck: codexPrecheck},
	AgentGemini: {patterns: geminiPatterns},
	AgentShell:  {inert: true},
}

// AgentTypes returns the known agent type tags in stable order.
func AgentTypes() []string {
	return []string{AgentClaude, AgentCodex, AgentGemini, AgentShell}
}

// PatternsFor returns the classification table for an agent type with
// tuning overrides applied. Unknown agent types get the inert shell table.
func PatternsFor(agentType string, tuning Tuning) Patterns {
	spec, ok := agentSpecs[strings.ToLower(agentType)]
	if !ok {
		spec = agentSpecs[AgentShell]
	}
	return spec.patterns.withTuning(tuning)
}
