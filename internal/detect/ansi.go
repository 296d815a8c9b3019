package detect

import "strings"

// StripANSI removes terminal escape and control sequences from content.
// Heuristic text patterns must not be defeated by color or cursor codes
// interleaved with what is visually contiguous text, so this runs before
// every pattern-matching pass.
func StripANSI(content string) string {
	// Fast path: no escape introducers present
	if !strings.Contains(content, "\x1b") && !strings.Contains(content, "\x9b") {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))

	i := 0
	for i < len(content) {
		if content[i] == '\x1b' {
			// CSI sequence: ESC [ params letter
			if i+1 < len(content) && content[i+1] == '[' {
				j := i + 2
				for j < len(content) {
					c := content[j]
					j++
					if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
						break
					}
				}
				i = j
				continue
			}
			// OSC sequence: ESC ] data (BEL | ESC \)
			if i+1 < len(content) && content[i+1] == ']' {
				j := i + 2
				terminated := false
				for j < len(content) {
					if content[j] == '\x07' {
						j++
						terminated = true
						break
					}
					if content[j] == '\x1b' && j+1 < len(content) && content[j+1] == '\\' {
						j += 2
						terminated = true
						break
					}
					j++
				}
				if terminated {
					i = j
					continue
				}
				// Unterminated OSC: drop the rest of the chunk
				break
			}
			// Charset designation: ESC ( x / ESC ) x
			if i+2 < len(content) && (content[i+1] == '(' || content[i+1] == ')') {
				i += 3
				continue
			}
			// Simple two-byte escape
			if i+1 < len(content) {
				i += 2
				continue
			}
			// Trailing bare ESC
			i++
			continue
		}
		// Single-byte CSI (0x9B), only valid outside multi-byte runes
		if content[i] == '\x9b' {
			j := i + 1
			for j < len(content) {
				c := content[j]
				j++
				if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
					break
				}
			}
			i = j
			continue
		}
		b.WriteByte(content[i])
		i++
	}

	return b.String()
}
