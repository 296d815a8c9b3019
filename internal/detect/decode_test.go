package detect

import "testing"

func TestStreamDecoder(t *testing.T) {
	t.Run("plain ascii", func(t *testing.T) {
		d := newStreamDecoder()
		if got := d.Decode([]byte("hello")); got != "hello" {
			t.Errorf("Decode() = %q, want %q", got, "hello")
		}
	})

	t.Run("split multibyte rune", func(t *testing.T) {
		d := newStreamDecoder()
		payload := []byte("a⠋b") // ⠋ is three bytes

		got := d.Decode(payload[:2])
		if got != "a" {
			t.Errorf("first chunk = %q, want %q", got, "a")
		}

		got = d.Decode(payload[2:])
		if got != "⠋b" {
			t.Errorf("second chunk = %q, want %q", got, "⠋b")
		}
	})

	t.Run("invalid bytes become replacement runes", func(t *testing.T) {
		d := newStreamDecoder()
		got := d.Decode([]byte{'a', 0xff, 'b'})
		if got != "a�b" {
			t.Errorf("Decode() = %q, want %q", got, "a�b")
		}
	})

	t.Run("rune split across three chunks", func(t *testing.T) {
		d := newStreamDecoder()
		payload := []byte("⠋")

		if got := d.Decode(payload[:1]); got != "" {
			t.Errorf("first byte = %q, want empty", got)
		}
		if got := d.Decode(payload[1:2]); got != "" {
			t.Errorf("second byte = %q, want empty", got)
		}
		if got := d.Decode(payload[2:]); got != "⠋" {
			t.Errorf("final byte = %q, want %q", got, "⠋")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		d := newStreamDecoder()
		if got := d.Decode(nil); got != "" {
			t.Errorf("Decode(nil) = %q, want empty", got)
		}
	})
}
