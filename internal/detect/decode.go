package detect

import (
	"errors"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// streamDecoder converts raw PTY bytes to text across chunk boundaries.
// Multi-byte UTF-8 characters split between reads are buffered until the
// remainder arrives; invalid bytes decode to U+FFFD. Decoding never fails.
type streamDecoder struct {
	dec     transform.Transformer
	pending []byte
}

func newStreamDecoder() *streamDecoder {
	return &streamDecoder{dec: unicode.UTF8.NewDecoder()}
}

// Decode returns the decodable prefix of pending+p as a string, holding
// back any trailing partial rune for the next call.
func (d *streamDecoder) Decode(p []byte) string {
	src := p
	if len(d.pending) > 0 {
		src = append(d.pending, p...)
		d.pending = nil
	}

	out := make([]byte, 0, len(src))
	for len(src) > 0 {
		dst := make([]byte, len(src)*3+16)
		nDst, nSrc, err := d.dec.Transform(dst, src, false)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]

		switch {
		case err == nil:
			return string(out)
		case errors.Is(err, transform.ErrShortSrc):
			// Trailing partial rune; keep it for the next chunk.
			d.pending = append([]byte(nil), src...)
			return string(out)
		case errors.Is(err, transform.ErrShortDst):
			continue
		default:
			// Undecodable byte; skip it and carry on.
			src = src[1:]
		}
	}

	return string(out)
}
