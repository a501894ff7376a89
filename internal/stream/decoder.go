package stream

import "unicode/utf8"

// ChunkDecoder turns raw byte chunks into text incrementally. The network
// delivers chunks at arbitrary byte boundaries, so a multi-byte character
// can be split across two reads; the decoder withholds a trailing partial
// rune and prepends it to the next chunk.
type ChunkDecoder struct {
	pending []byte
}

// Decode appends chunk to any held-back bytes and returns the longest
// prefix that ends on a rune boundary.
func (d *ChunkDecoder) Decode(chunk []byte) string {
	b := append(d.pending, chunk...)

	cut := len(b)
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			cut = i
		}
		break
	}

	d.pending = append([]byte(nil), b[cut:]...)
	return string(b[:cut])
}

// Flush returns whatever bytes remain once the stream ends. A stream that
// terminates mid-rune yields the replacement character rather than losing
// the bytes.
func (d *ChunkDecoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	s := string(d.pending)
	d.pending = nil
	return s
}
