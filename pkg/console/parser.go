// Package console turns hex lines typed on a console into I-frames.
package console

// MaxLineSize is the most bytes one console line can carry.
// Digits beyond it are ignored.
const MaxLineSize = 64

// Parser assembles console input into binary lines.
// Hex digits are paired into bytes, anything else but CR and LF is
// ignored, and CR or LF completes a non-empty line.
type Parser struct {
	buf  [MaxLineSize]byte
	n    int
	high byte
	half bool
}

// Feed consumes one input character and returns the completed line, if any.
func (p *Parser) Feed(c byte) ([]byte, bool) {
	if c == '\r' || c == '\n' {
		if p.n == 0 {
			p.half = false
			return nil, false
		}
		line := append([]byte(nil), p.buf[:p.n]...)
		p.Reset()
		return line, true
	}
	v, ok := hexValue(c)
	if !ok {
		return nil, false
	}
	if !p.half {
		p.high, p.half = v<<4, true
		return nil, false
	}
	if p.n < len(p.buf) {
		p.buf[p.n] = p.high | v
		p.n++
	}
	p.half = false
	return nil, false
}

// Pending returns the number of complete bytes in the current line.
func (p *Parser) Pending() int {
	return p.n
}

// Reset discards the current line.
func (p *Parser) Reset() {
	p.n, p.half = 0, false
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
