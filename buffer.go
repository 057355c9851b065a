// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"io"

	"github.com/pdfscan/pdfscan/logger"
)

// lineSpan is a half-open [start, end) byte range for one logical line,
// with EOL bytes excluded.
type lineSpan struct {
	start, end int64
}

// tokCtx is the tokenizer's lexical context. Seeking always resets it to
// ctxFree; callers must never seek into the middle of a string.
type tokCtx int

const (
	ctxFree tokCtx = iota
	ctxLiteralString
	ctxHexString
	ctxName
)

type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokSolidus
	tokDictStart
	tokDictEnd
	tokArrayStart
	tokArrayEnd
	tokHexStart
	tokHexEnd
	tokLitStart
	tokLitEnd
	tokEOF
)

type token struct {
	kind tokenKind
	lit  []byte
}

func (t token) asBytes() []byte { return t.lit }

// buffer is the byte cursor and tokenizer over one immutable PDF buffer (or
// a section of one). base is the absolute file offset of data[0]; offset is
// always base+pos.
type buffer struct {
	base   int64
	data   []byte
	pos    int
	offset int64
	ctx    tokCtx

	lines []lineSpan
}

func newBuffer(r io.Reader, base int64) *buffer {
	data, _ := io.ReadAll(r)
	b := &buffer{base: base, data: data, offset: base}
	b.indexLines()
	return b
}

func (b *buffer) tell() int64 { return b.offset }

func (b *buffer) seek(off int64) {
	p := int(off - b.base)
	if p < 0 {
		p = 0
	}
	if p > len(b.data) {
		p = len(b.data)
	}
	b.pos = p
	b.offset = b.base + int64(p)
	b.ctx = ctxFree
}

func (b *buffer) seekForward(n int64) {
	b.seek(b.offset + n)
}

func (b *buffer) eof() bool { return b.pos >= len(b.data) }

func (b *buffer) peek() (byte, bool) {
	if b.eof() {
		return 0, false
	}
	return b.data[b.pos], true
}

func (b *buffer) readByte() (byte, bool) {
	c, ok := b.peek()
	if !ok {
		return 0, false
	}
	b.pos++
	b.offset++
	return c, true
}

func (b *buffer) unreadByte() {
	if b.pos > 0 {
		b.pos--
		b.offset--
	}
}

// --- character classes, ISO 32000-2 section 7.2.3 ---

func isWhitespaceByte(c byte) bool {
	switch c {
	case 0x00, 0x09, 0x0C, 0x20:
		return true
	}
	return false
}

func isEOLByte(c byte) bool {
	return c == 0x0A || c == 0x0D
}

func isDelimiterByte(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isRegularByte(c byte) bool {
	return !isWhitespaceByte(c) && !isEOLByte(c) && !isDelimiterByte(c)
}

func isHexDigitByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	return 0
}

// --- line index, section 4.1 ---

// indexLines precomputes (start, end) spans, one per logical line, skipping
// comment-only lines (a line whose first byte is '%') except line 0, which
// the PDF header occupies.
func (b *buffer) indexLines() {
	start := 0
	end := 0
	skipping := false
	for pos := 0; pos < len(b.data); pos++ {
		ch := b.data[pos]
		if pos > 0 && ch == '%' {
			skipping = true
		}
		if !skipping {
			end = pos
		}
		if ch == '\n' {
			if end > start {
				b.lines = append(b.lines, lineSpan{int64(start), int64(end)})
			}
			start = pos + 1
			end = start
			skipping = false
		} else if ch == '\r' {
			if end > start {
				b.lines = append(b.lines, lineSpan{int64(start), int64(end)})
			}
			if pos+1 < len(b.data) && b.data[pos+1] == '\n' {
				pos++
			}
			start = pos + 1
			end = start
			skipping = false
		}
	}
	// a final line with no EOL after it
	if !skipping {
		end = len(b.data)
	}
	if end > start {
		b.lines = append(b.lines, lineSpan{int64(start), int64(end)})
	}
	logger.Debug("line index built", "lines", len(b.lines))
}

func (b *buffer) numLines() int { return len(b.lines) }

func (b *buffer) getLine(i int) []byte {
	if i < 0 || i >= len(b.lines) {
		return nil
	}
	s := b.lines[i]
	return b.data[s.start:s.end]
}

func (b *buffer) findLineContaining(off int64) int {
	for i, s := range b.lines {
		if off >= s.start && off < s.end {
			return i
		}
	}
	return -1
}

func (b *buffer) seekToLine(i int) {
	if i < 0 || i >= len(b.lines) {
		return
	}
	b.seek(b.lines[i].start)
}

// --- tokenizer, section 4.2 ---

// readToken returns the next lexical token, driven by the current context.
// Comments are skipped transparently (their content is discarded and the
// token after them is returned instead).
func (b *buffer) readToken() (token, error) {
	for {
		switch b.ctx {
		case ctxLiteralString:
			lit, err := b.readLiteralStringContent()
			if err != nil {
				return token{}, err
			}
			b.ctx = ctxFree
			return token{kind: tokLiteral, lit: lit}, nil
		case ctxHexString:
			lit, err := b.readHexStringContent()
			if err != nil {
				return token{}, err
			}
			b.ctx = ctxFree
			return token{kind: tokLiteral, lit: lit}, nil
		case ctxName:
			lit, err := b.readNameContent()
			if err != nil {
				return token{}, err
			}
			b.ctx = ctxFree
			return token{kind: tokLiteral, lit: lit}, nil
		default:
			tok, isComment, err := b.readFreeToken()
			if err != nil {
				return token{}, err
			}
			if isComment {
				continue
			}
			return tok, nil
		}
	}
}

// readFreeToken reads one token in the Free context. It reports isComment
// when the token read was a skipped comment, so the caller loops for the
// next real token.
func (b *buffer) readFreeToken() (tok token, isComment bool, err error) {
	var pending []byte
	for {
		c, ok := b.readByte()
		if !ok {
			if len(pending) > 0 {
				return token{kind: tokLiteral, lit: pending}, false, nil
			}
			return token{kind: tokEOF}, false, nil
		}
		if isWhitespaceByte(c) || isEOLByte(c) {
			if len(pending) > 0 {
				b.unreadByte()
				return token{kind: tokLiteral, lit: pending}, false, nil
			}
			continue
		}
		if isDelimiterByte(c) {
			if len(pending) > 0 {
				b.unreadByte()
				return token{kind: tokLiteral, lit: pending}, false, nil
			}
			return b.readDelimiterToken(c)
		}
		pending = append(pending, c)
	}
}

func (b *buffer) readDelimiterToken(c byte) (token, bool, error) {
	switch c {
	case '%':
		b.skipComment()
		return token{}, true, nil
	case '/':
		b.ctx = ctxName
		return token{kind: tokSolidus}, false, nil
	case '(':
		b.ctx = ctxLiteralString
		return token{kind: tokLitStart}, false, nil
	case ')':
		return token{kind: tokLitEnd}, false, nil
	case '[':
		return token{kind: tokArrayStart}, false, nil
	case ']':
		return token{kind: tokArrayEnd}, false, nil
	case '<':
		if c2, ok := b.peek(); ok && c2 == '<' {
			b.readByte()
			return token{kind: tokDictStart}, false, nil
		}
		b.ctx = ctxHexString
		return token{kind: tokHexStart}, false, nil
	case '>':
		if c2, ok := b.peek(); ok && c2 == '>' {
			b.readByte()
			return token{kind: tokDictEnd}, false, nil
		}
		return token{kind: tokHexEnd}, false, nil
	default:
		return token{}, false, bug("unhandled delimiter byte %q", c)
	}
}

func (b *buffer) skipComment() {
	for {
		c, ok := b.readByte()
		if !ok || isEOLByte(c) {
			return
		}
	}
}

// readLiteralStringContent reads the balanced, escape-resolved payload of a
// literal string, stopping just before the closing ')' (left for the Free
// context to consume as LitEnd).
func (b *buffer) readLiteralStringContent() ([]byte, error) {
	var out []byte
	depth := 0
	for {
		c, ok := b.readByte()
		if !ok {
			return nil, conformance("unterminated literal string")
		}
		switch {
		case c == '\\':
			d, ok := b.readByte()
			if !ok {
				return nil, conformance("unterminated escape in literal string")
			}
			switch {
			case d == 'n':
				out = append(out, '\n')
			case d == 'r':
				out = append(out, '\r')
			case d == 't':
				out = append(out, '\t')
			case d == 'b':
				out = append(out, '\b')
			case d == 'f':
				out = append(out, '\f')
			case d == '(':
				out = append(out, '(')
			case d == ')':
				out = append(out, ')')
			case d == '\\':
				out = append(out, '\\')
			case d == '\n':
				// backslash-EOL is a line continuation: emits nothing
			case d == '\r':
				if c2, ok := b.peek(); ok && c2 == '\n' {
					b.readByte()
				}
			case d >= '0' && d <= '7':
				v := int(d - '0')
				for i := 0; i < 2; i++ {
					n, ok := b.peek()
					if !ok || n < '0' || n > '7' {
						break
					}
					v = v*8 + int(n-'0')
					b.readByte()
				}
				if v > 0xFF {
					return nil, conformance("octal escape %o exceeds a byte", v)
				}
				out = append(out, byte(v))
			default:
				// unknown escape: drop the backslash, keep the character
				out = append(out, d)
			}
		case c == '\r':
			if c2, ok := b.peek(); ok && c2 == '\n' {
				b.readByte()
			}
			out = append(out, '\n')
		case c == '(':
			depth++
			out = append(out, c)
		case c == ')':
			if depth == 0 {
				b.unreadByte()
				return out, nil
			}
			depth--
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
}

// readHexStringContent reads hex digits up to (not including) the
// terminating '>', padding a trailing lone nibble with zero.
func (b *buffer) readHexStringContent() ([]byte, error) {
	var digits []byte
	for {
		c, ok := b.peek()
		if !ok {
			return nil, conformance("unterminated hex string")
		}
		if c == '>' {
			break
		}
		if isWhitespaceByte(c) || isEOLByte(c) {
			b.readByte()
			continue
		}
		if !isHexDigitByte(c) {
			return nil, conformance("non-hex digit %q in hex string", c)
		}
		digits = append(digits, c)
		b.readByte()
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return out, nil
}

// readNameContent reads the #xx-escaped name body following a solidus,
// stopping at (and rolling back) the first delimiter or whitespace.
func (b *buffer) readNameContent() ([]byte, error) {
	var out []byte
	for {
		c, ok := b.readByte()
		if !ok {
			break
		}
		if isWhitespaceByte(c) || isEOLByte(c) || isDelimiterByte(c) {
			b.unreadByte()
			break
		}
		if c == '#' {
			h1, ok1 := b.readByte()
			h2, ok2 := b.readByte()
			if !ok1 || !ok2 || !isHexDigitByte(h1) || !isHexDigitByte(h2) {
				return nil, conformance("malformed #xx escape in name")
			}
			out = append(out, hexVal(h1)<<4|hexVal(h2))
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, conformance("empty name")
	}
	return out, nil
}

// bytesAt returns length raw bytes starting at absolute file offset off,
// used to read a stream's payload directly without tokenizing it.
func (b *buffer) bytesAt(off, length int64) ([]byte, error) {
	start := int(off - b.base)
	if start < 0 || length < 0 || start+int(length) > len(b.data) {
		return nil, conformance("stream payload range [%d,%d) out of bounds", off, off+length)
	}
	return b.data[start : start+int(length)], nil
}
