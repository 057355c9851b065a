// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"strconv"

	"github.com/pdfscan/pdfscan/logger"
)

// parser drives a buffer's tokenizer with seek/rollback lookahead to
// assemble PDF objects. It has no notion of indirect-reference resolution;
// it only produces the raw direct-value shapes defined in objects.go.
type parser struct {
	buf *buffer
}

func newParser(buf *buffer) *parser {
	return &parser{buf: buf}
}

func (p *parser) tell() int64  { return p.buf.tell() }
func (p *parser) seek(o int64) { p.buf.seek(o) }

func isIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isRealLiteral(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	dot := -1
	digitsBefore, digitsAfter := 0, 0
	for j := i; j < len(s); j++ {
		switch {
		case s[j] == '.' && dot < 0:
			dot = j
		case s[j] >= '0' && s[j] <= '9':
			if dot < 0 {
				digitsBefore++
			} else {
				digitsAfter++
			}
		default:
			return false
		}
	}
	return dot >= 0 && (digitsBefore > 0 || digitsAfter > 0)
}

// next parses and returns the next direct or indirect object at the
// current position.
func (p *parser) next() (interface{}, error) {
	tok, err := p.buf.readToken()
	if err != nil {
		return nil, err
	}
	switch tok.kind {
	case tokEOF:
		return nil, conformance("unexpected end of input while parsing object")
	case tokLiteral:
		return p.parseLiteralToken(tok)
	case tokLitStart:
		content, err := p.buf.readToken()
		if err != nil {
			return nil, err
		}
		if content.kind != tokLiteral {
			return nil, bug("literal string content token has wrong kind")
		}
		end, err := p.buf.readToken()
		if err != nil {
			return nil, err
		}
		if end.kind != tokLitEnd {
			return nil, conformance("literal string not terminated by ')'")
		}
		return litString(content.lit), nil
	case tokHexStart:
		content, err := p.buf.readToken()
		if err != nil {
			return nil, err
		}
		if content.kind != tokLiteral {
			return nil, bug("hex string content token has wrong kind")
		}
		end, err := p.buf.readToken()
		if err != nil {
			return nil, err
		}
		if end.kind != tokHexEnd {
			return nil, conformance("hex string not terminated by '>'")
		}
		return hexString(content.lit), nil
	case tokSolidus:
		content, err := p.buf.readToken()
		if err != nil {
			return nil, err
		}
		if content.kind != tokLiteral {
			return nil, conformance("empty name after '/'")
		}
		return name(content.lit), nil
	case tokArrayStart:
		return p.parseArray()
	case tokDictStart:
		return p.parseDict()
	default:
		return nil, conformance("unexpected token while parsing object: %v", tok)
	}
}

func (p *parser) parseArray() (interface{}, error) {
	arr := array{}
	for {
		rollback := p.tell()
		tok, err := p.buf.readToken()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokArrayEnd {
			return arr, nil
		}
		p.seek(rollback)
		entry, err := p.next()
		if err != nil {
			return nil, err
		}
		arr = append(arr, entry)
	}
}

func (p *parser) parseDict() (interface{}, error) {
	d := dict{}
	for {
		rollback := p.tell()
		tok, err := p.buf.readToken()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokDictEnd {
			return d, nil
		}
		if tok.kind != tokSolidus {
			return nil, conformance("expected a name key in dictionary, got %v", tok)
		}
		p.seek(rollback)
		keyVal, err := p.next()
		if err != nil {
			return nil, err
		}
		key, ok := keyVal.(name)
		if !ok {
			return nil, bug("dictionary key did not parse as a Name")
		}
		val, err := p.next()
		if err != nil {
			return nil, err
		}
		// "A dictionary entry whose value is null shall be treated the
		// same as if the entry does not exist" (ISO 32000-2 7.3.7).
		if val == nil {
			continue
		}
		if key == "Type" || key == "Subtype" {
			if _, ok := val.(name); !ok {
				return nil, conformance("the value of %s must be a Name", key)
			}
		}
		d[key] = val
	}
}

// parseLiteralToken handles the dispatch for a bare literal: keywords
// (true/false/null), integers (with the 3-token lookahead for references
// and indirect objects), and reals.
func (p *parser) parseLiteralToken(tok token) (interface{}, error) {
	v := string(tok.lit)
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if isIntegerLiteral(v) {
		return p.parseIntegerLookahead(v)
	}
	if isRealLiteral(v) {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, bug("literal looked like a real but did not parse: %s", v)
		}
		return f, nil
	}
	return nil, conformance("unrecognized literal token %q", v)
}

// parseIntegerLookahead implements the three-token lookahead that
// distinguishes a bare Integer from "n g R" and "n g obj ... endobj".
func (p *parser) parseIntegerLookahead(v string) (interface{}, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, conformanceWrap(err, "integer literal %q out of range", v)
	}
	rollback := p.tell()

	tok2, err := p.buf.readToken()
	if err != nil || tok2.kind != tokLiteral || !isIntegerLiteral(string(tok2.lit)) {
		p.seek(rollback)
		return n, nil
	}
	gen, err := strconv.ParseInt(string(tok2.lit), 10, 32)
	if err != nil {
		p.seek(rollback)
		return n, nil
	}

	tok3, err := p.buf.readToken()
	if err != nil || tok3.kind != tokLiteral {
		p.seek(rollback)
		return n, nil
	}
	switch string(tok3.lit) {
	case "R":
		return objptr{id: uint32(n), gen: uint16(gen)}, nil
	case "obj":
		return p.parseIndirectObjectBody(uint32(n), uint16(gen))
	default:
		p.seek(rollback)
		return n, nil
	}
}

func (p *parser) parseIndirectObjectBody(num uint32, gen uint16) (interface{}, error) {
	body, err := p.next()
	if err != nil {
		return nil, err
	}
	if d, ok := body.(dict); ok {
		rollback := p.tell()
		tok, err := p.buf.readToken()
		if err == nil && tok.kind == tokLiteral && string(tok.lit) == "stream" {
			s, err := p.readStreamBody(d)
			if err != nil {
				return nil, err
			}
			return objdef{ptr: objptr{id: num, gen: gen}, obj: s}, nil
		}
		p.seek(rollback)
	}
	if err := p.expectKeyword("endobj"); err != nil {
		return nil, err
	}
	return objdef{ptr: objptr{id: num, gen: gen}, obj: body}, nil
}

// readStreamBody reads a stream's raw payload directly (no tokenization)
// per the dictionary's Length, then expects "endstream" then "endobj".
func (p *parser) readStreamBody(hdr dict) (interface{}, error) {
	lenVal, ok := hdr["Length"]
	if !ok {
		return nil, conformance("stream dictionary has no Length entry")
	}
	length, ok := lenVal.(int64)
	if !ok {
		return nil, conformance("stream Length is not an integer")
	}
	// "stream" keyword is followed by CRLF or LF (never CR alone), then
	// the raw payload begins immediately.
	if c, ok := p.buf.peek(); ok && isEOLByte(c) {
		p.buf.readByte()
		if c == '\r' {
			if c2, ok := p.buf.peek(); ok && c2 == '\n' {
				p.buf.readByte()
			}
		}
	}
	offset := p.tell()
	p.seek(offset + length)
	logger.Debug("stream payload", "offset", offset, "length", length, true)
	if err := p.expectKeyword("endstream"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("endobj"); err != nil {
		return nil, err
	}
	return stream{hdr: hdr, offset: offset, length: length}, nil
}

func (p *parser) expectKeyword(kw string) error {
	tok, err := p.buf.readToken()
	if err != nil {
		return err
	}
	if tok.kind != tokLiteral || string(tok.lit) != kw {
		return conformance("expected keyword %q, got %v", kw, tok)
	}
	return nil
}
