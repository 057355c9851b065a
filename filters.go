// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"compress/zlib"
	"io"
)

// decodeStream applies a stream dictionary's Filter chain (with matching
// DecodeParms) to raw, left to right, per section 4.4.
func decodeStream(hdr dict, raw []byte) ([]byte, error) {
	filters, parms, err := filterChain(hdr)
	if err != nil {
		return nil, err
	}
	data := raw
	for i, f := range filters {
		var parm dict
		if i < len(parms) {
			parm = parms[i]
		}
		data, err = applyOneFilter(f, parm, data)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func filterChain(hdr dict) ([]string, []dict, error) {
	f, hasFilter := hdr["Filter"]
	if !hasFilter || f == nil {
		return nil, nil, nil
	}
	var names []string
	switch x := f.(type) {
	case name:
		names = []string{string(x)}
	case array:
		for _, e := range x {
			n, ok := e.(name)
			if !ok {
				return nil, nil, conformance("Filter array element is not a Name")
			}
			names = append(names, string(n))
		}
	default:
		return nil, nil, conformance("Filter is neither a Name nor an Array")
	}

	var parms []dict
	if dp, ok := hdr["DecodeParms"]; ok && dp != nil {
		switch x := dp.(type) {
		case dict:
			parms = []dict{x}
		case array:
			for _, e := range x {
				switch pe := e.(type) {
				case dict:
					parms = append(parms, pe)
				case nil:
					parms = append(parms, nil)
				default:
					return nil, nil, conformance("DecodeParms array element is not a Dictionary")
				}
			}
		default:
			return nil, nil, conformance("DecodeParms is neither a Dictionary nor an Array")
		}
	}
	return names, parms, nil
}

func predictorOf(parm dict) int64 {
	if parm == nil {
		return 1
	}
	if v, ok := parm["Predictor"]; ok {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return 1
}

func applyOneFilter(filterName string, parm dict, data []byte) ([]byte, error) {
	switch filterName {
	case "ASCIIHexDecode":
		return asciiHexDecode(data)
	case "ASCII85Decode":
		return ascii85Decode(data)
	case "LZWDecode":
		if p := predictorOf(parm); p != 1 {
			return nil, notSupported("LZWDecode predictor %d (only Predictor=1 supported)", p)
		}
		return lzwDecode(data)
	case "FlateDecode":
		if p := predictorOf(parm); p != 1 {
			return nil, notSupported("FlateDecode predictor %d (only Predictor=1 supported)", p)
		}
		return flateDecode(data)
	case "RunLengthDecode", "CCITTFaxDecode", "JBIG2Decode", "DCTDecode", "JPXDecode", "Crypt":
		return nil, notSupported("stream filter %s", filterName)
	default:
		return nil, conformance("unknown stream filter %q", filterName)
	}
}

func flateDecode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, conformanceWrap(err, "FlateDecode: invalid zlib stream")
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, conformanceWrap(err, "FlateDecode: truncated zlib stream")
	}
	return out, nil
}

func asciiHexDecode(data []byte) ([]byte, error) {
	var digits []byte
	for _, c := range data {
		if c == '>' {
			break
		}
		if isWhitespaceByte(c) || isEOLByte(c) {
			continue
		}
		if !isHexDigitByte(c) {
			return nil, conformance("ASCIIHexDecode: non-hex byte %q", c)
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return out, nil
}

// ascii85Decode implements standard ASCII-85 with the Adobe "~>"
// terminator. Whitespace within the stream is ignored; any other
// out-of-range byte is a conformance violation.
func ascii85Decode(data []byte) ([]byte, error) {
	var out []byte
	var group [5]byte
	n := 0
	i := 0
	for i < len(data) {
		c := data[i]
		if c == '~' {
			break
		}
		if isWhitespaceByte(c) || isEOLByte(c) {
			i++
			continue
		}
		if c == 'z' && n == 0 {
			out = append(out, 0, 0, 0, 0)
			i++
			continue
		}
		if c < '!' || c > 'u' {
			return nil, conformance("ASCII85Decode: byte %q out of range", c)
		}
		group[n] = c - '!'
		n++
		i++
		if n == 5 {
			out = append(out, decode85Group(group[:], 4)...)
			n = 0
		}
	}
	if n > 0 {
		for j := n; j < 5; j++ {
			group[j] = 84
		}
		decoded := decode85Group(group[:], n-1)
		out = append(out, decoded...)
	}
	return out, nil
}

func decode85Group(group []byte, nbytes int) []byte {
	var v uint32
	for _, g := range group {
		v = v*85 + uint32(g)
	}
	b := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	return b[:nbytes]
}

// lzwDecode implements the PDF-flavored LZW variant: 9-12 bit codes,
// MSB-first bit packing, EarlyChange=1 (the PDF default: the code width
// increases one code early, at 511/1023/2047 table entries rather than
// 512/1024/2048). This does not match the GIF-flavored compress/lzw
// (LSB-first, no early change), so it is implemented directly.
func lzwDecode(data []byte) ([]byte, error) {
	const (
		clearCode = 256
		eodCode   = 257
		firstCode = 258
	)
	var out []byte
	var bitBuf uint32
	bitCount := 0
	pos := 0

	readCode := func(width int) (int, bool) {
		for bitCount < width {
			if pos >= len(data) {
				return 0, false
			}
			bitBuf = bitBuf<<8 | uint32(data[pos])
			pos++
			bitCount += 8
		}
		bitCount -= width
		code := int(bitBuf>>uint(bitCount)) & ((1 << width) - 1)
		return code, true
	}

	var table [][]byte
	resetTable := func() {
		table = make([][]byte, 256, 4096)
		for i := 0; i < 256; i++ {
			table[i] = []byte{byte(i)}
		}
		table = append(table, nil, nil) // clearCode, eodCode placeholders
	}
	resetTable()
	width := 9
	var prev []byte

	for {
		code, ok := readCode(width)
		if !ok {
			return nil, conformance("LZWDecode: truncated input")
		}
		if code == clearCode {
			resetTable()
			width = 9
			prev = nil
			continue
		}
		if code == eodCode {
			break
		}
		var entry []byte
		switch {
		case code < len(table) && table[code] != nil:
			entry = table[code]
		case code == len(table) && prev != nil:
			entry = append(append([]byte{}, prev...), prev[0])
		default:
			return nil, conformance("LZWDecode: invalid code %d", code)
		}
		out = append(out, entry...)
		if prev != nil {
			newEntry := append(append([]byte{}, prev...), entry[0])
			table = append(table, newEntry)
		}
		prev = entry

		// EarlyChange=1: widen one code early.
		switch {
		case len(table) == 511:
			width = 10
		case len(table) == 1023:
			width = 11
		case len(table) == 2047:
			width = 12
		}
	}
	return out, nil
}
