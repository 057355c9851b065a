// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/pdfscan/pdfscan/logger"
)

// xrefEntry is one row of a cross-reference table: the byte offset, the
// generation number, and whether the entry is free (and so not
// materialized).
type xrefEntry struct {
	offset int64
	gen    uint16
	free   bool
}

// Reader is the loaded, immutable view of one PDF document: the header
// version, the single xref table, the validated trailer, and the eagerly
// materialized object store. All entities here are created once at Open
// time and never mutated afterward.
type Reader struct {
	cfg *Config

	buf *buffer
	par *parser

	versionMajor, versionMinor int

	xref    map[uint32]xrefEntry
	trailer dict
	objects map[uint32]interface{}
}

// Open reads path fully into memory and loads it as a PDF document.
func Open(ctx context.Context, path string, cfg *Config) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewReader(ctx, data, cfg)
}

// NewReader loads a PDF document already held in memory.
func NewReader(ctx context.Context, data []byte, cfg *Config) (*Reader, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ReadTimeout)
	defer cancel()

	done := make(chan struct{})
	var r *Reader
	var loadErr error
	go func() {
		defer close(done)
		r, loadErr = load(data, cfg)
	}()
	select {
	case <-done:
		return r, loadErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func load(data []byte, cfg *Config) (*Reader, error) {
	buf := newBuffer(bytes.NewReader(data), 0)
	r := &Reader{
		cfg:     cfg,
		buf:     buf,
		par:     newParser(buf),
		xref:    make(map[uint32]xrefEntry),
		objects: make(map[uint32]interface{}),
	}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	offset, err := r.findLastStartxref()
	if err != nil {
		return nil, err
	}
	if err := r.readXrefTable(offset); err != nil {
		return nil, err
	}
	if len(r.xref) > cfg.MaxObjects {
		return nil, conformance("xref table declares %d objects, exceeding the configured limit of %d", len(r.xref), cfg.MaxObjects)
	}
	if err := r.loadObjects(); err != nil {
		return nil, err
	}
	if err := r.readTrailer(); err != nil {
		return nil, err
	}
	return r, nil
}

// Version returns the (major, minor) header version, e.g. (1, 7).
func (r *Reader) Version() (int, int) { return r.versionMajor, r.versionMinor }

func (r *Reader) versionAtLeast(major, minor int) bool {
	if r.versionMajor != major {
		return r.versionMajor > major
	}
	return r.versionMinor >= minor
}

func (r *Reader) readHeader() error {
	line := r.buf.getLine(0)
	if !bytes.HasPrefix(line, []byte("%PDF-")) {
		return conformance("file does not begin with a %%PDF- header")
	}
	version := string(line[5:])
	parts := strings.SplitN(version, ".", 2)
	if len(parts) != 2 {
		return conformance("malformed header version %q", version)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return conformanceWrap(err, "malformed header major version %q", parts[0])
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return conformanceWrap(err, "malformed header minor version %q", parts[1])
	}
	r.versionMajor, r.versionMinor = major, minor
	logger.Debug("header version parsed", "major", major, "minor", minor, true)
	return nil
}

// findLastStartxref scans lines bottom-up for the literal "startxref"; the
// following line must be a decimal byte offset.
func (r *Reader) findLastStartxref() (int64, error) {
	n := r.buf.numLines()
	for i := n - 1; i >= 0; i-- {
		if string(r.buf.getLine(i)) != "startxref" {
			continue
		}
		if i+1 >= n {
			return 0, conformance("startxref cannot be the last line")
		}
		offLine := strings.TrimSpace(string(r.buf.getLine(i + 1)))
		off, err := strconv.ParseInt(offLine, 10, 64)
		if err != nil {
			return 0, conformanceWrap(err, "startxref offset %q is not a decimal integer", offLine)
		}
		logger.Debug("startxref located", "offset", off, true)
		return off, nil
	}
	return 0, conformance("no startxref found")
}

// readXrefTable parses the single cross-reference table at offset: the
// literal "xref", one or more subsections each beginning with
// "first_obj_num num_entries", followed by that many fixed-format
// NNNNNNNNNN GGGGG f|n entries.
func (r *Reader) readXrefTable(offset int64) error {
	idx := r.buf.findLineContaining(offset)
	if idx < 0 {
		return conformance("startxref offset %d does not point to a line", offset)
	}
	if string(r.buf.getLine(idx)) != "xref" {
		return conformance("startxref offset does not point to an xref table")
	}
	idx++
	for idx < r.buf.numLines() {
		header := strings.Fields(string(r.buf.getLine(idx)))
		if len(header) != 2 {
			break
		}
		firstObj, err1 := strconv.ParseInt(header[0], 10, 64)
		numEntries, err2 := strconv.ParseInt(header[1], 10, 64)
		if err1 != nil || err2 != nil {
			break
		}
		idx++
		for i := int64(0); i < numEntries; i++ {
			entry, err := parseXrefEntryLine(r.buf.getLine(idx))
			if err != nil {
				return err
			}
			objNum := uint32(firstObj + i)
			r.xref[objNum] = entry
			idx++
		}
	}
	logger.Debug("xref table read", "entries", len(r.xref), true)
	return nil
}

// parseXrefEntryLine parses the fixed-format entry "NNNNNNNNNN GGGGG f|n",
// 10-digit byte offset, single space, 5-digit generation, single space,
// one-character in-use flag.
func parseXrefEntryLine(line []byte) (xrefEntry, error) {
	if len(line) < 18 {
		return xrefEntry{}, conformance("xref entry line too short: %q", line)
	}
	offStr := strings.TrimSpace(string(line[0:10]))
	genStr := strings.TrimSpace(string(line[11:16]))
	flag := line[17]
	off, err := strconv.ParseInt(offStr, 10, 64)
	if err != nil {
		return xrefEntry{}, conformanceWrap(err, "xref entry offset %q", offStr)
	}
	gen, err := strconv.ParseInt(genStr, 10, 32)
	if err != nil {
		return xrefEntry{}, conformanceWrap(err, "xref entry generation %q", genStr)
	}
	var free bool
	switch flag {
	case 'f':
		free = true
	case 'n':
		free = false
	default:
		return xrefEntry{}, conformance("xref entry in-use flag must be 'f' or 'n', got %q", flag)
	}
	return xrefEntry{offset: off, gen: uint16(gen), free: free}, nil
}

// loadObjects materializes every in-use xref entry by seeking to its
// offset and invoking the object parser.
func (r *Reader) loadObjects() error {
	for num, entry := range r.xref {
		if entry.free {
			continue
		}
		r.buf.seek(entry.offset)
		obj, err := r.par.next()
		if err != nil {
			return err
		}
		def, ok := obj.(objdef)
		if !ok {
			return conformance("xref entry %d does not point to an indirect object", num)
		}
		if def.ptr.id != num || def.ptr.gen != entry.gen {
			return conformance("object %d %d mismatches its xref entry (found %d %d)", num, entry.gen, def.ptr.id, def.ptr.gen)
		}
		r.objects[num] = def.obj
	}
	return nil
}

// readTrailer scans bottom-up for the literal "trailer", parses the
// dictionary that follows, and validates the required keys.
func (r *Reader) readTrailer() error {
	n := r.buf.numLines()
	for i := n - 1; i >= 0; i-- {
		if string(r.buf.getLine(i)) != "trailer" {
			continue
		}
		if i+1 >= n {
			return conformance("trailer cannot be the last line")
		}
		r.buf.seekToLine(i + 1)
		obj, err := r.par.next()
		if err != nil {
			return err
		}
		d, ok := obj.(dict)
		if !ok {
			return conformance("trailer is not a dictionary")
		}
		return r.validateTrailer(d)
	}
	return conformance("no trailer found")
}

func (r *Reader) validateTrailer(d dict) error {
	if _, ok := d["Size"]; !ok {
		return conformance("trailer dictionary lacks required Size key")
	}
	if _, ok := d["Root"]; !ok {
		return conformance("trailer dictionary lacks required Root key")
	}
	_, hasEncrypt := d["Encrypt"]
	if _, ok := d["ID"]; !ok {
		if r.versionAtLeast(2, 0) || hasEncrypt {
			return conformance("trailer dictionary lacks required ID key")
		}
	}
	if _, ok := d["Prev"]; ok {
		return notSupported("incrementally updated PDFs (trailer Prev key)")
	}
	r.trailer = d
	return nil
}

// Trailer returns the validated trailer dictionary as a Value.
func (r *Reader) Trailer() Value {
	return r.resolve(objptr{}, r.trailer)
}

// Catalog resolves the trailer's Root entry.
func (r *Reader) Catalog() (Value, error) {
	root := r.Trailer().Key("Root")
	if root.Kind() != Dictionary {
		return Value{}, conformance("trailer Root does not resolve to a dictionary")
	}
	if root.Key("Type").NameString() != "Catalog" {
		return Value{}, conformance("catalog dictionary Type is not /Catalog")
	}
	if root.Key("Pages").IsNull() {
		return Value{}, conformance("catalog dictionary lacks required Pages key")
	}
	return root, nil
}

// resolve wraps a raw direct value (possibly an objptr) into a Value bound
// to this Reader, dereferencing indirect references against the object
// store. parent is retained so relative lookups (e.g. page Parent chains)
// can still reach the store.
func (r *Reader) resolve(parent objptr, x interface{}) Value {
	ptr, ok := x.(objptr)
	if !ok {
		return Value{r: r, ptr: parent, data: x}
	}
	obj, ok := r.objects[ptr.id]
	if !ok {
		return Value{r: r, ptr: ptr, data: nil}
	}
	return Value{r: r, ptr: ptr, data: obj}
}

// Bytes returns a Stream's filter-decoded payload.
func (v Value) Bytes() ([]byte, error) {
	s, ok := v.data.(stream)
	if !ok {
		return nil, bug("Bytes called on a non-Stream Value")
	}
	raw, err := v.r.buf.bytesAt(s.offset, s.length)
	if err != nil {
		return nil, err
	}
	return decodeStream(s.hdr, raw)
}

// RawBytes returns a Stream's undecoded payload as stored in the file.
func (v Value) RawBytes() ([]byte, error) {
	s, ok := v.data.(stream)
	if !ok {
		return nil, bug("RawBytes called on a non-Stream Value")
	}
	return v.r.buf.bytesAt(s.offset, s.length)
}
