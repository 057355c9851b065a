// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"fmt"
)

// pdfBuilder assembles a minimal, well-formed single-section-xref PDF byte
// stream for tests, tracking each indirect object's byte offset as it is
// written so the xref table and startxref pointer are always consistent
// with the actual bytes produced, rather than hand-computed constants.
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int64
	version string
}

func newPDFBuilder(version string) *pdfBuilder {
	b := &pdfBuilder{offsets: make(map[int]int64), version: version}
	fmt.Fprintf(&b.buf, "%%PDF-%s\n", version)
	return b
}

// obj writes "<num> 0 obj\n<body>\nendobj\n", recording the object's offset.
func (b *pdfBuilder) obj(num int, body string) {
	b.offsets[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

// stream writes a stream object whose Length is computed from payload,
// never hand-supplied, so it can never drift from the actual bytes.
func (b *pdfBuilder) stream(num int, extraDict string, payload string) {
	b.offsets[num] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Length %d%s >>\nstream\n%s\nendstream\nendobj\n", num, len(payload), extraDict, payload)
}

// finish writes the xref table, trailer, and startxref/%%EOF trailer for
// object numbers 1..maxObj (plus the free head entry 0) and returns the
// complete byte stream.
func (b *pdfBuilder) finish(maxObj int, trailerExtra string) []byte {
	xrefOff := int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", maxObj+1)
	fmt.Fprintf(&b.buf, "%010d %05d f\n", 0, 65535)
	for i := 1; i <= maxObj; i++ {
		off, ok := b.offsets[i]
		if !ok {
			panic(fmt.Sprintf("object %d was never written", i))
		}
		fmt.Fprintf(&b.buf, "%010d %05d n\n", off, 0)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\n", maxObj+1, trailerExtra)
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", xrefOff)
	return b.buf.Bytes()
}

// minimalOnePagePDF builds a single-page document: catalog(1) -> pages(2)
// -> page(3) with Resources and Contents(4), the classic smallest shape
// used across the document-loading tests.
func minimalOnePagePDF() []byte {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>")
	b.stream(4, "", "BT ET")
	b.obj(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	return b.finish(5, "")
}
