// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, data []byte) *Reader {
	t.Helper()
	r, err := NewReader(context.Background(), data, NewDefaultConfig())
	require.NoError(t, err)
	return r
}

func TestNewReader_OnePageDocument(t *testing.T) {
	r := loadFixture(t, minimalOnePagePDF())

	major, minor := r.Version()
	assert.Equal(t, 1, major)
	assert.Equal(t, 7, minor)

	cat, err := r.Catalog()
	require.NoError(t, err)
	assert.Equal(t, "Catalog", cat.Key("Type").NameString())

	doc, err := LoadDocument(r)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "BT ET", string(doc.Pages[0].Content))
}

func TestNewReader_TwoPagesInheritRootResources(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 /Resources << /Font << /F1 5 0 R >> >> >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Contents 6 0 R >>")
	b.obj(4, "<< /Type /Page /Parent 2 0 R /Contents 7 0 R >>")
	b.obj(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.stream(6, "", "one")
	b.stream(7, "", "two")
	data := b.finish(7, "")

	r := loadFixture(t, data)
	doc, err := LoadDocument(r)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)

	for _, p := range doc.Pages {
		assert.True(t, p.ResourcesInherited())
		res := p.Resources()
		assert.Equal(t, "Helvetica", res.Key("Font").Key("F1").Key("BaseFont").NameString())
	}
	assert.Equal(t, "one", string(doc.Pages[0].Content))
	assert.Equal(t, "two", string(doc.Pages[1].Content))
}

func TestNewReader_ContentsArrayOfStreamsConcatenates(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Resources << >> /Contents [4 0 R 5 0 R] >>")
	b.stream(4, "", "hello ")
	b.stream(5, "", "world")
	data := b.finish(5, "")

	r := loadFixture(t, data)
	doc, err := LoadDocument(r)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "hello world", string(doc.Pages[0].Content))
	assert.False(t, doc.Pages[0].ResourcesInherited())
}

func TestNewReader_FlateDecodeContentDecodesToOriginalLength(t *testing.T) {
	var zbuf bytes.Buffer
	w := zlib.NewWriter(&zbuf)
	original := "BT /F1 12 Tf (Hello) Tj ET"
	_, err := w.Write([]byte(original))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Resources << >> /Contents 4 0 R >>")
	b.offsets[4] = int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "4 0 obj\n<< /Length %d /Filter /FlateDecode >>\nstream\n", zbuf.Len())
	b.buf.Write(zbuf.Bytes())
	fmt.Fprintf(&b.buf, "\nendstream\nendobj\n")
	data := b.finish(4, "")

	r := loadFixture(t, data)
	doc, err := LoadDocument(r)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, original, string(doc.Pages[0].Content))
	assert.Less(t, zbuf.Len(), len(original)+20) // sanity: raw payload really was compressed-sized
}

func TestNewReader_TrailerPrevIsNotSupported(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	data := b.finish(2, " /Prev 0")

	_, err := NewReader(context.Background(), data, NewDefaultConfig())
	require.Error(t, err)
	assert.IsType(t, &NotSupportedError{}, err)
}

func TestNewReader_MissingTrailerRootIsConformance(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	// build the file by hand since finish() always writes /Root.
	xrefOff := int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "xref\n0 3\n")
	fmt.Fprintf(&b.buf, "%010d %05d f\n", 0, 65535)
	for i := 1; i <= 2; i++ {
		fmt.Fprintf(&b.buf, "%010d %05d n\n", b.offsets[i], 0)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size 3 >>\n")
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", xrefOff)

	_, err := NewReader(context.Background(), b.buf.Bytes(), NewDefaultConfig())
	require.Error(t, err)
	assert.IsType(t, &ConformanceError{}, err)
}

func TestNewReader_BadHeaderIsConformance(t *testing.T) {
	_, err := NewReader(context.Background(), []byte("not a pdf at all"), NewDefaultConfig())
	require.Error(t, err)
	assert.IsType(t, &ConformanceError{}, err)
}

func TestNewReader_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader(ctx, minimalOnePagePDF(), NewDefaultConfig())
	require.Error(t, err)
}

func TestNewReader_MaxObjectsLimitIsConformance(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxObjects = 1
	_, err := NewReader(context.Background(), minimalOnePagePDF(), cfg)
	require.Error(t, err)
	assert.IsType(t, &ConformanceError{}, err)
}

func TestNewReader_LoadIsIdempotentAcrossRepeatedLoads(t *testing.T) {
	data := minimalOnePagePDF()
	r1 := loadFixture(t, data)
	r2 := loadFixture(t, data)

	assert.Equal(t, r1.versionMajor, r2.versionMajor)
	assert.Equal(t, r1.versionMinor, r2.versionMinor)
	assert.Equal(t, r1.trailer, r2.trailer)
	assert.Equal(t, r1.objects, r2.objects)

	doc1, err := LoadDocument(r1)
	require.NoError(t, err)
	doc2, err := LoadDocument(r2)
	require.NoError(t, err)
	require.Len(t, doc1.Pages, 1)
	require.Len(t, doc2.Pages, 1)
	assert.Equal(t, doc1.Pages[0].Content, doc2.Pages[0].Content)
}
