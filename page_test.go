// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDocument_WalksDepthFirstPreOrder(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R 4 0 R 5 0 R] /Count 3 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Resources << >> /Contents 6 0 R >>")
	b.obj(4, "<< /Type /Page /Parent 2 0 R /Resources << >> /Contents 7 0 R >>")
	b.obj(5, "<< /Type /Page /Parent 2 0 R /Resources << >> /Contents 8 0 R >>")
	b.stream(6, "", "first")
	b.stream(7, "", "second")
	b.stream(8, "", "third")
	data := b.finish(8, "")

	r := loadFixture(t, data)
	doc, err := LoadDocument(r)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)
	assert.Equal(t, 1, doc.Pages[0].Index)
	assert.Equal(t, 2, doc.Pages[1].Index)
	assert.Equal(t, 3, doc.Pages[2].Index)
	assert.Equal(t, "first", string(doc.Pages[0].Content))
	assert.Equal(t, "second", string(doc.Pages[1].Content))
	assert.Equal(t, "third", string(doc.Pages[2].Content))
}

func TestLoadDocument_TemplateNodeAcceptedButNotALeaf(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Template /Parent 2 0 R >>")
	b.obj(4, "<< /Type /Page /Parent 2 0 R /Resources << >> /Contents 5 0 R >>")
	b.stream(5, "", "only page")
	data := b.finish(5, "")

	r := loadFixture(t, data)
	doc, err := LoadDocument(r)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "only page", string(doc.Pages[0].Content))
}

func TestLoadDocument_UnknownNodeTypeIsConformance(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Bogus /Parent 2 0 R >>")
	data := b.finish(3, "")

	r := loadFixture(t, data)
	_, err := LoadDocument(r)
	require.Error(t, err)
	assert.IsType(t, &ConformanceError{}, err)
}

func TestLoadDocument_PageWithNoContentsHasNilContent(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Resources << >> >>")
	data := b.finish(3, "")

	r := loadFixture(t, data)
	doc, err := LoadDocument(r)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Nil(t, doc.Pages[0].Content)
}

func TestPage_ResourcesWalksUpMultipleAncestors(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /Resources << /Font << /F1 5 0 R >> >> >>")
	b.obj(3, "<< /Type /Pages /Parent 2 0 R /Kids [4 0 R] /Count 1 >>")
	b.obj(4, "<< /Type /Page /Parent 3 0 R /Contents 6 0 R >>")
	b.obj(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>")
	b.stream(6, "", "x")
	data := b.finish(6, "")

	r := loadFixture(t, data)
	doc, err := LoadDocument(r)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]
	assert.True(t, page.ResourcesInherited())
	assert.Equal(t, "Courier", page.Resources().Key("Font").Key("F1").Key("BaseFont").NameString())
}

func TestLoadDocument_CatalogMissingPagesIsConformance(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog >>")
	data := b.finish(1, "")

	r := loadFixture(t, data)
	_, err := LoadDocument(r)
	require.Error(t, err)
	assert.IsType(t, &ConformanceError{}, err)
}

func TestLoadDocument_BestEffortSkipsUnreadablePageContent(t *testing.T) {
	b := newPDFBuilder("1.7")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	// Contents points at a dictionary, not a stream or array: a conformance
	// violation mergeContent reports, tolerated only in BestEffort mode.
	b.obj(3, "<< /Type /Page /Parent 2 0 R /Resources << >> /Contents 4 0 R >>")
	b.obj(4, "<< /NotAStream true >>")
	data := b.finish(4, "")

	cfg := NewDefaultConfig()
	cfg.ParsingMode = BestEffort
	r, err := NewReader(context.Background(), data, cfg)
	require.NoError(t, err)

	doc, err := LoadDocument(r)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Nil(t, doc.Pages[0].Content)
}
