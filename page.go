// SPDX-License-Identifier: BSD-3-Clause

package xtract

import "github.com/pdfscan/pdfscan/logger"

// Page is one node of the flattened page tree: a Pages (inner), Page
// (leaf), or Template node. Parent is a non-owning back-reference; the
// owning store is the Reader's object map, never a direct pointer cycle.
type Page struct {
	V       Value
	Parent  *Page
	Index   int // 1-based leaf index; zero for non-leaf nodes
	Content []byte
}

// Resources returns this node's effective Resources dictionary, inheriting
// up the parent chain when the node itself has none.
func (p *Page) Resources() Value {
	if r := p.V.Key("Resources"); !r.IsNull() {
		return r
	}
	if p.Parent != nil {
		return p.Parent.Resources()
	}
	return Value{}
}

// ResourcesInherited reports whether this node's Resources come from an
// ancestor rather than being declared locally.
func (p *Page) ResourcesInherited() bool {
	return p.V.Key("Resources").IsNull()
}

// Document is the fully loaded structural view of a PDF: the catalog, the
// page-tree root, and the ordered leaf-page list, per section 4.6.
type Document struct {
	r       *Reader
	Catalog Value
	Root    *Page
	Pages   []*Page
}

// LoadDocument walks the page tree rooted at the catalog's Pages entry,
// depth-first pre-order, materializing each leaf's merged content stream.
func LoadDocument(r *Reader) (*Document, error) {
	cat, err := r.Catalog()
	if err != nil {
		return nil, err
	}
	doc := &Document{r: r, Catalog: cat}
	root, err := doc.walk(cat.Key("Pages"), nil)
	if err != nil {
		return nil, err
	}
	doc.Root = root
	return doc, nil
}

func (doc *Document) walk(v Value, parent *Page) (*Page, error) {
	if v.Kind() != Dictionary {
		return nil, conformance("page tree node is not a dictionary")
	}
	typ := v.Key("Type")
	if typ.Kind() != Name {
		return nil, conformance("page tree node has no Type")
	}
	node := &Page{V: v, Parent: parent}
	switch typ.NameString() {
	case "Pages":
		kids := v.Key("Kids")
		if kids.Kind() != Array {
			return nil, conformance("Pages node has no Kids array")
		}
		if v.Key("Count").IsNull() {
			return nil, conformance("Pages node has no Count")
		}
		for i := 0; i < kids.Len(); i++ {
			if _, err := doc.walk(kids.Index(i), node); err != nil {
				return nil, err
			}
		}
	case "Page":
		node.Index = len(doc.Pages) + 1
		doc.Pages = append(doc.Pages, node)
		content, err := doc.mergeContent(node)
		if err != nil {
			if doc.r.cfg.ParsingMode == BestEffort {
				logger.Error("skipping unreadable page content in best-effort mode", "page", node.Index, "err", err.Error())
			} else {
				return nil, err
			}
		}
		node.Content = content
	case "Template":
		// accepted, not recursed into or appended to the leaf list
	default:
		return nil, conformance("unknown page tree node Type %q", typ.NameString())
	}
	return node, nil
}

// mergeContent dereferences a page's Contents (absent, one stream, or an
// array of streams), decodes each, and concatenates them in order. No
// content-operator interpretation happens here; the core exposes only the
// merged bytes.
func (doc *Document) mergeContent(p *Page) ([]byte, error) {
	c := p.V.Key("Contents")
	if c.IsNull() {
		return nil, nil
	}
	var streams []Value
	switch c.Kind() {
	case Stream:
		streams = []Value{c}
	case Array:
		for i := 0; i < c.Len(); i++ {
			streams = append(streams, c.Index(i))
		}
	default:
		return nil, conformance("page Contents is neither a stream nor an array of streams")
	}
	decoded, err := decodeStreamsConcurrently(doc.r.cfg, streams)
	if err != nil {
		return nil, err
	}
	var merged []byte
	for _, d := range decoded {
		merged = append(merged, d...)
	}
	return merged, nil
}
