// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteSummary renders the loaded document's structure: header version,
// catalog reference, trailer Info metadata (when present), and per-page
// resource/content/font details. Format is a human-readable report, not a
// machine-parsable contract (section 4.7).
func WriteSummary(w io.Writer, doc *Document, showContent bool) {
	major, minor := doc.r.Version()
	fmt.Fprintf(w, "PDF version: %d.%d\n", major, minor)

	if info := doc.r.Trailer().Key("Info"); info.Kind() == Dictionary {
		writeInfo(w, info)
	}

	fmt.Fprintf(w, "Catalog: %s\n", doc.Catalog.ptr.String())
	fmt.Fprintf(w, "Document contains %d page(s)\n", len(doc.Pages))

	for _, p := range doc.Pages {
		inherited := ""
		if p.ResourcesInherited() {
			inherited = " (inherited)"
		}
		res := p.Resources()
		fmt.Fprintf(w, "Page #%d: %d resource(s)%s, %d content byte(s)\n",
			p.Index, res.Len(), inherited, len(p.Content))

		if fonts := res.Key("Font"); fonts.Kind() == Dictionary {
			for _, key := range fonts.Keys() {
				font := fonts.Key(key)
				fmt.Fprintf(w, "  Font /%s: BaseFont=%s Subtype=%s\n",
					key, nameOrDash(font.Key("BaseFont")), nameOrDash(font.Key("Subtype")))
			}
		}

		if showContent {
			fmt.Fprintf(w, "%s\n", string(p.Content))
		}
	}
}

func nameOrDash(v Value) string {
	if v.Kind() != Name {
		return "-"
	}
	return v.NameString()
}

// jsonPage and jsonSummary back the -json flag's structured output. This
// is the one place the core's Value algebra is flattened into plain Go
// values for marshaling; it is not part of the object algebra itself.
type jsonPage struct {
	Index             int    `json:"index"`
	Resources         int    `json:"resources"`
	ResourcesInherited bool  `json:"resourcesInherited"`
	ContentBytes      int    `json:"contentBytes"`
}

type jsonSummary struct {
	VersionMajor int        `json:"versionMajor"`
	VersionMinor int        `json:"versionMinor"`
	Pages        []jsonPage `json:"pages"`
}

// WriteJSONSummary renders the header version and, per page, the leaf
// index, resource count, inheritance flag and content length as JSON, for
// the -json/-j flag. The catalog reference, trailer Info and font details
// that WriteSummary prints are not included.
func WriteJSONSummary(w io.Writer, doc *Document) error {
	major, minor := doc.r.Version()
	s := jsonSummary{VersionMajor: major, VersionMinor: minor}
	for _, p := range doc.Pages {
		s.Pages = append(s.Pages, jsonPage{
			Index:              p.Index,
			Resources:          p.Resources().Len(),
			ResourcesInherited: p.ResourcesInherited(),
			ContentBytes:       len(p.Content),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func writeInfo(w io.Writer, info Value) {
	fmt.Fprintln(w, "Document information:")
	for _, key := range []string{"Title", "Author", "Subject", "Creator", "Producer", "CreationDate", "ModDate"} {
		v := info.Key(key)
		if v.IsNull() {
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", key, string(v.RawString()))
	}
}
