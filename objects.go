// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"fmt"
	"sort"
	"strconv"
)

// objptr identifies an indirect object by its (object number, generation)
// pair. Equality and hashing (map-key use) are the pair itself, matching
// PDF's IndirectReference semantics.
type objptr struct {
	id  uint32
	gen uint16
}

func (p objptr) String() string {
	return fmt.Sprintf("%d %d R", p.id, p.gen)
}

// name is a resolved PDF name: the decoded byte string after #xx escaping,
// never the source representation. Two names with the same decoded bytes
// compare equal regardless of how each was spelled on the wire.
type name string

// keyword is a bare literal token the parser recognizes structurally
// (true, false, null, obj, endobj, stream, endstream, xref, trailer,
// startxref, R, n, f) rather than turning into a Value.
type keyword string

// array is an ordered PDF array; elements are unresolved direct values
// (int64, float64, bool, litString, hexString, name, array, dict, stream,
// objptr, or nil for Null) until accessed through a Value, at which point
// indirect references are resolved against the owning Reader.
type array []interface{}

// dict is a PDF dictionary keyed by name. A Null value is never stored:
// the parser treats "key with value null" the same as "key absent".
type dict map[name]interface{}

// stream is a dict plus the location of its raw (not yet filter-decoded)
// payload in the source. The payload itself is read lazily through the
// owning Reader.
type stream struct {
	hdr    dict
	offset int64
	length int64
}

// objdef is a fully parsed indirect object: a number/generation pair
// wrapping a direct value. It always wraps a direct object, never another
// indirect one.
type objdef struct {
	ptr objptr
	obj interface{}
}

// litString and hexString are distinct so LiteralString and HexString stay
// distinguishable variants of the object algebra even though both decode to
// a byte payload.
type litString []byte
type hexString []byte

// ValueKind tags the variant a Value currently holds.
type ValueKind int

const (
	Null ValueKind = iota
	Boolean
	Integer
	Real
	LiteralString
	HexString
	Name
	Array
	Dictionary
	Stream
	IndirectReference
	IndirectObject
)

func (k ValueKind) String() string {
	switch k {
	case Null:
		return "Null"
	case Boolean:
		return "Boolean"
	case Integer:
		return "Integer"
	case Real:
		return "Real"
	case LiteralString:
		return "LiteralString"
	case HexString:
		return "HexString"
	case Name:
		return "Name"
	case Array:
		return "Array"
	case Dictionary:
		return "Dictionary"
	case Stream:
		return "Stream"
	case IndirectReference:
		return "IndirectReference"
	case IndirectObject:
		return "IndirectObject"
	default:
		return "Unknown"
	}
}

// Value is a PDF object, direct or (transparently) resolved from an
// indirect reference. The zero Value is Null.
type Value struct {
	r    *Reader
	ptr  objptr
	data interface{}
}

// IsNull reports whether v is the Null object (including the zero Value).
func (v Value) IsNull() bool {
	return v.data == nil
}

// Kind reports which variant of the object algebra v holds.
func (v Value) Kind() ValueKind {
	switch v.data.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case int64:
		return Integer
	case float64:
		return Real
	case litString:
		return LiteralString
	case hexString:
		return HexString
	case name:
		return Name
	case array:
		return Array
	case dict:
		return Dictionary
	case stream:
		return Stream
	case objptr:
		return IndirectReference
	case objdef:
		return IndirectObject
	default:
		return Null
	}
}

func (v Value) Bool() bool {
	b, _ := v.data.(bool)
	return b
}

func (v Value) Int64() int64 {
	switch x := v.data.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	}
	return 0
}

func (v Value) Float64() float64 {
	switch x := v.data.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

// RawString returns the decoded bytes of a LiteralString or HexString.
func (v Value) RawString() []byte {
	switch x := v.data.(type) {
	case litString:
		return []byte(x)
	case hexString:
		return []byte(x)
	}
	return nil
}

// NameString returns the decoded name, or "" if v is not a Name.
func (v Value) NameString() string {
	if n, ok := v.data.(name); ok {
		return string(n)
	}
	return ""
}

// Len reports the element count of an Array, or the key count of a
// Dictionary/Stream header; 0 otherwise.
func (v Value) Len() int {
	switch x := v.data.(type) {
	case array:
		return len(x)
	case dict:
		return len(x)
	case stream:
		return len(x.hdr)
	}
	return 0
}

// Index returns the i'th element of an Array, resolving indirect
// references. Out-of-range or non-Array returns Null.
func (v Value) Index(i int) Value {
	a, ok := v.data.(array)
	if !ok || i < 0 || i >= len(a) {
		return Value{}
	}
	return v.r.resolve(v.ptr, a[i])
}

// Key looks up a dictionary entry (or a stream's header entry) by name,
// resolving indirect references. Absent keys (including ones holding Null,
// which the parser never stores) return the zero Value.
func (v Value) Key(key string) Value {
	var d dict
	switch x := v.data.(type) {
	case dict:
		d = x
	case stream:
		d = x.hdr
	default:
		return Value{}
	}
	val, ok := d[name(key)]
	if !ok {
		return Value{}
	}
	return v.r.resolve(v.ptr, val)
}

// Keys returns the sorted key names of a Dictionary or Stream header.
func (v Value) Keys() []string {
	var d dict
	switch x := v.data.(type) {
	case dict:
		d = x
	case stream:
		d = x.hdr
	default:
		return nil
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// String renders v for debugging/summary purposes; it is not a parser for
// round-tripping PDF syntax.
func (v Value) String() string {
	return objfmt(v.data)
}

func objfmt(x interface{}) string {
	switch t := x.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case litString:
		return strconv.Quote(string(t))
	case hexString:
		return strconv.Quote(string(t))
	case name:
		return "/" + string(t)
	case array:
		s := "["
		for i, e := range t {
			if i > 0 {
				s += " "
			}
			s += objfmt(e)
		}
		return s + "]"
	case dict:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		s := "<<"
		for i, k := range keys {
			if i > 0 {
				s += " "
			}
			s += "/" + k + " " + objfmt(t[name(k)])
		}
		return s + ">>"
	case stream:
		return objfmt(t.hdr) + "@" + strconv.FormatInt(t.offset, 10)
	case objptr:
		return t.String()
	case objdef:
		return fmt.Sprintf("{%d %d obj}%s", t.ptr.id, t.ptr.gen, objfmt(t.obj))
	default:
		return fmt.Sprintf("%v", t)
	}
}
