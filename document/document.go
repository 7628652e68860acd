// Package document defines the Document value type shared by the index,
// rankers, snapshot codec, and engine façade.
package document

import (
	"sort"
	"strings"
)

// Document is a single indexable unit: an id plus named text fields.
// TermCount caches the number of analyzed terms the tokenizer produced for
// this document and is filled in during indexing.
type Document struct {
	ID        uint64            `json:"id"`
	Fields    map[string]string `json:"fields"`
	TermCount int               `json:"term_count"`
}

// New creates a Document with the given fields. An ID of zero asks the
// engine to assign one.
func New(fields map[string]string) Document {
	return Document{Fields: fields}
}

// AllText concatenates every field value with single spaces, in sorted
// field-name order so the result is deterministic regardless of map
// iteration order.
func (d *Document) AllText() string {
	if len(d.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, d.Fields[k])
	}
	return strings.Join(values, " ")
}

// Clone returns a deep copy. Results handed to callers carry clones so they
// never alias the engine's document store.
func (d *Document) Clone() Document {
	out := Document{
		ID:        d.ID,
		TermCount: d.TermCount,
	}
	if d.Fields != nil {
		out.Fields = make(map[string]string, len(d.Fields))
		for k, v := range d.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
