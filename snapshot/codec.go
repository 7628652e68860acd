// Package snapshot serializes the whole engine to a single binary file and
// back. The codec consumes an explicit State view built by the engine under
// its read lock and produces one the engine applies under its write lock,
// so neither side reaches into the other's internals.
//
// On-disk layout, little-endian, tightly packed:
//
//	header  { u32 magic, u32 version, u64 num_documents, u64 num_terms }
//	u64 next_doc_id
//	documents: u64 id, u64 term_count, u64 num_fields,
//	           fields as (u64 key_len, key, u64 val_len, val)
//	u64 num_index_terms
//	terms: u64 term_len, term, u64 num_postings,
//	       postings as (u64 doc_id, u32 tf, u64 num_positions, u32...)
package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/searchlite/searchlite/document"
	"github.com/searchlite/searchlite/index"
	"github.com/searchlite/searchlite/pkg/errors"
)

const (
	// Magic spells "SEAR" when read as big-endian ASCII.
	Magic   uint32 = 0x53454152
	Version uint32 = 1

	// maxBlobLen bounds any single length prefix read back from disk, so
	// corrupt files fail cleanly instead of forcing absurd allocations.
	maxBlobLen = 1 << 30
)

// TermPostings pairs a term with its complete posting list.
type TermPostings struct {
	Term     string
	Postings []index.Posting
}

// State is the codec's view of the engine: everything needed to rebuild it.
type State struct {
	NextDocID uint64
	Documents []document.Document
	Terms     []TermPostings
}

// Save writes the state to path atomically: a temp file in the same
// directory is renamed over the target only after a successful sync, so an
// I/O failure never leaves a half-written snapshot under the final name.
func Save(path string, st *State) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := Write(w, st); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}

// Load reads and validates a snapshot file.
func Load(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()
	st, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return st, nil
}

// Write serializes st to w. Documents are written in ascending id order and
// fields in sorted key order so identical states produce identical bytes.
func Write(w io.Writer, st *State) error {
	docs := append([]document.Document(nil), st.Documents...)
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	terms := append([]TermPostings(nil), st.Terms...)
	sort.Slice(terms, func(i, j int) bool { return terms[i].Term < terms[j].Term })

	if err := writeU32(w, Magic); err != nil {
		return err
	}
	if err := writeU32(w, Version); err != nil {
		return err
	}
	if err := writeU64(w, uint64(len(docs))); err != nil {
		return err
	}
	if err := writeU64(w, uint64(len(terms))); err != nil {
		return err
	}
	if err := writeU64(w, st.NextDocID); err != nil {
		return err
	}

	for _, doc := range docs {
		if err := writeU64(w, doc.ID); err != nil {
			return err
		}
		if err := writeU64(w, uint64(doc.TermCount)); err != nil {
			return err
		}
		if err := writeU64(w, uint64(len(doc.Fields))); err != nil {
			return err
		}
		keys := make([]string, 0, len(doc.Fields))
		for k := range doc.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeString(w, k); err != nil {
				return err
			}
			if err := writeString(w, doc.Fields[k]); err != nil {
				return err
			}
		}
	}

	if err := writeU64(w, uint64(len(terms))); err != nil {
		return err
	}
	for _, tp := range terms {
		if err := writeString(w, tp.Term); err != nil {
			return err
		}
		if err := writeU64(w, uint64(len(tp.Postings))); err != nil {
			return err
		}
		for _, p := range tp.Postings {
			if err := writeU64(w, p.DocID); err != nil {
				return err
			}
			if err := writeU32(w, p.TermFrequency); err != nil {
				return err
			}
			if err := writeU64(w, uint64(len(p.Positions))); err != nil {
				return err
			}
			for _, pos := range p.Positions {
				if err := writeU32(w, pos); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Read deserializes a State from r, rejecting unknown magic or version
// before touching anything else.
func Read(r io.Reader) (*State, error) {
	magic, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: bad magic %#x", errors.ErrSnapshotCorrupt, magic)
	}
	version, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", errors.ErrSnapshotCorrupt, version)
	}

	numDocs, err := readU64(r)
	if err != nil {
		return nil, err
	}
	if _, err := readU64(r); err != nil { // header term count, informational
		return nil, err
	}
	nextDocID, err := readU64(r)
	if err != nil {
		return nil, err
	}
	if numDocs > maxBlobLen {
		return nil, fmt.Errorf("%w: implausible document count %d", errors.ErrSnapshotCorrupt, numDocs)
	}

	st := &State{NextDocID: nextDocID}
	st.Documents = make([]document.Document, 0, numDocs)
	for i := uint64(0); i < numDocs; i++ {
		doc, err := readDocument(r)
		if err != nil {
			return nil, err
		}
		st.Documents = append(st.Documents, doc)
	}

	numTerms, err := readU64(r)
	if err != nil {
		return nil, err
	}
	if numTerms > maxBlobLen {
		return nil, fmt.Errorf("%w: implausible term count %d", errors.ErrSnapshotCorrupt, numTerms)
	}
	st.Terms = make([]TermPostings, 0, numTerms)
	for i := uint64(0); i < numTerms; i++ {
		tp, err := readTermPostings(r)
		if err != nil {
			return nil, err
		}
		st.Terms = append(st.Terms, tp)
	}
	return st, nil
}

func readDocument(r io.Reader) (document.Document, error) {
	var doc document.Document
	id, err := readU64(r)
	if err != nil {
		return doc, err
	}
	termCount, err := readU64(r)
	if err != nil {
		return doc, err
	}
	numFields, err := readU64(r)
	if err != nil {
		return doc, err
	}
	if numFields > maxBlobLen {
		return doc, fmt.Errorf("%w: implausible field count %d", errors.ErrSnapshotCorrupt, numFields)
	}
	doc.ID = id
	doc.TermCount = int(termCount)
	doc.Fields = make(map[string]string, numFields)
	for i := uint64(0); i < numFields; i++ {
		key, err := readString(r)
		if err != nil {
			return doc, err
		}
		val, err := readString(r)
		if err != nil {
			return doc, err
		}
		doc.Fields[key] = val
	}
	return doc, nil
}

func readTermPostings(r io.Reader) (TermPostings, error) {
	var tp TermPostings
	term, err := readString(r)
	if err != nil {
		return tp, err
	}
	numPostings, err := readU64(r)
	if err != nil {
		return tp, err
	}
	if numPostings > maxBlobLen {
		return tp, fmt.Errorf("%w: implausible posting count %d", errors.ErrSnapshotCorrupt, numPostings)
	}
	tp.Term = term
	tp.Postings = make([]index.Posting, 0, numPostings)
	for i := uint64(0); i < numPostings; i++ {
		docID, err := readU64(r)
		if err != nil {
			return tp, err
		}
		tf, err := readU32(r)
		if err != nil {
			return tp, err
		}
		numPositions, err := readU64(r)
		if err != nil {
			return tp, err
		}
		if numPositions > maxBlobLen {
			return tp, fmt.Errorf("%w: implausible position count %d", errors.ErrSnapshotCorrupt, numPositions)
		}
		positions := make([]uint32, 0, numPositions)
		for j := uint64(0); j < numPositions; j++ {
			pos, err := readU32(r)
			if err != nil {
				return tp, err
			}
			positions = append(positions, pos)
		}
		tp.Postings = append(tp.Postings, index.Posting{
			DocID:         docID,
			TermFrequency: tf,
			Positions:     positions,
		})
	}
	return tp, nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeString(w io.Writer, s string) error {
	if err := writeU64(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrSnapshotCorrupt, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrSnapshotCorrupt, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readU64(r)
	if err != nil {
		return "", err
	}
	if n > maxBlobLen {
		return "", fmt.Errorf("%w: implausible string length %d", errors.ErrSnapshotCorrupt, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrSnapshotCorrupt, err)
	}
	return string(buf), nil
}
