// Package loader reads documents from JSONL and CSV files for bulk
// indexing by the CLI and daemon. File loaders sit outside the retrieval
// core and touch only the public Document type.
package loader

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/searchlite/searchlite"
)

// LoadJSONL reads one JSON document per line. Each line is either a bare
// field map or a full document object with "id" and "fields". Blank lines
// are skipped; a malformed line aborts with its line number.
func LoadJSONL(path string) ([]searchlite.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var docs []searchlite.Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc searchlite.Document
		if err := json.Unmarshal(line, &doc); err != nil || doc.Fields == nil {
			// Fall back to a bare field map.
			var fields map[string]string
			if err := json.Unmarshal(line, &fields); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", path, lineNo, err)
			}
			doc = searchlite.Document{Fields: fields}
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return docs, nil
}

// LoadCSV reads documents from a CSV file. The first row provides the
// field names unless columns is given, in which case it overrides the
// header. Every subsequent row becomes one document.
func LoadCSV(path string, columns []string) ([]searchlite.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", path, err)
	}
	if len(columns) > 0 {
		header = columns
	}

	var docs []searchlite.Document
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				fields[name] = record[i]
			}
		}
		docs = append(docs, searchlite.Document{Fields: fields})
	}
	return docs, nil
}
