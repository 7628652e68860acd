// Command searchcli is an interactive shell over a local engine: index
// documents by hand or from JSONL/CSV files, run queries, inspect
// statistics, and save or load snapshots.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/searchlite/searchlite"
	"github.com/searchlite/searchlite/internal/loader"
	"github.com/searchlite/searchlite/pkg/logger"
)

const usage = `commands:
  index <text>             index a document with a single content field
  load <file.jsonl>        bulk-index a JSONL file
  loadcsv <file.csv>       bulk-index a CSV file (header row names the fields)
  search <query>           ranked search
  fuzzy <query>            ranked search with fuzzy expansion
  delete <id>              delete a document
  stats                    index statistics
  cache                    cache statistics
  save <path>              save a snapshot
  restore <path>           load a snapshot
  quit                     exit`

func main() {
	snapshotPath := flag.String("snapshot", "", "snapshot to load on startup")
	flag.Parse()
	logger.Setup("warn", "text")

	engine := searchlite.New()
	if *snapshotPath != "" {
		if err := engine.LoadSnapshot(*snapshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot load failed: %v\n", err)
		} else {
			stats := engine.GetStats()
			fmt.Printf("loaded %d documents, %d terms\n", stats.TotalDocuments, stats.TotalTerms)
		}
	}

	fmt.Println("searchlite interactive shell — type 'help' for commands")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "help":
			fmt.Println(usage)
		case "quit", "exit":
			return
		case "index":
			if arg == "" {
				fmt.Println("usage: index <text>")
				continue
			}
			id := engine.IndexDocument(searchlite.Document{
				Fields: map[string]string{"content": arg},
			})
			fmt.Printf("indexed doc %d\n", id)
		case "load":
			docs, err := loader.LoadJSONL(arg)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			engine.IndexDocuments(docs)
			fmt.Printf("indexed %d documents\n", len(docs))
		case "loadcsv":
			docs, err := loader.LoadCSV(arg, nil)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			engine.IndexDocuments(docs)
			fmt.Printf("indexed %d documents\n", len(docs))
		case "search", "fuzzy":
			if arg == "" {
				fmt.Println("usage: search <query>")
				continue
			}
			opts := searchlite.DefaultSearchOptions()
			opts.GenerateSnippets = true
			opts.FuzzyEnabled = cmd == "fuzzy"
			printResults(engine.Search(arg, opts))
		case "delete":
			var id uint64
			if _, err := fmt.Sscanf(arg, "%d", &id); err != nil {
				fmt.Println("usage: delete <id>")
				continue
			}
			if engine.DeleteDocument(id) {
				fmt.Printf("deleted doc %d\n", id)
			} else {
				fmt.Printf("no doc %d\n", id)
			}
		case "stats":
			s := engine.GetStats()
			fmt.Printf("documents=%d terms=%d avg_doc_length=%.2f\n",
				s.TotalDocuments, s.TotalTerms, s.AvgDocLength)
		case "cache":
			s := engine.GetCacheStats()
			fmt.Printf("hits=%d misses=%d evictions=%d size=%d/%d hit_rate=%.2f\n",
				s.HitCount, s.MissCount, s.EvictionCount, s.CurrentSize, s.MaxSize, s.HitRate)
		case "save":
			if err := engine.SaveSnapshot(arg); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Printf("saved to %s\n", arg)
			}
		case "restore":
			if err := engine.LoadSnapshot(arg); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Printf("restored from %s\n", arg)
			}
		default:
			fmt.Printf("unknown command %q — type 'help'\n", cmd)
		}
	}
}

func printResults(results []searchlite.SearchResult) {
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}
	for i, r := range results {
		fmt.Printf("%2d. doc=%d score=%.4f", i+1, r.Document.ID, r.Score)
		if len(r.ExpandedTerms) > 0 {
			fmt.Printf(" expanded=%v", r.ExpandedTerms)
		}
		fmt.Println()
		for _, s := range r.Snippets {
			fmt.Printf("    %s\n", s)
		}
	}
}
