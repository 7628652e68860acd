// Package storage persists documents in PostgreSQL and bulk-loads them
// into the engine on startup. It is a collaborator of the engine, not part
// of the retrieval core: the index itself lives in memory and in snapshot
// files.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/searchlite/searchlite"
	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id         BIGINT PRIMARY KEY,
    fields     JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store is a Postgres-backed document store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to Postgres, verifies the connection, and ensures the
// schema exists.
func Open(cfg config.PostgresConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.WithComponent("document-store"),
	}, nil
}

// Save upserts a document.
func (s *Store) Save(ctx context.Context, doc searchlite.Document) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, fields, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()`,
		int64(doc.ID), fields,
	)
	if err != nil {
		return fmt.Errorf("saving document %d: %w", doc.ID, err)
	}
	return nil
}

// Delete removes a document row; deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, int64(id)); err != nil {
		return fmt.Errorf("deleting document %d: %w", id, err)
	}
	return nil
}

// LoadAll streams every stored document into the engine: one goroutine
// scans rows, another decodes and indexes, so decode work overlaps the
// network reads. Returns the number of documents indexed.
func (s *Store) LoadAll(ctx context.Context, engine *searchlite.Engine) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, fields FROM documents ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	type row struct {
		id     int64
		fields []byte
	}
	ch := make(chan row, 64)
	count := 0

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(ch)
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.id, &r.fields); err != nil {
				return fmt.Errorf("scanning document row: %w", err)
			}
			select {
			case ch <- r:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return rows.Err()
	})
	g.Go(func() error {
		for r := range ch {
			var fields map[string]string
			if err := json.Unmarshal(r.fields, &fields); err != nil {
				s.logger.Error("skipping undecodable document", "id", r.id, "error", err)
				continue
			}
			engine.IndexDocument(searchlite.Document{ID: uint64(r.id), Fields: fields})
			count++
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return count, err
	}
	s.logger.Info("documents loaded from postgres", "count", count)
	return count, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
