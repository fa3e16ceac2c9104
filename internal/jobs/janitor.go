package jobs

import (
	"context"
	"log"
	"time"

	"github.com/promptlab-ai/promptlab/internal/vectorstore"
)

// IndexJanitor evicts document indexes that have not been touched for longer
// than the configured TTL. The store is non-durable either way; this only
// keeps a long-running demo server from accumulating abandoned indexes.
type IndexJanitor struct {
	store *vectorstore.MemoryStore
	ttl   time.Duration
	now   func() time.Time
}

// NewIndexJanitor creates a janitor evicting entries idle longer than ttl
func NewIndexJanitor(store *vectorstore.MemoryStore, ttl time.Duration) *IndexJanitor {
	return &IndexJanitor{store: store, ttl: ttl, now: time.Now}
}

// ProcessJobs evicts idle indexes. Satisfies JobProcessor so the janitor can
// run on the polling Worker.
func (j *IndexJanitor) ProcessJobs(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	evicted := j.store.EvictIdle(j.now().Add(-j.ttl))
	if len(evicted) > 0 {
		log.Printf("Index janitor evicted %d idle document(s): %v", len(evicted), evicted)
	}
	return nil
}
