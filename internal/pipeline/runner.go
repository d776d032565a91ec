// Package pipeline implements the per-file skip/backup/compress state
// machine and the aggregation of outcomes into a report snapshot.
package pipeline

import (
	"context"
	"sync"
	"time"
)

// EventType indicates the type of progress event.
type EventType int

const (
	// EventStart fires once before the first file; Total carries the count.
	EventStart EventType = iota

	// EventFile fires as each file finishes; Record carries its outcome.
	EventFile

	// EventComplete fires after aggregation; Total carries the record count.
	EventComplete
)

// Event is a progress notification from a run.
type Event struct {
	Type   EventType
	Total  int
	Record *FileRecord
}

// ProgressFunc receives progress events. EventFile callbacks arrive
// concurrently from worker goroutines and in completion order, not input
// order; the snapshot's detail list is what preserves enumeration order.
type ProgressFunc func(Event)

// Run processes files through a bounded worker pool and returns the
// aggregated snapshot. One file's failure never prevents the rest from
// being attempted. When ctx is canceled, in-flight files finish and the
// partial snapshot is still returned — aggregated state is never lost.
func Run(ctx context.Context, files []string, opts *Options, progress ProgressFunc) *Snapshot {
	start := time.Now()
	if progress != nil {
		progress(Event{Type: EventStart, Total: len(files)})
	}

	results := make([]FileRecord, len(files))
	done := make([]bool, len(files))

	workers := opts.MaxThreads
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processFile(files[idx], opts)
				done[idx] = true
				if progress != nil {
					progress(Event{Type: EventFile, Record: &results[idx]})
				}
			}
		}()
	}

feed:
	for idx := range files {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()
	end := time.Now()

	// Single-writer fold in enumeration order, so the detail report is
	// reproducible for a fixed directory listing.
	agg := NewAggregator()
	for i := range results {
		if done[i] {
			agg.Update(results[i])
		}
	}
	snap := agg.Snapshot(start, end)

	if progress != nil {
		progress(Event{Type: EventComplete, Total: snap.Total})
	}
	return &snap
}
