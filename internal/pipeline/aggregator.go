package pipeline

import "time"

// ExtStats accumulates byte totals for one lower-cased file extension.
type ExtStats struct {
	Ext         string
	Count       int
	BytesBefore int64
	BytesAfter  int64
}

// Snapshot is a read-only copy of the aggregator's state plus the run's
// timing bounds. The renderers only ever see snapshots.
type Snapshot struct {
	Total           int
	Compressed      int
	SkippedBackedUp int
	SkippedByName   int
	Unreadable      int
	Errors          int

	BytesBefore int64
	BytesAfter  int64

	// Extensions in first-seen order.
	Extensions []ExtStats

	// Records in input enumeration order.
	Records []FileRecord

	Start time.Time
	End   time.Time
}

// Aggregator folds per-file records into running totals. It is the single
// source of truth the report renderers read from. Not safe for concurrent
// use: the batch driver serializes all Update calls.
type Aggregator struct {
	snap     Snapshot
	extIndex map[string]int
}

func NewAggregator() *Aggregator {
	return &Aggregator{extIndex: make(map[string]int)}
}

// Update folds one record into the totals. Only records that reached
// byte-level processing (Compressed, SkippedBackedUp) contribute byte and
// extension stats; name-skips and unreadable files have no reliable
// before/after pair.
func (a *Aggregator) Update(rec FileRecord) {
	a.snap.Total++
	switch rec.Status {
	case StatusCompressed:
		a.snap.Compressed++
	case StatusSkippedBackedUp:
		a.snap.SkippedBackedUp++
	case StatusSkippedByName:
		a.snap.SkippedByName++
	case StatusUnreadable:
		a.snap.Unreadable++
	case StatusCompressionError:
		a.snap.Errors++
	}

	if rec.Reduced() {
		a.snap.BytesBefore += rec.SizeBefore
		a.snap.BytesAfter += rec.SizeAfter

		idx, ok := a.extIndex[rec.Ext]
		if !ok {
			idx = len(a.snap.Extensions)
			a.extIndex[rec.Ext] = idx
			a.snap.Extensions = append(a.snap.Extensions, ExtStats{Ext: rec.Ext})
		}
		a.snap.Extensions[idx].Count++
		a.snap.Extensions[idx].BytesBefore += rec.SizeBefore
		a.snap.Extensions[idx].BytesAfter += rec.SizeAfter
	}

	a.snap.Records = append(a.snap.Records, rec)
}

// Snapshot returns a copy of the current state stamped with the run's
// timing bounds. Counters are not reset; calling it mid-run is safe from
// the updating goroutine.
func (a *Aggregator) Snapshot(start, end time.Time) Snapshot {
	out := a.snap
	out.Start = start
	out.End = end
	out.Extensions = append([]ExtStats(nil), a.snap.Extensions...)
	out.Records = append([]FileRecord(nil), a.snap.Records...)
	return out
}
