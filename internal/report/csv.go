package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hsuyc/imgshrink/internal/i18n"
	"github.com/hsuyc/imgshrink/internal/pipeline"
)

// table writes localized CSV rows; the first error (lookup or I/O) sticks.
type table struct {
	w    *csv.Writer
	pack *i18n.Pack
	err  error
}

func (t *table) msg(key string) string {
	if t.err != nil {
		return ""
	}
	s, err := t.pack.Render(key, nil)
	if err != nil {
		t.err = err
	}
	return s
}

func (t *table) row(cells ...string) {
	if t.err != nil {
		return
	}
	t.err = t.w.Write(cells)
}

func (t *table) blank() {
	t.row("")
}

// WriteCSV renders the three-section CSV document: summary key/value
// pairs, per-extension rows in first-seen order, then per-file detail in
// enumeration order. Byte columns hold raw byte counts so the document
// parses back to exactly the aggregator's totals. Output starts with a
// UTF-8 BOM for spreadsheet applications.
func WriteCSV(w io.Writer, snap *pipeline.Snapshot, pack *i18n.Pack) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}

	t := &table{w: csv.NewWriter(w), pack: pack}

	// Timing preamble.
	t.row(t.msg("csv.fields.start_time"), snap.Start.Format(timeLayout))
	t.row(t.msg("csv.fields.end_time"), snap.End.Format(timeLayout))
	t.row(t.msg("csv.fields.elapsed"), snap.End.Sub(snap.Start).Round(time.Millisecond).String())
	if snap.Compressed > 0 {
		t.row(t.msg("csv.fields.avg_time"), fmt.Sprintf("%.2f", avgSeconds(snap)))
	} else {
		t.row(t.msg("csv.fields.avg_time"), t.msg("csv.fields.avg_time_unavailable"))
	}
	t.blank()

	// Section 1: summary.
	t.row(t.msg("csv.section_summary"))
	t.row(t.msg("csv.fields.key"), t.msg("csv.fields.value"))
	t.row(t.msg("csv.fields.total_images"), strconv.Itoa(snap.Total))
	t.row(t.msg("csv.fields.compressed"), strconv.Itoa(snap.Compressed))
	t.row(t.msg("csv.fields.skipped_backup"), strconv.Itoa(snap.SkippedBackedUp))
	t.row(t.msg("csv.fields.skipped_named"), strconv.Itoa(snap.SkippedByName))
	t.row(t.msg("csv.fields.unreadable"), strconv.Itoa(snap.Unreadable))
	t.row(t.msg("csv.fields.errors"), strconv.Itoa(snap.Errors))
	t.row(t.msg("csv.fields.size_before"), strconv.FormatInt(snap.BytesBefore, 10))
	t.row(t.msg("csv.fields.size_after"), strconv.FormatInt(snap.BytesAfter, 10))
	if snap.BytesBefore > 0 {
		t.row(t.msg("csv.fields.size_saved"), strconv.FormatInt(snap.BytesBefore-snap.BytesAfter, 10))
		t.row(t.msg("csv.fields.size_percent"), fmt.Sprintf("%.1f", PercentSaved(snap.BytesBefore, snap.BytesAfter)))
	}
	t.blank()

	// Section 2: per-extension, first-seen order.
	t.row(t.msg("csv.section_ext"))
	t.row(
		t.msg("csv.fields.ext"),
		t.msg("csv.fields.ext_count"),
		t.msg("csv.fields.ext_before"),
		t.msg("csv.fields.ext_after"),
		t.msg("csv.fields.ext_saved"),
		t.msg("csv.fields.ext_percent"),
	)
	for _, e := range snap.Extensions {
		t.row(
			strings.ToUpper(e.Ext),
			strconv.Itoa(e.Count),
			strconv.FormatInt(e.BytesBefore, 10),
			strconv.FormatInt(e.BytesAfter, 10),
			strconv.FormatInt(e.BytesBefore-e.BytesAfter, 10),
			fmt.Sprintf("%.1f", PercentSaved(e.BytesBefore, e.BytesAfter)),
		)
	}
	t.blank()

	// Section 3: per-file detail, enumeration order.
	t.row(t.msg("csv.section_detail"))
	t.row(
		t.msg("csv.fields.detail_path"),
		t.msg("csv.fields.detail_ext"),
		t.msg("csv.fields.detail_before"),
		t.msg("csv.fields.detail_after"),
		t.msg("csv.fields.detail_percent"),
		t.msg("csv.fields.detail_status"),
		t.msg("csv.fields.detail_elapsed"),
		t.msg("csv.fields.detail_error"),
	)
	for i := range snap.Records {
		rec := &snap.Records[i]
		st, err := statusText(rec, pack)
		if err != nil {
			return err
		}
		errText, err := failureText(rec, pack)
		if err != nil {
			return err
		}
		after, percent := "", ""
		if rec.Reduced() {
			after = strconv.FormatInt(rec.SizeAfter, 10)
			percent = fmt.Sprintf("%.1f", PercentSaved(rec.SizeBefore, rec.SizeAfter))
		}
		t.row(
			rec.Path,
			rec.Ext,
			strconv.FormatInt(rec.SizeBefore, 10),
			after,
			percent,
			st,
			fmt.Sprintf("%.3f", rec.Elapsed.Seconds()),
			errText,
		)
	}

	if t.err != nil {
		return t.err
	}
	t.w.Flush()
	return t.w.Error()
}
