package report

import (
	"strings"
	"time"

	"github.com/hsuyc/imgshrink/internal/i18n"
	"github.com/hsuyc/imgshrink/internal/pipeline"
)

const timeLayout = "2006-01-02 15:04:05"

// liner accumulates localized lines; the first render error sticks and
// suppresses everything after it.
type liner struct {
	sb   strings.Builder
	pack *i18n.Pack
	err  error
}

func (l *liner) line(key string, args map[string]any) {
	if l.err != nil {
		return
	}
	s, err := l.pack.Render(key, args)
	if err != nil {
		l.err = err
		return
	}
	l.sb.WriteString(s)
	l.sb.WriteByte('\n')
}

func (l *liner) blank() {
	if l.err == nil {
		l.sb.WriteByte('\n')
	}
}

// Console renders the human-readable summary. includeDetail prepends the
// per-file result lines. The snapshot is only read, never mutated.
func Console(snap *pipeline.Snapshot, pack *i18n.Pack, includeDetail bool) (string, error) {
	l := &liner{pack: pack}

	if includeDetail && len(snap.Records) > 0 {
		l.line("report.header_result", nil)
		for i := range snap.Records {
			rec := &snap.Records[i]
			if rec.Reduced() {
				bv, bu := SplitSize(rec.SizeBefore)
				av, au := SplitSize(rec.SizeAfter)
				l.line("report.file_reduced", map[string]any{
					"path":        rec.Path,
					"before":      bv,
					"before_unit": bu,
					"after":       av,
					"after_unit":  au,
					"percent":     PercentSaved(rec.SizeBefore, rec.SizeAfter),
				})
				// A file can compress fine and still have lost its backup.
				if rec.Failure != nil {
					ft, err := failureText(rec, pack)
					if err != nil {
						return "", err
					}
					l.line("report.file_status", map[string]any{"path": rec.Path, "status": ft})
				}
			} else {
				st, err := statusText(rec, pack)
				if err != nil {
					return "", err
				}
				l.line("report.file_status", map[string]any{"path": rec.Path, "status": st})
			}
		}
		l.blank()
	}

	l.line("report.header_summary", nil)
	l.line("report.start_time", map[string]any{"time": snap.Start.Format(timeLayout)})
	l.line("report.end_time", map[string]any{"time": snap.End.Format(timeLayout)})
	l.line("report.elapsed", map[string]any{"elapsed": snap.End.Sub(snap.Start).Round(time.Millisecond).String()})
	l.line("report.total_images", map[string]any{"count": snap.Total})

	if snap.Compressed > 0 {
		l.line("report.avg_time", map[string]any{"seconds": avgSeconds(snap)})
	} else {
		l.line("report.no_avg_time", nil)
	}

	l.line("report.compressed_success", map[string]any{"count": snap.Compressed})
	l.line("report.skipped_backup", map[string]any{"count": snap.SkippedBackedUp})
	l.line("report.skipped_named", map[string]any{"count": snap.SkippedByName})
	l.line("report.error_unreadable", map[string]any{"count": snap.Unreadable})
	l.line("report.error_failed", map[string]any{"count": snap.Errors})

	bv, bu := SplitSize(snap.BytesBefore)
	av, au := SplitSize(snap.BytesAfter)
	l.line("report.size_before", map[string]any{"size": bv, "unit": bu})
	l.line("report.size_after", map[string]any{"size": av, "unit": au})
	if snap.BytesBefore > 0 {
		sv, su := SplitSize(snap.BytesBefore - snap.BytesAfter)
		l.line("report.size_saved", map[string]any{
			"size":    sv,
			"unit":    su,
			"percent": PercentSaved(snap.BytesBefore, snap.BytesAfter),
		})
	}

	if len(snap.Extensions) > 0 {
		l.blank()
		l.line("report.header_ext_summary", nil)
		for _, e := range snap.Extensions {
			sv, su := SplitSize(e.BytesBefore - e.BytesAfter)
			l.line("report.ext_line", map[string]any{
				"ext":     strings.ToUpper(e.Ext),
				"count":   e.Count,
				"size":    sv,
				"unit":    su,
				"percent": PercentSaved(e.BytesBefore, e.BytesAfter),
			})
		}
	}

	return l.sb.String(), l.err
}

// avgSeconds is the mean elapsed time over compressed records only.
func avgSeconds(snap *pipeline.Snapshot) float64 {
	var sum time.Duration
	for i := range snap.Records {
		if snap.Records[i].Status == pipeline.StatusCompressed {
			sum += snap.Records[i].Elapsed
		}
	}
	return sum.Seconds() / float64(snap.Compressed)
}

// failureText renders a record's failure through the language pack.
// Backup failures get their own message; decode and encode failures are
// already part of the localized status text.
func failureText(rec *pipeline.FileRecord, pack *i18n.Pack) (string, error) {
	if rec.Failure == nil {
		return "", nil
	}
	if rec.Failure.Kind == pipeline.FailureBackup {
		return pack.Render("status.backup_error", map[string]any{"error": rec.Failure.Err.Error()})
	}
	return rec.Failure.Error(), nil
}

// statusText renders the localized status for a non-reduced record.
func statusText(rec *pipeline.FileRecord, pack *i18n.Pack) (string, error) {
	var errText string
	if rec.Failure != nil {
		errText = rec.Failure.Error()
	}

	switch rec.Status {
	case pipeline.StatusCompressed:
		return pack.Render("status.compressed", nil)
	case pipeline.StatusSkippedBackedUp:
		return pack.Render("status.skipped_backup", nil)
	case pipeline.StatusSkippedByName:
		return pack.Render("status.skipped_named", nil)
	case pipeline.StatusUnreadable:
		return pack.Render("status.unreadable", map[string]any{"error": errText})
	default:
		return pack.Render("status.compress_error", map[string]any{"error": errText})
	}
}
