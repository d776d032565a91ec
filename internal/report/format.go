// Package report renders aggregator snapshots into a console summary and
// a three-section CSV document. Every user-facing string goes through the
// language pack; the package itself carries no display text.
package report

// SplitSize expresses a byte count in the largest unit (B, KB, MB, GB)
// that keeps the magnitude at or above one.
func SplitSize(bytes int64) (float64, string) {
	const unit = 1024.0
	b := float64(bytes)
	switch {
	case b >= unit*unit*unit:
		return b / (unit * unit * unit), "GB"
	case b >= unit*unit:
		return b / (unit * unit), "MB"
	case b >= unit:
		return b / unit, "KB"
	default:
		return b, "B"
	}
}

// PercentSaved returns (before-after)/before as a percentage, 0 when
// before is not positive.
func PercentSaved(before, after int64) float64 {
	if before <= 0 {
		return 0
	}
	return float64(before-after) / float64(before) * 100
}
