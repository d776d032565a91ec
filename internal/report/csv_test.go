package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hsuyc/imgshrink/internal/pipeline"
)

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("re-parsing CSV failed: %v", err)
	}
	return rows
}

func TestWriteCSVStartsWithBOM(t *testing.T) {
	snap := buildSnapshot(compressedRec("img.jpg", 1000, 500))
	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap, enPack(t)); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\ufeff")) {
		t.Error("CSV output must start with a UTF-8 BOM")
	}
}

func TestCSVExtensionSectionRoundTrip(t *testing.T) {
	snap := buildSnapshot(
		compressedRec("a.jpg", 500000, 300000),
		compressedRec("b.png", 20000, 15000),
		compressedRec("c.jpg", 100000, 90000),
		pipeline.FileRecord{Path: "d.gif", Ext: ".gif", Status: pipeline.StatusSkippedByName},
	)
	pack := enPack(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap, pack); err != nil {
		t.Fatal(err)
	}
	rows := parseCSV(t, bytes.TrimPrefix(buf.Bytes(), []byte("\ufeff")))

	sectionLabel, err := pack.Render("csv.section_ext", nil)
	if err != nil {
		t.Fatal(err)
	}

	// Locate the per-extension section, skip its header row, and parse
	// rows until the separator.
	parsed := map[string][3]int64{}
	inSection := false
	for _, row := range rows {
		if len(row) > 0 && row[0] == sectionLabel {
			inSection = true
			continue
		}
		if !inSection {
			continue
		}
		if len(row) < 6 || (len(row) == 1 && row[0] == "") {
			break
		}
		if _, err := strconv.Atoi(row[1]); err != nil {
			continue // header row
		}
		count, _ := strconv.ParseInt(row[1], 10, 64)
		before, _ := strconv.ParseInt(row[2], 10, 64)
		after, _ := strconv.ParseInt(row[3], 10, 64)
		parsed[row[0]] = [3]int64{count, before, after}
	}

	if len(parsed) != len(snap.Extensions) {
		t.Fatalf("parsed %d extension rows, want %d", len(parsed), len(snap.Extensions))
	}
	for _, e := range snap.Extensions {
		got, ok := parsed[strings.ToUpper(e.Ext)]
		if !ok {
			t.Errorf("extension %s missing from CSV", e.Ext)
			continue
		}
		if got[0] != int64(e.Count) || got[1] != e.BytesBefore || got[2] != e.BytesAfter {
			t.Errorf("extension %s: CSV %v, snapshot {%d %d %d}",
				e.Ext, got, e.Count, e.BytesBefore, e.BytesAfter)
		}
	}
}

func TestCSVQuotesAwkwardPaths(t *testing.T) {
	rec := compressedRec(`dir,with comma/img "one".jpg`, 1000, 500)
	snap := buildSnapshot(rec)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap, enPack(t)); err != nil {
		t.Fatal(err)
	}

	rows := parseCSV(t, bytes.TrimPrefix(buf.Bytes(), []byte("\ufeff")))
	found := false
	for _, row := range rows {
		if len(row) > 0 && row[0] == rec.Path {
			found = true
		}
	}
	if !found {
		t.Error("path with separators did not survive the CSV round trip")
	}
}

func TestCSVDetailRowsInEnumerationOrder(t *testing.T) {
	snap := buildSnapshot(
		compressedRec("z.jpg", 1000, 500),
		compressedRec("a.jpg", 1000, 500),
		compressedRec("m.jpg", 1000, 500),
	)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap, enPack(t)); err != nil {
		t.Fatal(err)
	}
	rows := parseCSV(t, bytes.TrimPrefix(buf.Bytes(), []byte("\ufeff")))

	var order []string
	for _, row := range rows {
		if len(row) == 8 && strings.HasSuffix(row[0], ".jpg") {
			order = append(order, row[0])
		}
	}
	want := []string{"z.jpg", "a.jpg", "m.jpg"}
	if len(order) != 3 {
		t.Fatalf("detail rows = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("detail order[%d] = %s, want %s (must not be re-sorted)", i, order[i], want[i])
		}
	}
}

func TestCSVBackupFailureColumnIsLocalized(t *testing.T) {
	rec := compressedRec("img.jpg", 1000, 500)
	rec.Failure = &pipeline.Failure{
		Kind: pipeline.FailureBackup,
		Err:  errors.New("disk full"),
	}
	snap := buildSnapshot(rec)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap, enPack(t)); err != nil {
		t.Fatal(err)
	}
	rows := parseCSV(t, bytes.TrimPrefix(buf.Bytes(), []byte("\ufeff")))

	found := false
	for _, row := range rows {
		if len(row) == 8 && row[0] == "img.jpg" {
			found = true
			if row[7] != "backup failed: disk full" {
				t.Errorf("error column = %q, want localized backup failure", row[7])
			}
		}
	}
	if !found {
		t.Fatal("detail row for img.jpg missing")
	}
}

func TestCSVNoCompressedShowsUnavailable(t *testing.T) {
	snap := buildSnapshot(pipeline.FileRecord{
		Path: "x.png", Ext: ".png", Status: pipeline.StatusSkippedByName, Elapsed: time.Millisecond,
	})
	pack := enPack(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap, pack); err != nil {
		t.Fatal(err)
	}
	unavailable, err := pack.Render("csv.fields.avg_time_unavailable", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), unavailable) {
		t.Error("missing localized unavailable marker for average time")
	}
}
