package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

const (
	// FileTimeLayout is the DD-MM-YYYY_HH-MM-SS stamp in export file names.
	FileTimeLayout = "02-01-2006_15-04-05"
	// RowTimeLayout formats the synthetic timestamp column.
	RowTimeLayout = "2006-01-02 15:04:05"

	StatusSuccess = 200
	StatusFailure = 500

	lockFileName    = ".sagaload.lock"
	maxNameAttempts = 1000
)

var csvHeader = []string{"timestamp", "response_time", "status"}

// Row is one line of the per-request export.
type Row struct {
	Timestamp      time.Time
	ResponseTimeMs uint64
	Status         int
}

// BuildRows lays out successes then failures, stamping row i (1-based) at
// midnight of runTime's local date plus i seconds. The timestamps are synthetic
// and do not reflect when each request ran. The clock runs in UTC so a DST
// transition on the run date cannot repeat or skip a wall-clock hour.
func BuildRows(runTime time.Time, successes, failures []uint64) []Row {
	y, m, d := runTime.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	rows := make([]Row, 0, len(successes)+len(failures))
	for _, ms := range successes {
		rows = append(rows, Row{ResponseTimeMs: ms, Status: StatusSuccess})
	}
	for _, ms := range failures {
		rows = append(rows, Row{ResponseTimeMs: ms, Status: StatusFailure})
	}
	for i := range rows {
		rows[i].Timestamp = midnight.Add(time.Duration(i+1) * time.Second)
	}
	return rows
}

// ExportFileName returns "<label>-<DD-MM-YYYY_HH-MM-SS>.csv".
func ExportFileName(label string, runTime time.Time) string {
	return fmt.Sprintf("%s-%s.csv", label, runTime.Format(FileTimeLayout))
}

// WriteCSV writes the header and rows to dir, creating dir if needed, and
// returns the path written. The file is created exclusively; if the name is
// taken a -N suffix is added before the extension. Exporters sharing dir are
// serialized by an advisory lock file.
func WriteCSV(dir, label string, runTime time.Time, rows []Row) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock export directory: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	f, path, err := createUnique(dir, ExportFileName(label, runTime))
	if err != nil {
		return "", err
	}

	if err := writeRows(f, rows); err != nil {
		f.Close()
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, attempt, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, path, fmt.Errorf("create export file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create export file: %d names taken for %s", maxNameAttempts, name)
}

func writeRows(f *os.File, rows []Row) error {
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	record := make([]string, 3)
	for _, r := range rows {
		record[0] = r.Timestamp.Format(RowTimeLayout)
		record[1] = strconv.FormatUint(r.ResponseTimeMs, 10)
		record[2] = strconv.Itoa(r.Status)
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
