// Package auditlog appends a human-readable activity trail to
// logs/activity.csv under the data directory.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp     time.Time
	Actor         string
	Action        string
	Details       string
	Reference     string
	TransactionID string
}

// Header is the CSV header for activity.csv.
const Header = "timestamp,actor,action,details,reference,transaction_id"

const (
	numFields        = 6
	logDir           = "logs"
	logFile          = "logs/activity.csv"
	colTimestamp     = 0
	colActor         = 1
	colAction        = 2
	colDetails       = 3
	colReference     = 4
	colTransactionID = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colReference] = e.Reference
	row[colTransactionID] = e.TransactionID
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp:     ts,
		Actor:         record[colActor],
		Action:        record[colAction],
		Details:       record[colDetails],
		Reference:     record[colReference],
		TransactionID: record[colTransactionID],
	}, nil
}

// Append writes entries to <dataDir>/logs/activity.csv, creating the file and
// header if needed.
func Append(dataDir string, entries []Entry) (err error) {
	dir := filepath.Join(dataDir, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(dataDir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing activity log: %w", cerr)
		}
	}()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dataDir>/logs/activity.csv.
// Returns an empty slice if the file does not exist.
func Read(dataDir string) ([]Entry, error) {
	path := filepath.Join(dataDir, logFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Recorder appends entries for one actor. Safe for concurrent use within a
// process.
type Recorder struct {
	mu      sync.Mutex
	dataDir string
	actor   string
	now     func() time.Time
}

// NewRecorder returns a Recorder writing under dataDir as actor.
func NewRecorder(dataDir, actor string) *Recorder {
	return &Recorder{dataDir: dataDir, actor: actor, now: time.Now}
}

// Record appends one entry stamped with the current time.
func (r *Recorder) Record(action, details, reference, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Append(r.dataDir, []Entry{{
		Timestamp:     r.now(),
		Actor:         r.actor,
		Action:        action,
		Details:       details,
		Reference:     reference,
		TransactionID: transactionID,
	}})
}
