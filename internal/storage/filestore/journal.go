package filestore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/cleared-dev/ledger/internal/journal"
	"github.com/cleared-dev/ledger/internal/model"
)

// monthPath is <root>/YYYY/MM/journal.csv.
func monthPath(root string, year, month int) string {
	return filepath.Join(root, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}

// readJournal reads every month file in chronological order.
func readJournal(root string) ([]model.JournalEntry, error) {
	paths, err := filepath.Glob(filepath.Join(root, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "journal.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var all []model.JournalEntry
	for _, path := range paths {
		lines, err := readMonth(path)
		if err != nil {
			return nil, err
		}
		all = append(all, lines...)
	}
	return all, nil
}

func readMonth(path string) ([]model.JournalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	lines, err := journal.ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return lines, nil
}

// appendJournal appends lines to their month files, creating each file with
// a header the first time.
func appendJournal(root string, lines []model.JournalEntry) error {
	type month struct{ year, month int }
	var order []month
	byMonth := make(map[month][]model.JournalEntry)
	for _, l := range lines {
		k := month{l.Date.Year(), int(l.Date.Month())}
		if _, ok := byMonth[k]; !ok {
			order = append(order, k)
		}
		byMonth[k] = append(byMonth[k], l)
	}

	for _, k := range order {
		if err := appendMonth(monthPath(root, k.year, k.month), byMonth[k]); err != nil {
			return err
		}
	}
	return nil
}

func appendMonth(path string, lines []model.JournalEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, journal.Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	cw := csv.NewWriter(f)
	for _, l := range lines {
		if err := cw.Write(journal.MarshalEntry(l)); err != nil {
			return fmt.Errorf("appending lines: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("appending lines: %w", err)
	}
	return f.Sync()
}
