package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// inquiryColumns is the full column count of the store file:
// id, userId, description, status, responseMessage.
const inquiryColumns = 5

var ErrEmptyStoreFile = errors.New("inquiry store file is empty")

// CSVStore reads and writes the flat inquiry record store. All access to a
// given path is serialized through a per-path lock: the store is a single
// mutable file, so one writer must fully complete before the next
// reader/writer proceeds.
type CSVStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCSVStore() *CSVStore {
	return &CSVStore{locks: make(map[string]*sync.Mutex)}
}

func (s *CSVStore) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

// ReadAll reads every inquiry from the store file. The header row is
// skipped; rows that fail to parse (too few fields, bad id, unknown status)
// are dropped rather than aborting the read. A missing file is an error.
func (s *CSVStore) ReadAll(ctx context.Context, path string) ([]Inquiry, error) {
	if err := validateStorePath(path); err != nil {
		return nil, err
	}

	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	rows, err := readRecords(path, true)
	if err != nil {
		return nil, err
	}

	var inquiries []Inquiry
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if err := ctx.Err(); err != nil {
			return inquiries, err
		}
		inq, err := parseInquiryRow(row)
		if err != nil {
			log.Printf("Skipping malformed inquiry row %d: %v", i, err)
			continue
		}
		inquiries = append(inquiries, inq)
	}

	log.Printf("Read %d inquiries from %s", len(inquiries), path)
	return inquiries, nil
}

// ReadByStatus reads all inquiries and keeps only those in the given status.
func (s *CSVStore) ReadByStatus(ctx context.Context, path string, status InquiryStatus) ([]Inquiry, error) {
	all, err := s.ReadAll(ctx, path)
	if err != nil {
		return nil, err
	}
	var filtered []Inquiry
	for _, inq := range all {
		if inq.Status == status {
			filtered = append(filtered, inq)
		}
	}
	return filtered, nil
}

// ReadByUser reads all inquiries filed by the given external user id.
func (s *CSVStore) ReadByUser(ctx context.Context, path string, userID string) ([]Inquiry, error) {
	all, err := s.ReadAll(ctx, path)
	if err != nil {
		return nil, err
	}
	var filtered []Inquiry
	for _, inq := range all {
		if inq.UserID == userID {
			filtered = append(filtered, inq)
		}
	}
	return filtered, nil
}

// UpdateByID overwrites status and responseMessage for every row whose id
// appears in updates. Unmatched ids are left untouched. Rows are padded to
// the full column count first, so a store written without the response
// column gains it on first update. Every field of every row is re-escaped
// on write; the call applies all updates or none. Unlike ReadAll, a row
// that cannot be parsed aborts the whole update before anything is
// written: rewriting the file from the surviving rows would delete the bad
// row for good. Blank lines are dropped on rewrite; readers skip them
// anyway.
func (s *CSVStore) UpdateByID(ctx context.Context, path string, updates map[int]InquiryUpdate) error {
	if err := validateStorePath(path); err != nil {
		return err
	}

	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	rows, err := readRecords(path, false)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyStoreFile, path)
	}

	updated := 0
	out := make([][]string, 0, len(rows))
	out = append(out, rows[0]) // header kept as-is

	for _, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		for len(row) < inquiryColumns {
			row = append(row, "")
		}
		if id, err := parseInquiryID(row[0]); err == nil {
			if upd, ok := updates[id]; ok {
				row[3] = string(upd.Status)
				row[4] = upd.ResponseMessage
				updated++
			}
		}
		out = append(out, row)
	}

	if err := writeRecords(path, out); err != nil {
		return fmt.Errorf("failed to write inquiry store: %w", err)
	}

	log.Printf("Updated %d of %d inquiry rows in %s", updated, len(out)-1, path)
	return nil
}

func validateStorePath(path string) error {
	if path == "" {
		return errors.New("inquiry store path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("inquiry store file not found: %w", err)
	}
	return nil
}

// readRecords reads every CSV record from the file. In lenient mode an
// unparsable line is logged and skipped (best-effort ingest); otherwise it
// is an error, so a rewrite can never lose a row it failed to parse.
func readRecords(path string, lenient bool) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inquiry store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // column count varies until first write-back

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			if !lenient {
				return nil, fmt.Errorf("unparsable line %d in %s: %w", parseErr.Line, path, err)
			}
			log.Printf("Skipping unparsable line %d in %s: %v", parseErr.Line, path, err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read inquiry store: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeRecords writes the whole file to a sibling temp file and swaps it in,
// so a failed write leaves the store untouched.
func writeRecords(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func parseInquiryID(field string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("bad inquiry id %q", field)
	}
	return id, nil
}

func parseInquiryRow(row []string) (Inquiry, error) {
	if len(row) < 4 {
		return Inquiry{}, fmt.Errorf("expected at least 4 fields, got %d", len(row))
	}
	id, err := parseInquiryID(row[0])
	if err != nil {
		return Inquiry{}, err
	}
	status, err := ParseInquiryStatus(row[3])
	if err != nil {
		return Inquiry{}, err
	}
	now := time.Now()
	return Inquiry{
		ID:          id,
		UserID:      row[1],
		Description: row[2],
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
