// Package spool keeps usage records the ledger could not accept in a local
// JSONL file until they can be replayed.
package spool

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/theirongolddev/tripgate/internal/model"
)

// Spool is an append-only JSONL file of pending usage records. It is safe
// for concurrent use, including by several processes sharing the file:
// every operation holds an advisory lock on a sibling ".lock" file.
type Spool struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// LoadResult is the content of a spool file.
type LoadResult struct {
	Records     []model.UsageRecord
	ParseErrors int
}

// New returns a spool writing to path. The file is created on first append.
func New(path string) *Spool {
	return &Spool{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the spool file location.
func (s *Spool) Path() string { return s.path }

// acquire takes the in-process mutex and then the file lock, shared when
// the caller only reads. The returned func releases both.
func (s *Spool) acquire(shared bool) (func(), error) {
	s.mu.Lock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("creating spool dir: %w", err)
	}
	lock := s.lock.Lock
	if shared {
		lock = s.lock.RLock
	}
	if err := lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("locking spool: %w", err)
	}
	return func() {
		_ = s.lock.Unlock()
		s.mu.Unlock()
	}, nil
}

// Append writes records to the end of the spool.
func (s *Spool) Append(records ...model.UsageRecord) error {
	if len(records) == 0 {
		return nil
	}
	release, err := s.acquire(false)
	if err != nil {
		return err
	}
	defer release()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening spool: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			return fmt.Errorf("encoding spool record %s: %w", r.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing spool: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing spool: %w", err)
	}
	return f.Close()
}

// Load reads every record in the spool. Lines that fail to parse are counted
// and skipped. A record ID seen more than once keeps its last occurrence.
func (s *Spool) Load() (LoadResult, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return LoadResult{}, nil
	}
	release, err := s.acquire(true)
	if err != nil {
		return LoadResult{}, err
	}
	defer release()
	return s.load()
}

func (s *Spool) load() (LoadResult, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return LoadResult{}, nil
		}
		return LoadResult{}, fmt.Errorf("opening spool: %w", err)
	}
	defer func() { _ = f.Close() }()

	var res LoadResult
	index := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r model.UsageRecord
		if err := json.Unmarshal(line, &r); err != nil || r.ID == "" {
			res.ParseErrors++
			continue
		}
		if i, ok := index[r.ID]; ok {
			res.Records[i] = r
			continue
		}
		index[r.ID] = len(res.Records)
		res.Records = append(res.Records, r)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading spool: %w", err)
	}
	return res, nil
}

// Drain hands the current spool content to fn and rewrites the file with the
// records fn returns as still pending. Appends made while fn runs, from
// this process or another, wait until the rewrite is done.
func (s *Spool) Drain(fn func([]model.UsageRecord) []model.UsageRecord) (LoadResult, error) {
	release, err := s.acquire(false)
	if err != nil {
		return LoadResult{}, err
	}
	defer release()

	res, err := s.load()
	if err != nil || len(res.Records) == 0 {
		return res, err
	}
	pending := fn(res.Records)
	return res, s.rewrite(pending)
}

func (s *Spool) rewrite(records []model.UsageRecord) error {
	if len(records) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing spool: %w", err)
		}
		return nil
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating spool: %w", err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			return fmt.Errorf("encoding spool record %s: %w", r.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing spool: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing spool: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Len returns the number of distinct pending records.
func (s *Spool) Len() (int, error) {
	res, err := s.Load()
	return len(res.Records), err
}
