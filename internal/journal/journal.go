// Package journal keeps an append-only record of price resolutions in a
// write-ahead log.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"go.uber.org/zap"

	"github.com/ndewijer/wealth-tracker/internal/pricing"
)

const (
	segmentLimit = 500
	maxSegments  = 20
	keyPrefix    = "resolution:"
)

// Entry is one journaled resolution.
type Entry struct {
	ID       string    `json:"id"`
	Index    uint64    `json:"index"`
	At       time.Time `json:"at"`
	Kind     string    `json:"kind"`
	Asset    string    `json:"asset"`
	Quote    string    `json:"quote"`
	Provider string    `json:"provider,omitempty"`
	Attempts []string  `json:"attempts"`
	Error    string    `json:"error,omitempty"`
}

// Journal records resolutions. It implements pricing.Observer.
type Journal struct {
	wal    *gowal.Wal
	mu     sync.RWMutex
	logger *zap.Logger
}

// Open opens or creates a journal in dir.
func Open(dir string, logger *zap.Logger) (*Journal, error) {
	if dir == "" {
		return nil, errors.New("journal directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "create journal directory")
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "resolution_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init resolution journal")
	}
	return &Journal{wal: wal, logger: logger}, nil
}

// Observe appends res. Failures are logged, never returned, so that a
// broken journal cannot fail a price lookup.
func (j *Journal) Observe(_ context.Context, res pricing.Resolution) {
	entry := Entry{
		ID:       uuid.NewString(),
		At:       res.At.UTC(),
		Kind:     res.Kind,
		Asset:    res.Asset,
		Quote:    res.Quote,
		Provider: res.Provider,
		Attempts: res.Attempts,
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	if err := j.Append(entry); err != nil {
		j.logger.Warn("failed to journal price resolution",
			zap.String("asset", res.Asset),
			zap.String("quote", res.Quote),
			zap.Error(err),
		)
	}
}

// Append writes entry under the next index.
func (j *Journal) Append(entry Entry) error {
	if entry.Asset == "" {
		return fmt.Errorf("journal entry asset is required")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry.Index = j.wal.CurrentIndex() + 1
	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal journal entry")
	}
	key := keyPrefix + entry.Asset + ":" + entry.Quote
	return j.wal.Write(entry.Index, key, payload)
}

// Recent returns up to limit entries, newest first. Entries rotated out of
// the log are skipped.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	current := j.wal.CurrentIndex()
	entries := make([]Entry, 0, min(uint64(max(limit, 0)), current))
	for idx := current; idx > 0 && len(entries) < limit; idx-- {
		key, payload, err := j.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, errors.Wrapf(err, "decode journal entry %d", idx)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CurrentIndex returns the latest index written.
func (j *Journal) CurrentIndex() uint64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.wal.CurrentIndex()
}

// Close closes the underlying log.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.wal.Close()
}
