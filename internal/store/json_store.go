package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/vngold/internal/errors"
	"github.com/tropicaldog17/vngold/internal/fileutil"
	"github.com/tropicaldog17/vngold/internal/models"
)

// document is the on-disk layout: asset -> day -> decimal string.
type document map[string]map[string]string

// JSONFileStore persists the whole history as one JSON document. Every
// operation loads the file, and writes go through a temp file and rename.
// A mutex serializes read-modify-write cycles inside the process.
type JSONFileStore struct {
	path      string
	tolerance int
	logger    *zap.Logger
	mu        sync.Mutex
}

func NewJSONFileStore(path string, logger *zap.Logger) *JSONFileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONFileStore{path: path, tolerance: DefaultToleranceDays, logger: logger}
}

func (s *JSONFileStore) Record(_ context.Context, asset string, value decimal.Decimal, at time.Time) error {
	if err := validateRecord(asset, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadOrEmpty()
	put(doc, asset, models.DayKey(at), value)
	return s.save(doc)
}

func (s *JSONFileStore) RecordIfAbsent(_ context.Context, asset string, value decimal.Decimal, at time.Time) (bool, error) {
	if err := validateRecord(asset, value); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadOrEmpty()
	day := models.DayKey(at)
	if _, exists := doc[asset][day]; exists {
		return false, nil
	}
	put(doc, asset, day, value)
	if err := s.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// RecordMany upserts a batch with a single load and save.
func (s *JSONFileStore) RecordMany(_ context.Context, asset string, values map[string]decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadOrEmpty()
	for day, value := range values {
		if err := validateRecord(asset, value); err != nil {
			continue
		}
		parsed, err := models.ParseDay(day)
		if err != nil {
			continue
		}
		put(doc, asset, models.DayKey(parsed), value)
	}
	return s.save(doc)
}

func (s *JSONFileStore) ValueAt(_ context.Context, asset string, target time.Time) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days := decodeDays(s.loadOrEmpty()[asset])
	v, ok := nearestDay(days, target, s.tolerance)
	return v, ok, nil
}

func (s *JSONFileStore) Entries(_ context.Context, asset string) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days := decodeDays(s.loadOrEmpty()[asset])
	entries := make([]models.HistoryEntry, 0, len(days))
	for day, value := range days {
		entries = append(entries, models.HistoryEntry{Asset: asset, Day: day, Value: value})
	}
	sortEntries(entries)
	return entries, nil
}

// loadOrEmpty treats a missing or corrupt file as an empty store.
func (s *JSONFileStore) loadOrEmpty() document {
	doc, err := s.load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("history file missing, starting empty", zap.String("path", s.path))
		} else {
			s.logger.Warn("history file unreadable, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return document{}
	}
	return doc
}

func (s *JSONFileStore) load() (document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &apperrors.ErrStorageUnavailable{Path: s.path, Err: err}
	}
	doc := document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &apperrors.ErrStorageUnavailable{Path: s.path, Err: err}
	}
	return doc, nil
}

func (s *JSONFileStore) save(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return fileutil.WriteFileAtomic(s.path, raw)
}

func put(doc document, asset, day string, value decimal.Decimal) {
	if doc[asset] == nil {
		doc[asset] = make(map[string]string)
	}
	doc[asset][day] = value.String()
}

func decodeDays(raw map[string]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(raw))
	for day, s := range raw {
		v, err := decimal.NewFromString(s)
		if err != nil {
			continue
		}
		out[day] = v
	}
	return out
}

var _ HistoryStore = (*JSONFileStore)(nil)
