package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the ledger as one JSON document mapping order id to record.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// ErrPartialLoad reports that some records were skipped on load. The orders
// that did decode are still returned alongside it.
var ErrPartialLoad = errors.New("some orders could not be loaded")

// Load returns the stored orders. A missing or empty document yields an empty
// ledger. Records are decoded one by one and bad ones are skipped, so one
// damaged order never hides the rest. A document that is not a JSON object at
// all is copied aside before an empty ledger is returned, so the next Save
// cannot destroy it.
func (s *FileStore) Load() (map[string]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Order{}, nil
		}
		return map[string]Order{}, fmt.Errorf("read: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]Order{}, nil
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
		if werr := os.WriteFile(backup, data, 0o644); werr != nil {
			return map[string]Order{}, fmt.Errorf("malformed ledger %s, backup failed: %w", s.path, errors.Join(err, werr))
		}
		return map[string]Order{}, fmt.Errorf("malformed ledger moved to %s: %w", backup, err)
	}

	orders := make(map[string]Order, len(records))
	var skipped []error
	for id, raw := range records {
		var o Order
		if err := json.Unmarshal(raw, &o); err != nil {
			skipped = append(skipped, fmt.Errorf("order %s: %w", id, err))
			continue
		}
		o.ID = id
		orders[id] = o
	}
	if len(skipped) > 0 {
		return orders, fmt.Errorf("%w: %w", ErrPartialLoad, errors.Join(skipped...))
	}
	return orders, nil
}

func (s *FileStore) Save(orders map[string]Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(orders); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return nil
}
