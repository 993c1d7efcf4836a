// Package persist snapshots the call session to a single named slot on disk
// so a reload within the freshness window can resume the call.
package persist

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"santacall/app/flow"

	"github.com/samber/do"
	"github.com/samber/oops"
)

var slotPath = filepath.Join("data", "call_session.json")

// freshnessWindow bounds how old a snapshot may be and still resume a call.
const freshnessWindow = time.Hour

// envelope pairs the session snapshot with the time it was written.
type envelope struct {
	Snapshot flow.Snapshot `json:"snapshot"`
	SavedAt  time.Time     `json:"savedAt"`
}

type Service struct {
	mu  sync.Mutex
	now func() time.Time
}

func New(_ *do.Injector) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(slotPath), 0755); err != nil {
		return nil, oops.Errorf("failed to create data dir: %w", err)
	}

	return &Service{now: time.Now}, nil
}

// Save overwrites the slot with the given snapshot.
func (s *Service) Save(snap flow.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(envelope{
		Snapshot: snap,
		SavedAt:  s.now(),
	})
	if err != nil {
		return oops.Errorf("failed to marshal session snapshot: %w", err)
	}

	if err = os.WriteFile(slotPath, data, 0644); err != nil {
		return oops.Errorf("failed to write session snapshot: %w", err)
	}

	return nil
}

// Load returns the stored snapshot when one exists and is fresh enough.
// A stale snapshot is discarded on the spot.
func (s *Service) Load() (flow.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(slotPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read session snapshot", "error", err)
		}
		return flow.Snapshot{}, false
	}

	var env envelope
	if err = json.Unmarshal(data, &env); err != nil {
		slog.Warn("Discarding unparsable session snapshot", "error", err)
		_ = os.Remove(slotPath)
		return flow.Snapshot{}, false
	}

	if s.now().Sub(env.SavedAt) > freshnessWindow {
		slog.Info("Discarding stale session snapshot", "saved_at", env.SavedAt)
		_ = os.Remove(slotPath)
		return flow.Snapshot{}, false
	}

	return env.Snapshot, true
}

// Clear removes the slot; missing files are fine.
func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(slotPath); err != nil && !os.IsNotExist(err) {
		return oops.Errorf("failed to clear session snapshot: %w", err)
	}

	return nil
}
