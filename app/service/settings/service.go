// Package settings keeps the operator-tunable voice parameters, persisted as
// a small JSON file so they survive restarts.
package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"santacall/app/config"

	"github.com/samber/do"
)

var filePath = filepath.Join("data", "settings.json")

type Settings struct {
	VoiceID    string  `json:"voice_id,omitempty"`
	Stability  float64 `json:"stability,omitempty"`
	Similarity float64 `json:"similarity_boost,omitempty"`
}

type Service struct {
	cfg *config.Config

	mu      sync.RWMutex
	current Settings
}

func New(di *do.Injector) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	s := &Service{
		cfg: do.MustInvoke[*config.Config](di),
	}

	if err := s.load(); err != nil {
		slog.Warn("Failed to load voice settings, using defaults", "error", err)
	}

	return s, nil
}

func (s *Service) load() error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	var loaded Settings
	if err = json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	return nil
}

// Get returns the effective settings: stored overrides on top of config
// defaults.
func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.effective()
}

// effective applies config defaults over the stored overrides. Callers hold
// at least a read lock.
func (s *Service) effective() Settings {
	out := s.current
	if out.VoiceID == "" {
		out.VoiceID = s.cfg.ElevenLabs.VoiceID
	}
	if out.Stability == 0 {
		out.Stability = s.cfg.ElevenLabs.Stability
	}
	if out.Similarity == 0 {
		out.Similarity = s.cfg.ElevenLabs.Similarity
	}

	return out
}

// Update overwrites the provided fields and persists the result. The lock is
// held across the file write so concurrent updates cannot land on disk out of
// order with the in-memory state.
func (s *Service) Update(in Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.VoiceID != "" {
		s.current.VoiceID = in.VoiceID
	}
	if in.Stability != 0 {
		s.current.Stability = in.Stability
	}
	if in.Similarity != 0 {
		s.current.Similarity = in.Similarity
	}

	data, err := json.Marshal(s.current)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err = os.WriteFile(filePath, data, 0644); err != nil {
		return Settings{}, fmt.Errorf("failed to write settings file: %w", err)
	}

	slog.Info("Voice settings updated")

	return s.effective(), nil
}
