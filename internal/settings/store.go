package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/border1px/video-remix/internal/domain"
)

// Well-known keys.
const (
	KeyAPIKey = "gemini_api_key"
	KeyModel  = "gemini_model_name"
)

// DefaultModel is used when no model name has been configured.
const DefaultModel = "gemini-2.5-flash"

// MinAPIKeyLength is the shortest key SetAPIKey accepts.
const MinAPIKeyLength = 20

// Store is a flat JSON key/value file. Every mutation rewrites the whole file.
// Unknown keys are preserved.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	values map[string]interface{}
}

// NewStore opens the store at path. A missing file is an empty store; a
// corrupt file is logged and treated as empty.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   path,
		logger: logger,
		values: make(map[string]interface{}),
	}
	if err := s.load(); err != nil {
		logger.Warn("failed to load settings, starting empty",
			"path", path,
			"error", err,
		)
	}
	return s
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read settings: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	values := make(map[string]interface{})
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}
	s.values = values
	return nil
}

// save must be called with s.mu held.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Get returns the string value of key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok || v == nil {
		return "", false
	}
	if str, isStr := v.(string); isStr {
		return str, true
	}
	return fmt.Sprint(v), true
}

// Set stores value under key and persists the store.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.save()
}

// Delete removes key and persists the store.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.save()
}

// APIKey returns the stored API key, or "" when none is set.
func (s *Store) APIKey() string {
	key, _ := s.Get(KeyAPIKey)
	return strings.TrimSpace(key)
}

// SetAPIKey validates and stores the API key.
func (s *Store) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: key is empty", domain.ErrInvalidAPIKey)
	}
	if len(key) < MinAPIKeyLength {
		return fmt.Errorf("%w: key must be at least %d characters", domain.ErrInvalidAPIKey, MinAPIKeyLength)
	}
	return s.Set(KeyAPIKey, key)
}

// ClearAPIKey removes the stored API key.
func (s *Store) ClearAPIKey() error {
	return s.Delete(KeyAPIKey)
}

// Model returns the configured model name, or DefaultModel.
func (s *Store) Model() string {
	if m, ok := s.Get(KeyModel); ok && strings.TrimSpace(m) != "" {
		return strings.TrimSpace(m)
	}
	return DefaultModel
}

// SetModel stores the model name. A blank name resets to the default.
func (s *Store) SetModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return s.Delete(KeyModel)
	}
	return s.Set(KeyModel, model)
}

// MaskedAPIKey returns the stored key with all but the last four characters hidden.
func (s *Store) MaskedAPIKey() string {
	return MaskKey(s.APIKey())
}

// MaskKey hides all but the last four characters of key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
