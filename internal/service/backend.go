package service

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/border1px/video-remix/internal/domain"
	"github.com/border1px/video-remix/internal/settings"
	"github.com/border1px/video-remix/pkg/gemini"
)

// ClientFactory builds a backend client for an API key.
type ClientFactory func(apiKey string) (gemini.Client, error)

// BackendProvider hands out a backend client for the currently configured
// key, rebuilding it whenever the key changes.
type BackendProvider struct {
	store   *settings.Store
	envKey  string
	factory ClientFactory
	logger  *slog.Logger

	mu     sync.Mutex
	key    string
	client gemini.Client
}

// NewBackendProvider creates a provider. envKey is used when the settings
// store holds no key.
func NewBackendProvider(store *settings.Store, envKey string, factory ClientFactory, logger *slog.Logger) *BackendProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackendProvider{
		store:   store,
		envKey:  strings.TrimSpace(envKey),
		factory: factory,
		logger:  logger,
	}
}

// APIKey returns the effective API key, or "".
func (p *BackendProvider) APIKey() string {
	if key := p.store.APIKey(); key != "" {
		return key
	}
	return p.envKey
}

// KeySource reports where the effective key comes from: "settings", "env" or "".
func (p *BackendProvider) KeySource() string {
	switch {
	case p.store.APIKey() != "":
		return "settings"
	case p.envKey != "":
		return "env"
	default:
		return ""
	}
}

// Model returns the configured model name.
func (p *BackendProvider) Model() string {
	return p.store.Model()
}

// Client returns a client for the current key. It fails with
// domain.ErrMissingAPIKey when no key is configured.
func (p *BackendProvider) Client() (gemini.Client, error) {
	key := p.APIKey()
	if key == "" {
		return nil, domain.ErrMissingAPIKey
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil || p.key != key {
		if p.client != nil {
			p.logger.Info("API key changed, recreating backend client")
		}
		client, err := p.factory(key)
		if err != nil {
			return nil, fmt.Errorf("create backend client: %w", err)
		}
		p.client = client
		p.key = key
	}
	return p.client, nil
}
