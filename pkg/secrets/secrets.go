package secrets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bloomlabs/chatforge/internal/common"
)

// ProviderConfig configures credential resolution. Endpoint is the remote
// secret store; EnvVar is the fallback when the store is unreachable.
type ProviderConfig struct {
	Endpoint   string
	SecretName string
	EnvVar     string
	MinLength  int
	Prefix     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Provider resolves and caches the LLM bearer credential. The value is
// resolved once and cached for the remainder of the process lifetime.
type Provider struct {
	config ProviderConfig
	client *http.Client

	mu     sync.Mutex
	cached string
}

func NewWithConfig(config ProviderConfig) *Provider {
	if config.SecretName == "" {
		config.SecretName = "claude-api-key"
	}
	if config.EnvVar == "" {
		config.EnvVar = "ANTHROPIC_API_KEY"
	}
	if config.MinLength == 0 {
		config.MinLength = 50
	}
	if config.Prefix == "" {
		config.Prefix = "sk-ant-"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Provider{
		config: config,
		client: client,
	}
}

// Credential returns the cached credential, resolving it on first use.
// Resolution order: cache, remote secret store, environment variable.
// It never panics past its boundary; an error means the generative features
// are unavailable, and callers should degrade rather than fail hard.
func (p *Provider) Credential(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached, nil
	}

	logger := common.Logger()

	if p.config.Endpoint != "" {
		secret, err := p.fetchRemote(ctx)
		if err != nil {
			logger.Warn("secrets: remote store lookup failed", "secret", p.config.SecretName, "error", err)
		} else if p.validShape(secret) {
			p.cached = secret
			return secret, nil
		} else {
			// An invalid-shaped secret is treated as not found, never cached.
			logger.Warn("secrets: remote secret failed shape check", "secret", p.config.SecretName)
		}
	}

	if env := strings.TrimSpace(os.Getenv(p.config.EnvVar)); env != "" {
		if p.validShape(env) {
			p.cached = env
			return env, nil
		}
		logger.Warn("secrets: environment credential failed shape check", "var", p.config.EnvVar)
	}

	return "", fmt.Errorf("credential %q unavailable", p.config.SecretName)
}

func (p *Provider) fetchRemote(ctx context.Context) (string, error) {
	endpoint, err := url.JoinPath(p.config.Endpoint, p.config.SecretName)
	if err != nil {
		return "", fmt.Errorf("invalid secrets endpoint: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("secret store returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(body)), nil
}

func (p *Provider) validShape(secret string) bool {
	if secret == "" {
		return false
	}
	if len(secret) < p.config.MinLength {
		return false
	}
	return strings.HasPrefix(secret, p.config.Prefix)
}
