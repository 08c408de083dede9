package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/emote"
	"github.com/haytac/emote-relay/pkg/interfaces"
)

const validateTimeout = 15 * time.Second

// ErrEmptyCatalog is returned when a catalog fetched through a proxy decodes
// to no emotes, which usually means the proxy served something else.
var ErrEmptyCatalog = errors.New("catalog fetched through proxy is empty")

// DefaultProxyValidator implements interfaces.ProxyValidator.
type DefaultProxyValidator struct {
	clientFactory interfaces.HTTPClientFactory

	// Endpoints is used for the catalog check when no target URL is given.
	Endpoints emote.Endpoints
}

// NewDefaultProxyValidator creates a new validator.
func NewDefaultProxyValidator(factory interfaces.HTTPClientFactory) *DefaultProxyValidator {
	return &DefaultProxyValidator{clientFactory: factory, Endpoints: emote.DefaultEndpoints}
}

// Validate checks connectivity through p. With an empty targetURL the BTTV
// global catalog is fetched and decoded; otherwise targetURL must answer 2xx.
func (v *DefaultProxyValidator) Validate(ctx context.Context, p *database.Proxy, targetURL string) error {
	client, err := v.clientFactory.GetClient(p)
	if err != nil {
		return fmt.Errorf("proxy %s (%s): failed to get HTTP client: %w", p.Name, p.Address, err)
	}

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	l := log.With().Str("proxy_name", p.Name).Str("proxy_address", p.Address).Logger()
	if targetURL == "" {
		l.Debug().Msg("Validating proxy against the BTTV global catalog")
		return v.validateCatalog(ctx, client, p)
	}

	l.Debug().Str("target_url", targetURL).Msg("Validating proxy")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return fmt.Errorf("proxy %s: building request to %s: %w", p.Name, targetURL, err)
	}
	req.Header.Set("User-Agent", "EmoteRelayProxyValidator/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("proxy %s (%s): request to %s failed: %w", p.Name, p.Address, targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("proxy %s (%s): %s returned status %d", p.Name, p.Address, targetURL, resp.StatusCode)
	}
	l.Info().Int("status_code", resp.StatusCode).Msg("Proxy validation successful")
	return nil
}

func (v *DefaultProxyValidator) validateCatalog(ctx context.Context, client *http.Client, p *database.Proxy) error {
	loader := emote.NewLoader(client)
	loader.Endpoints = v.Endpoints

	c, _ := emote.CatalogFor(emote.BTTV, emote.Global)
	entries, err := loader.Fetch(ctx, c, "")
	if err != nil {
		return fmt.Errorf("proxy %s (%s): %w", p.Name, p.Address, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("proxy %s (%s): %w", p.Name, p.Address, ErrEmptyCatalog)
	}
	log.Info().Str("proxy_name", p.Name).Int("emotes", len(entries)).Msg("Proxy validation successful")
	return nil
}
