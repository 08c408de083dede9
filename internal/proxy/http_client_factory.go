package proxy

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"github.com/haytac/emote-relay/internal/database"
)

const defaultClientTimeout = 30 * time.Second

// DefaultHTTPClientFactory builds HTTP clients, optionally routed through a proxy.
type DefaultHTTPClientFactory struct {
	timeout time.Duration
}

// NewHTTPClientFactory creates a factory whose clients use the given overall
// request timeout. Zero selects 30 seconds.
func NewHTTPClientFactory(timeout time.Duration) *DefaultHTTPClientFactory {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &DefaultHTTPClientFactory{timeout: timeout}
}

// GetClient returns an HTTP client configured with p, or a direct client when p is nil.
func (f *DefaultHTTPClientFactory) GetClient(p *database.Proxy) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if p != nil && p.Address != "" {
		proxyURL, err := proxyURL(p)
		if err != nil {
			return nil, err
		}
		switch p.Type {
		case "http", "https":
			transport.Proxy = http.ProxyURL(proxyURL)
		case "socks5":
			dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", p.Address, err)
			}
			contextDialer, ok := dialer.(proxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("SOCKS5 dialer does not implement proxy.ContextDialer")
			}
			transport.DialContext = contextDialer.DialContext
			transport.Proxy = nil
		default:
			return nil, fmt.Errorf("unsupported proxy type: %s", p.Type)
		}
	}

	return &http.Client{Transport: transport, Timeout: f.timeout}, nil
}

func proxyURL(p *database.Proxy) (*url.URL, error) {
	u, err := url.Parse(fmt.Sprintf("%s://%s", p.Type, p.Address))
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL for %s: %w", p.Name, err)
	}
	if p.Username != nil && *p.Username != "" {
		password := ""
		if p.Password != nil {
			password = *p.Password
		}
		u.User = url.UserPassword(*p.Username, password)
	}
	return u, nil
}
