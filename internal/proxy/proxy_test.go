package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/emote"
)

func TestGetClient(t *testing.T) {
	f := NewHTTPClientFactory(0)

	c, err := f.GetClient(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultClientTimeout, c.Timeout)

	user, pass := "u", "p"
	c, err = f.GetClient(&database.Proxy{Name: "h", Type: "http", Address: "10.1.1.1:3128", Username: &user, Password: &pass})
	require.NoError(t, err)
	tr := c.Transport.(*http.Transport)
	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "7tv.io"}}
	got, err := tr.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "http://u:p@10.1.1.1:3128", got.String())

	c, err = f.GetClient(&database.Proxy{Name: "s", Type: "socks5", Address: "127.0.0.1:1080"})
	require.NoError(t, err)
	assert.Nil(t, c.Transport.(*http.Transport).Proxy)

	_, err = f.GetClient(&database.Proxy{Name: "bad", Type: "ftp", Address: "h:21"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ok.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	v := NewDefaultProxyValidator(NewHTTPClientFactory(5 * time.Second))
	p := &database.Proxy{Name: "direct"}
	assert.NoError(t, v.Validate(context.Background(), p, ok.URL))
	assert.Error(t, v.Validate(context.Background(), p, broken.URL))
}

func TestValidate_Catalog(t *testing.T) {
	bodies := map[string]string{
		"/ok":     `[{"id":"b1","code":"catJAM"}]`,
		"/empty":  `[]`,
		"/portal": `<html>captive portal</html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bodies[r.URL.Path]))
	}))
	defer srv.Close()

	v := NewDefaultProxyValidator(NewHTTPClientFactory(5 * time.Second))
	p := &database.Proxy{Name: "direct"}
	validate := func(path string) error {
		v.Endpoints = emote.Endpoints{emote.BTTV: {Global: srv.URL + path}}
		return v.Validate(context.Background(), p, "")
	}

	assert.NoError(t, validate("/ok"))
	assert.ErrorIs(t, validate("/empty"), ErrEmptyCatalog)
	assert.Error(t, validate("/portal"))
}
