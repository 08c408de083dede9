package emote

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrNoEndpoint is returned when a (provider, scope) pair has no catalog endpoint.
var ErrNoEndpoint = errors.New("no catalog endpoint")

// Endpoint holds the catalog URLs of one provider. Scoped is a fmt template
// taking the path-escaped identifier.
type Endpoint struct {
	Global string
	Scoped string
}

// Endpoints maps each catalog provider to its endpoints.
type Endpoints map[Provider]Endpoint

// DefaultEndpoints are the public catalog APIs. 7TV and BTTV are scoped by
// platform user id, FFZ by channel name.
var DefaultEndpoints = Endpoints{
	SevenTV: {
		Global: "https://7tv.io/v3/emote-sets/global",
		Scoped: "https://7tv.io/v3/users/twitch/%s",
	},
	FFZ: {
		Global: "https://api.frankerfacez.com/v1/set/global",
		Scoped: "https://api.frankerfacez.com/v1/room/%s",
	},
	BTTV: {
		Global: "https://api.betterttv.net/3/cached/emotes/global",
		Scoped: "https://api.betterttv.net/3/cached/users/twitch/%s",
	},
}

// URL returns the endpoint for the given provider and scope.
func (e Endpoints) URL(p Provider, s Scope, identifier string) (string, error) {
	ep, ok := e[p]
	if !ok {
		return "", fmt.Errorf("%w for provider %s", ErrNoEndpoint, p)
	}
	if s == Global {
		return ep.Global, nil
	}
	if identifier == "" {
		return "", fmt.Errorf("%w: %s scoped catalog needs an identifier", ErrNoEndpoint, p)
	}
	return fmt.Sprintf(ep.Scoped, url.PathEscape(identifier)), nil
}
