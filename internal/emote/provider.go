package emote

// Provider identifies an emote source.
type Provider int

const (
	Native Provider = iota // platform-native emotes resolved from message tags
	SevenTV
	FFZ
	BTTV
)

// Scope selects between a provider's global catalog and a user/channel catalog.
type Scope int

const (
	Global Scope = iota
	Scoped
)

// CatalogProviders lists the third-party providers in render priority order.
var CatalogProviders = []Provider{SevenTV, FFZ, BTTV}

// stripOrder is the order catalogs are purged in StripAll. Each pass removes a
// disjoint set of tokens, so the order has no visible effect.
var stripOrder = []Provider{FFZ, BTTV, SevenTV}

func (p Provider) String() string {
	switch p {
	case Native:
		return "twitch"
	case SevenTV:
		return "sevenTV"
	case FFZ:
		return "FFZ"
	case BTTV:
		return "BTTV"
	}
	return "unknown"
}

func (s Scope) String() string {
	if s == Scoped {
		return "scoped"
	}
	return "global"
}

// Entry is one emote in a catalog: the literal token and the provider's identifier for it.
type Entry struct {
	Name string
	ID   string
}
