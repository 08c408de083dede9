package emote

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Catalog is one (provider, scope) variant together with the response schema
// its endpoint returns.
type Catalog struct {
	Provider Provider
	Scope    Scope
	decode   func(body []byte) ([]rawEmote, error)
}

func (c Catalog) String() string {
	return c.Provider.String() + "/" + c.Scope.String()
}

// Decode parses a response body and normalizes it to entries. Absent fields
// yield an empty list; a body that does not fit the schema is an error.
func (c Catalog) Decode(body []byte) ([]Entry, error) {
	raw, err := c.decode(body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s catalog: %w", c, err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		if e, ok := r.entry(); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

var catalogs = []Catalog{
	{Provider: SevenTV, Scope: Global, decode: decodeSevenTVGlobal},
	{Provider: SevenTV, Scope: Scoped, decode: decodeSevenTVUser},
	{Provider: FFZ, Scope: Global, decode: decodeFFZGlobal},
	{Provider: FFZ, Scope: Scoped, decode: decodeFFZRoom},
	{Provider: BTTV, Scope: Global, decode: decodeBTTVGlobal},
	{Provider: BTTV, Scope: Scoped, decode: decodeBTTVUser},
}

// Catalogs returns every catalog variant.
func Catalogs() []Catalog {
	out := make([]Catalog, len(catalogs))
	copy(out, catalogs)
	return out
}

// CatalogFor looks up the variant for a provider and scope.
func CatalogFor(p Provider, s Scope) (Catalog, bool) {
	for _, c := range catalogs {
		if c.Provider == p && c.Scope == s {
			return c, true
		}
	}
	return Catalog{}, false
}

// rawEmote is the record shape shared by all catalogs. BTTV names its token
// "code" instead of "name"; FFZ uses numeric ids.
type rawEmote struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func (r rawEmote) entry() (Entry, bool) {
	name := r.Name
	if name == "" {
		name = r.Code
	}
	if name == "" || r.ID == "" {
		return Entry{}, false
	}
	return Entry{Name: name, ID: string(r.ID)}, true
}

// flexID accepts a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

type sevenTVEmoteSet struct {
	Emotes []rawEmote `json:"emotes"`
}

type sevenTVUser struct {
	EmoteSet *sevenTVEmoteSet `json:"emote_set"`
}

func decodeSevenTVGlobal(body []byte) ([]rawEmote, error) {
	var set sevenTVEmoteSet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, err
	}
	return set.Emotes, nil
}

func decodeSevenTVUser(body []byte) ([]rawEmote, error) {
	var user sevenTVUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, err
	}
	if user.EmoteSet == nil {
		return nil, nil
	}
	return user.EmoteSet.Emotes, nil
}

type ffzSet struct {
	Emoticons []rawEmote `json:"emoticons"`
}

type ffzGlobal struct {
	DefaultSets []flexID          `json:"default_sets"`
	Sets        map[string]ffzSet `json:"sets"`
}

type ffzRoom struct {
	Room *struct {
		Set flexID `json:"set"`
	} `json:"room"`
	Sets map[string]ffzSet `json:"sets"`
}

func decodeFFZGlobal(body []byte) ([]rawEmote, error) {
	var g ffzGlobal
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, err
	}
	var out []rawEmote
	for _, id := range g.DefaultSets {
		out = append(out, g.Sets[string(id)].Emoticons...)
	}
	return out, nil
}

func decodeFFZRoom(body []byte) ([]rawEmote, error) {
	var r ffzRoom
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	if r.Room == nil {
		return nil, nil
	}
	return r.Sets[string(r.Room.Set)].Emoticons, nil
}

type bttvUser struct {
	ChannelEmotes []rawEmote `json:"channelEmotes"`
	SharedEmotes  []rawEmote `json:"sharedEmotes"`
}

func decodeBTTVGlobal(body []byte) ([]rawEmote, error) {
	var list []rawEmote
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func decodeBTTVUser(body []byte) ([]rawEmote, error) {
	var u bttvUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, err
	}
	out := make([]rawEmote, 0, len(u.SharedEmotes)+len(u.ChannelEmotes))
	out = append(out, u.SharedEmotes...)
	return append(out, u.ChannelEmotes...), nil
}
