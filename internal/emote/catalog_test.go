package emote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, p Provider, s Scope, body string) []Entry {
	t.Helper()
	c, ok := CatalogFor(p, s)
	require.True(t, ok)
	entries, err := c.Decode([]byte(body))
	require.NoError(t, err)
	return entries
}

func TestCatalogDecode_Shapes(t *testing.T) {
	tests := []struct {
		name string
		p    Provider
		s    Scope
		body string
		want []Entry
	}{
		{
			name: "7tv global emote set",
			p:    SevenTV, s: Global,
			body: `{"id":"global","emotes":[{"id":"a1","name":"EZ"},{"id":"a2","name":"Clap"}]}`,
			want: []Entry{{Name: "EZ", ID: "a1"}, {Name: "Clap", ID: "a2"}},
		},
		{
			name: "7tv user nested set",
			p:    SevenTV, s: Scoped,
			body: `{"id":"u","emote_set":{"emotes":[{"id":"id123","name":"NODDERS"}]}}`,
			want: []Entry{{Name: "NODDERS", ID: "id123"}},
		},
		{
			name: "7tv user without set",
			p:    SevenTV, s: Scoped,
			body: `{"id":"u","emote_set":null}`,
			want: []Entry{},
		},
		{
			name: "ffz room indirection",
			p:    FFZ, s: Scoped,
			body: `{"room":{"set":311},"sets":{"311":{"emoticons":[{"id":1001,"name":"monkaW"}]},"9":{"emoticons":[{"id":9,"name":"Other"}]}}}`,
			want: []Entry{{Name: "monkaW", ID: "1001"}},
		},
		{
			name: "ffz global default sets",
			p:    FFZ, s: Global,
			body: `{"default_sets":[3,4],"sets":{"3":{"emoticons":[{"id":1,"name":"ZreknarF"}]},"4":{"emoticons":[{"id":2,"name":"LilZ"}]},"5":{"emoticons":[{"id":3,"name":"Hidden"}]}}}`,
			want: []Entry{{Name: "ZreknarF", ID: "1"}, {Name: "LilZ", ID: "2"}},
		},
		{
			name: "bttv global bare list uses code",
			p:    BTTV, s: Global,
			body: `[{"id":"b1","code":"catJAM"},{"id":"b2","code":"PepeLaugh"}]`,
			want: []Entry{{Name: "catJAM", ID: "b1"}, {Name: "PepeLaugh", ID: "b2"}},
		},
		{
			name: "bttv user union of shared and channel",
			p:    BTTV, s: Scoped,
			body: `{"channelEmotes":[{"id":"c1","code":"OwnEmote"}],"sharedEmotes":[{"id":"s1","code":"Shared"}]}`,
			want: []Entry{{Name: "Shared", ID: "s1"}, {Name: "OwnEmote", ID: "c1"}},
		},
		{
			name: "absent fields yield nothing",
			p:    BTTV, s: Scoped,
			body: `{"message":"user not found"}`,
			want: []Entry{},
		},
		{
			name: "records without id or name are dropped",
			p:    SevenTV, s: Global,
			body: `{"emotes":[{"id":"","name":"NoID"},{"id":"x"},{"id":"ok","name":"Fine"}]}`,
			want: []Entry{{Name: "Fine", ID: "ok"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decode(t, tt.p, tt.s, tt.body))
		})
	}
}

func TestCatalogDecode_Unparseable(t *testing.T) {
	for _, c := range Catalogs() {
		_, err := c.Decode([]byte("<html>bad gateway</html>"))
		assert.Error(t, err, c.String())
	}

	// BTTV global is a bare list; an object is not that shape.
	c, _ := CatalogFor(BTTV, Global)
	_, err := c.Decode([]byte(`{"emotes":[]}`))
	assert.Error(t, err)
}

func TestCatalogs_CoverEveryProviderAndScope(t *testing.T) {
	assert.Len(t, Catalogs(), 6)
	for _, p := range CatalogProviders {
		for _, s := range []Scope{Global, Scoped} {
			_, ok := CatalogFor(p, s)
			assert.True(t, ok, "%s/%s", p, s)
		}
	}
	_, ok := CatalogFor(Native, Global)
	assert.False(t, ok)
}

func TestEndpoints_URL(t *testing.T) {
	u, err := DefaultEndpoints.URL(SevenTV, Scoped, "12345")
	require.NoError(t, err)
	assert.Equal(t, "https://7tv.io/v3/users/twitch/12345", u)

	u, err = DefaultEndpoints.URL(FFZ, Scoped, "some channel")
	require.NoError(t, err)
	assert.Equal(t, "https://api.frankerfacez.com/v1/room/some%20channel", u)

	u, err = DefaultEndpoints.URL(BTTV, Global, "")
	require.NoError(t, err)
	assert.Equal(t, "https://api.betterttv.net/3/cached/emotes/global", u)

	_, err = DefaultEndpoints.URL(BTTV, Scoped, "")
	assert.ErrorIs(t, err, ErrNoEndpoint)

	_, err = DefaultEndpoints.URL(Native, Global, "")
	assert.ErrorIs(t, err, ErrNoEndpoint)
}
