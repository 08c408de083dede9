package emote

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MergeAccumulatesAndOverwrites(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.Table(SevenTV))

	n, err := s.Merge(SevenTV, []Entry{{Name: "EZ", ID: "1"}, {Name: "Clap", ID: "2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A second scope merges into the same table; the latest id wins.
	n, err = s.Merge(SevenTV, []Entry{{Name: "EZ", ID: "9"}, {Name: "NODDERS", ID: "3"}, {Name: "NODDERS", ID: "4"}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, map[string]string{"EZ": "9", "Clap": "2", "NODDERS": "4"}, s.Table(SevenTV))

	// Other providers are untouched.
	assert.Zero(t, s.Len(FFZ))
}

func TestStore_MergeIsIdempotent(t *testing.T) {
	entries := []Entry{{Name: "a", ID: "1"}, {Name: "b", ID: "2"}}
	once, twice := NewStore(), NewStore()
	_, err := once.Merge(BTTV, entries)
	require.NoError(t, err)
	_, err = twice.Merge(BTTV, entries)
	require.NoError(t, err)
	_, err = twice.Merge(BTTV, entries)
	require.NoError(t, err)
	assert.Equal(t, once.Table(BTTV), twice.Table(BTTV))
}

func TestStore_EmptyMergeKeepsTable(t *testing.T) {
	s := NewStore()
	_, err := s.Merge(FFZ, []Entry{{Name: "monkaW", ID: "1"}})
	require.NoError(t, err)
	n, err := s.Merge(FFZ, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	id, ok := s.Lookup(FFZ, "monkaW")
	assert.True(t, ok)
	assert.Equal(t, "1", id)
}

func TestStore_NativeHasNoTable(t *testing.T) {
	_, err := NewStore().Merge(Native, []Entry{{Name: "Kappa", ID: "25"}})
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestStore_MatcherFollowsTable(t *testing.T) {
	s := NewStore()
	assert.False(t, s.snapshot(SevenTV).matcher.Match("EZ"))
	_, err := s.Merge(SevenTV, []Entry{{Name: "EZ", ID: "1"}})
	require.NoError(t, err)
	snap := s.snapshot(SevenTV)
	assert.True(t, snap.matcher.Match("EZ"))
	assert.False(t, snap.matcher.Match("ez"))
	assert.False(t, snap.matcher.Match("EZ,"))
}

func TestStore_ConcurrentMergesConverge(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := string(rune('a' + i))
			_, _ = s.Merge(BTTV, []Entry{{Name: name, ID: name}})
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, s.Len(BTTV))
}

func TestStore_TableReturnsCopy(t *testing.T) {
	s := NewStore()
	_, err := s.Merge(FFZ, []Entry{{Name: "x", ID: "1"}})
	require.NoError(t, err)
	tbl := s.Table(FFZ)
	tbl["y"] = "2"
	assert.Equal(t, 1, s.Len(FFZ))
}
