package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbreen/CatanFinal-sub001/internal/game"
)

func TestRegistryCreateValidation(t *testing.T) {
	r := NewRegistry(2)

	for _, name := range []string{"", "a|b", "a\tb", "a\nb"} {
		_, err := r.Create(name, game.Options{})
		assert.Error(t, err, "name %q", name)
	}

	_, err := r.Create("Lobby", game.Options{})
	require.NoError(t, err)
	_, err = r.Create("lobby", game.Options{})
	assert.Error(t, err, "names collide case-insensitively")

	_, err = r.Create("second", game.Options{})
	require.NoError(t, err)
	_, err = r.Create("third", game.Options{})
	assert.Error(t, err, "registry is full")

	r.Destroy("LOBBY")
	assert.Nil(t, r.Get("Lobby"))
	_, err = r.Create("third", game.Options{})
	assert.NoError(t, err, "destroying frees a slot")
}

func TestRegistryMembership(t *testing.T) {
	r := NewRegistry(2)
	_, err := r.Create("g", game.Options{})
	require.NoError(t, err)

	assert.False(t, r.Join("missing", "c1"))
	require.True(t, r.Join("g", "c1"))
	require.True(t, r.Join("g", "c2"))
	assert.True(t, r.IsMember("G", "c1"), "lookups ignore case")
	assert.Equal(t, []string{"c1", "c2"}, r.Members("g"))

	r.Leave("g", "c1")
	assert.False(t, r.IsMember("g", "c1"))
	assert.Equal(t, []string{"c2"}, r.Members("g"))
}

func TestRegistryMarkSummarized(t *testing.T) {
	r := NewRegistry(1)
	_, err := r.Create("g", game.Options{})
	require.NoError(t, err)

	assert.False(t, r.MarkSummarized("missing"))
	assert.True(t, r.MarkSummarized("g"))
	assert.False(t, r.MarkSummarized("g"), "second mark is a no-op")
}
