package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()
	require.NotNil(t, km)

	tests := []struct {
		name string
		keys []string
		want []string
	}{
		{"quit", km.Quit.Keys(), []string{"q", "ctrl+c"}},
		{"back", km.Back.Keys(), []string{"esc"}},
		{"submit", km.Submit.Keys(), []string{"enter"}},
		{"up", km.Up.Keys(), []string{"up", "k"}},
		{"down", km.Down.Keys(), []string{"down", "j"}},
		{"compose", km.Compose.Keys(), []string{"ctrl+s"}},
		{"delete", km.Delete.Keys(), []string{"d"}},
		{"reload", km.Reload.Keys(), []string{"r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.keys)
		})
	}
}

func TestKeyMap_HelpSets(t *testing.T) {
	km := DefaultKeyMap()

	assert.Len(t, km.ShortHelp(), 2)
	assert.Equal(t, "new query", km.ResultsHelp()[0].Help().Desc)
	assert.Equal(t, "ctrl+s", km.DraftHelp()[0].Help().Key)

	total := 0
	for _, group := range km.FullHelp() {
		total += len(group)
	}
	assert.Equal(t, 11, total)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("k", km.Up))
	assert.True(t, Matches("ctrl+s", km.Compose))
	assert.False(t, Matches("enter", km.Compose))
	assert.False(t, Matches("x", km.Quit))
}
