package catalog_test

import (
	"testing"

	"github.com/layer-3/dapptober/catalog"
	"github.com/layer-3/dapptober/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	prompts, err := catalog.All()
	require.NoError(t, err)
	require.Len(t, prompts, core.LastDay)

	for i, p := range prompts {
		assert.Equal(t, i+1, p.Day)
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Tags)
	}
}

func TestGet(t *testing.T) {
	p, err := catalog.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "The Nostalgic Pixelator", p.Title)

	_, err = catalog.Get(0)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = catalog.Get(32)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestParseRejectsBadCalendar(t *testing.T) {
	_, err := catalog.Parse([]byte("- day: 40\n  title: late\n"))
	assert.Error(t, err)

	_, err = catalog.Parse([]byte("- day: 2\n  title: a\n- day: 2\n  title: b\n"))
	assert.Error(t, err)
}
