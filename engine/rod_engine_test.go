package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"

	"github.com/is-leeroy-jenkins/Soupy/config"
	"github.com/is-leeroy-jenkins/Soupy/models"
)

func TestRodEngineName(t *testing.T) {
	assert.Equal(t, "rod", NewRodEngine(config.BrowserConfig{}, "", nil).Name())
	assert.Equal(t, "rod-stealth", NewRodEngine(config.BrowserConfig{Stealth: true}, "", nil).Name())
}

func TestRodEngineProbeMissingBinary(t *testing.T) {
	e := NewRodEngine(config.BrowserConfig{Bin: filepath.Join(t.TempDir(), "chrome")}, "", nil)
	err := e.Probe(context.Background())
	assert.Equal(t, models.ErrCodeDependencyUnavailable, scrapeErr(t, err).Code)
}

func TestBlockedSet(t *testing.T) {
	got := blockedSet([]string{"Image", "Font", "Bogus"})
	assert.Len(t, got, 2)
	assert.Contains(t, got, proto.NetworkResourceTypeImage)
	assert.Contains(t, got, proto.NetworkResourceTypeFont)
	assert.Empty(t, blockedSet(nil))
}

func TestToHeadersMap(t *testing.T) {
	m := toHeadersMap(map[string]string{"X-A": "1"})
	assert.Equal(t, "1", m["X-A"].Str())
}
