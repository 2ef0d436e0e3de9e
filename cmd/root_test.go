package cmd

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/dexbrowse/httpclient"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"unknown": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestVersionString(t *testing.T) {
	defer SetVersion("dev", "unknown")

	SetVersion("v1.2.3", "2024-01-01")
	assert.Equal(t, "1.2.3", versionString())

	SetVersion("dev", "unknown")
	assert.Equal(t, "dev", versionString())
}

func TestDisplayError(t *testing.T) {
	logger = zerolog.Nop()

	err := displayError(&httpclient.Error{Kind: httpclient.KindNotFound, URL: "https://pokeapi.co/api/v2/pokemon/x", StatusCode: 404})
	assert.EqualError(t, err, "Not found: We couldn't find that Pokémon.")

	cancelled := &httpclient.Error{Kind: httpclient.KindCancelled}
	assert.Same(t, cancelled, displayError(cancelled))

	plain := assert.AnError
	assert.Equal(t, plain, displayError(plain))
}

func TestSkipInit(t *testing.T) {
	assert.True(t, skipInit(versionCmd))
	assert.True(t, skipInit(rootCmd))
	assert.False(t, skipInit(browseCmd))
	assert.False(t, skipInit(cacheClearCmd))
}
