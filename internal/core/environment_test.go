package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"production": Production,
		"PROD":       Production,
		"staging":    Staging,
		"preview":    Staging,
		"dev":        Development,
		"":           Development,
		"unknown":    Development,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseEnvironment(in), "input %q", in)
	}
}

func TestResolveEnvironment_OverrideWins(t *testing.T) {
	assert.Equal(t, Staging, ResolveEnvironment("staging", "production"))
}

func TestResolveEnvironment_FallsBackToRuntimeMode(t *testing.T) {
	assert.Equal(t, Production, ResolveEnvironment("", "production"))
	assert.Equal(t, Production, ResolveEnvironment("bogus", "prod"))
}

func TestResolveEnvironment_DefaultsToDevelopment(t *testing.T) {
	assert.Equal(t, Development, ResolveEnvironment("", ""))
	assert.Equal(t, Development, ResolveEnvironment("nope", "also-nope"))
}
