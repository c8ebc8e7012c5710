package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_SuggestionDrainIsOptIn(t *testing.T) {
	t.Setenv("SUGGESTION_DRAIN_ON_SHUTDOWN", "")
	assert.False(t, Load().SuggestionDrainOnShutdown)

	t.Setenv("SUGGESTION_DRAIN_ON_SHUTDOWN", "true")
	assert.True(t, Load().SuggestionDrainOnShutdown)

	t.Setenv("SUGGESTION_DRAIN_ON_SHUTDOWN", "maybe")
	assert.False(t, Load().SuggestionDrainOnShutdown)
}

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"http://a", "http://b"}, parseOrigins(" http://a, ,http://b "))
}
