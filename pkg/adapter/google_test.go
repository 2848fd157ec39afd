package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiContentsMapsRoles(t *testing.T) {
	contents := geminiContents([]Message{User("question"), Assistant("draft"), User("again")})

	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), string(contents[0].Role))
	assert.Equal(t, string(genai.RoleModel), string(contents[1].Role))
	assert.Equal(t, string(genai.RoleUser), string(contents[2].Role))
	require.Len(t, contents[1].Parts, 1)
	assert.Equal(t, "draft", contents[1].Parts[0].Text)
}

func TestNewGoogleAdapterRequiresKey(t *testing.T) {
	_, err := NewGoogleAdapter("")
	assert.EqualError(t, err, "google API key is required")
}
