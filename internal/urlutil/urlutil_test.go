package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithParams(t *testing.T) {
	got, err := WithParams("https://broker.example.com/register", map[string]string{"click_id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "https://broker.example.com/register?click_id=abc", got)
}

func TestWithParamsMergesExistingQuery(t *testing.T) {
	got, err := WithParams("https://broker.example.com/r?flow=b", map[string]string{"click_id": "abc"})
	require.NoError(t, err)
	assert.Contains(t, got, "flow=b")
	assert.Contains(t, got, "click_id=abc")
}

func TestWithParamsOverwrites(t *testing.T) {
	got, err := WithParams("https://x.example.com/?click_id=old", map[string]string{"click_id": "new"})
	require.NoError(t, err)
	assert.Equal(t, "https://x.example.com/?click_id=new", got)
}

func TestWithParamsBadURL(t *testing.T) {
	_, err := WithParams("://nope", map[string]string{"a": "b"})
	assert.Error(t, err)
}
