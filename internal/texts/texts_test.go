package texts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "Main Menu", T("en", "main_title"))
	assert.Equal(t, "Главное меню", T("ru", "main_title"))

	// unknown language falls back to English
	assert.Equal(t, "Main Menu", T("de", "main_title"))

	// unknown key degrades to the key so the gap is visible in the chat
	assert.Equal(t, "no_such_key", T("en", "no_such_key"))
}

func TestEveryKeyHasAllLanguages(t *testing.T) {
	for key, d := range table {
		for _, lang := range Supported {
			assert.NotEmpty(t, d[lang], "key %s missing %s", key, lang)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, lang := range Supported {
		assert.True(t, IsSupported(lang))
	}
	assert.False(t, IsSupported("de"))
	assert.False(t, IsSupported(""))
}
