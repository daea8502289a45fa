package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	m, err := Load("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"en", "ru"}, lo.Keys(m.translations))

	ru := m.Translator("ru")
	en := m.Translator("en")

	assert.Contains(t, ru.T("add.prompt"), "Отправьте анекдот")
	assert.Equal(t, "Added! Jokes saved: 3", en.Tf("add.saved", 3))
	assert.Contains(t, en.Tf("restart.step_failed", "fetch", 1), `Step "fetch" exited with status 1`)
}

func TestLoad_CatalogsHaveSameKeys(t *testing.T) {
	m, err := Load("ru")
	require.NoError(t, err)

	for key := range m.translations["ru"] {
		_, ok := m.translations["en"][key]
		assert.True(t, ok, "en is missing %q", key)
	}
	for key := range m.translations["en"] {
		_, ok := m.translations["ru"][key]
		assert.True(t, ok, "ru is missing %q", key)
	}
}

func TestTranslator_Fallbacks(t *testing.T) {
	fsys := fstest.MapFS{
		"l/a.yaml": {Data: []byte("ru:\n  greet: привет\n  only_ru: только\nen:\n  greet: hello\n")},
		"l/b.yml":  {Data: []byte("en:\n  nested:\n    key: deep\n")},
		"l/c.txt":  {Data: []byte("ignored")},
	}

	m, err := LoadFS(fsys, "l", "ru")
	require.NoError(t, err)

	en := m.Translator(" EN ")
	assert.Equal(t, "hello", en.T("greet"))
	assert.Equal(t, "deep", en.T("nested.key"))
	assert.Equal(t, "только", en.T("only_ru"))
	assert.Equal(t, "missing.key", en.T("missing.key"))
	assert.Empty(t, en.T("  "))

	unknown := m.Translator("de")
	assert.Equal(t, "привет", unknown.T("greet"))
}

func TestLoadFS_Errors(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{"l/a.txt": {Data: []byte("x")}}, "l", "ru")
	assert.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"l/a.yaml": {Data: []byte("en:\n  k: v\n")}}, "l", "ru")
	assert.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"l/a.yaml": {Data: []byte("ru: [")}}, "l", "ru")
	assert.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"l/a.yaml": {Data: []byte("ru:\n  - not a tree\n")}}, "l", "ru")
	assert.Error(t, err)
}
