package i10n_test

import (
	"testing"
	"testing/fstest"

	"github.com/nanikabot/nanika/internal/i10n"
	"github.com/nanikabot/nanika/locales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"en-GB/common.toml": {Data: []byte(`
greeting = "hello {name}"
[nested]
deep = "{count} things, {missing} stays"
`)},
		"en-GB/extra/more.toml": {Data: []byte(`only_native = "native"`)},
		"ja/common.toml":        {Data: []byte(`greeting = "こんにちは {name}"`)},
		"ja/notes.txt":          {Data: []byte(`ignored`)},
		"not a locale!/x.toml":  {Data: []byte(`greeting = "x"`)},
		"README.md":             {Data: []byte(`top level files are skipped`)},
	}
}

func load(t *testing.T) *i10n.Translator {
	t.Helper()

	tr, err := i10n.Load(testFS(), "en-GB", zap.NewNop())
	require.NoError(t, err)

	return tr
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tr := load(t)

	assert.Equal(t, language.BritishEnglish, tr.Native())
	assert.Equal(t, []language.Tag{language.BritishEnglish, language.Japanese}, tr.Locales())
	assert.Equal(t, 3, tr.Bundle("en-GB").Len())
	assert.True(t, tr.Bundle("ja").Has("greeting"))
	assert.False(t, tr.Bundle("ja").Has("only_native"))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tr := load(t)

	tests := []struct {
		name   string
		locale string
		id     string
		params i10n.Params
		want   string
	}{
		{name: "native", locale: "en-GB", id: "greeting", params: i10n.Params{"name": "nanika"}, want: "hello nanika"},
		{name: "translated", locale: "ja", id: "greeting", params: i10n.Params{"name": "nanika"}, want: "こんにちは nanika"},
		{name: "falls back to native", locale: "ja", id: "only_native", want: "native"},
		{name: "close match", locale: "en-US", id: "greeting", params: i10n.Params{"name": "x"}, want: "hello x"},
		{name: "unknown locale", locale: "fr", id: "greeting", params: i10n.Params{"name": "x"}, want: "hello x"},
		{name: "empty locale", locale: "", id: "only_native", want: "native"},
		{
			name:   "dotted ids and unknown placeholders",
			locale: "en-GB",
			id:     "nested.deep",
			params: i10n.Params{"count": 3},
			want:   "3 things, {missing} stays",
		},
		{name: "no params", locale: "en-GB", id: "greeting", want: "hello {name}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tr.Lookup(tt.locale, tt.id, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMissingMessage(t *testing.T) {
	t.Parallel()

	tr := load(t)

	_, err := tr.Lookup("ja", "nope", nil)
	require.ErrorIs(t, err, i10n.ErrMissingMessage)

	assert.Equal(t, "nope", tr.T("ja", "nope", nil))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := i10n.Load(testFS(), "de", zap.NewNop())
	require.ErrorIs(t, err, i10n.ErrNoNativeBundle)

	_, err = i10n.Load(testFS(), "???", zap.NewNop())
	require.Error(t, err)

	broken := fstest.MapFS{"en-GB/bad.toml": {Data: []byte(`greeting = `)}}
	_, err = i10n.Load(broken, "en-GB", zap.NewNop())
	require.Error(t, err)
}

func TestShippedLocales(t *testing.T) {
	t.Parallel()

	tr, err := i10n.Load(locales.FS, locales.Native, zap.NewNop())
	require.NoError(t, err)

	native := tr.Bundle(locales.Native)
	for _, tag := range tr.Locales() {
		assert.LessOrEqual(t, tr.Bundle(tag.String()).Len(), native.Len(), "%s has ids the native bundle lacks", tag)
	}

	assert.Equal(t, "listening for 4 custom prefixes now", tr.T("en-GB", "prefixes.added", i10n.Params{"count": 4}))
	assert.Equal(t, "消えた", tr.T("ja", "prefixes.deleted", nil))
	assert.Equal(t, "its gone", tr.T("en-US", "prefixes.deleted", nil))
}
