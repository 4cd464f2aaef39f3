// Package i10n loads translated messages and formats them per locale.
package i10n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

var (
	// ErrMissingMessage is returned when no bundle has a message.
	ErrMissingMessage = errors.New("missing message")
	// ErrNoNativeBundle is returned when the native locale has no bundle.
	ErrNoNativeBundle = errors.New("native locale has no bundle")
)

// placeholder matches {name} in a message.
var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Params are values substituted into a message.
type Params map[string]any

// Bundle holds the messages of one locale.
type Bundle struct {
	Tag      language.Tag
	messages map[string]string
}

// Has reports whether the bundle has message id.
func (b *Bundle) Has(id string) bool {
	_, ok := b.messages[id]
	return ok
}

// Len returns the number of messages.
func (b *Bundle) Len() int {
	return len(b.messages)
}

// Translator looks up messages across locale bundles.
type Translator struct {
	bundles map[language.Tag]*Bundle
	tags    []language.Tag
	matcher language.Matcher
	native  language.Tag
	logger  *zap.Logger
}

// Load reads every <locale>/**/*.toml file of fsys. Message ids are the
// dotted keys of the files. native is the locale every lookup falls back to.
func Load(fsys fs.FS, native string, logger *zap.Logger) (*Translator, error) {
	nativeTag, err := language.Parse(native)
	if err != nil {
		return nil, fmt.Errorf("invalid native locale %q: %w", native, err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read locale directory: %w", err)
	}

	t := &Translator{
		bundles: make(map[language.Tag]*Bundle),
		native:  nativeTag,
		logger:  logger.Named("i10n"),
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		tag, err := language.Parse(entry.Name())
		if err != nil {
			t.logger.Warn("Skipping directory that is not a locale",
				zap.String("directory", entry.Name()),
				zap.Error(err))
			continue
		}

		bundle, err := loadBundle(fsys, entry.Name(), tag)
		if err != nil {
			return nil, err
		}

		t.bundles[tag] = bundle
	}

	if _, ok := t.bundles[nativeTag]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoNativeBundle, nativeTag)
	}

	others := make([]language.Tag, 0, len(t.bundles)-1)
	for tag := range t.bundles {
		if tag != nativeTag {
			others = append(others, tag)
		}
	}
	slices.SortFunc(others, func(a, b language.Tag) int {
		return strings.Compare(a.String(), b.String())
	})

	// the first tag given to the matcher is its fallback
	t.tags = append([]language.Tag{nativeTag}, others...)
	t.matcher = language.NewMatcher(t.tags)

	t.logger.Debug("Loaded locales", zap.Int("locales", len(t.bundles)))

	return t, nil
}

func loadBundle(fsys fs.FS, dir string, tag language.Tag) (*Bundle, error) {
	k := koanf.New(".")

	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".toml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}

		if err := k.Load(bytesProvider(data), toml.Parser()); err != nil {
			return fmt.Errorf("error loading %s: %w", p, err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s bundle: %w", tag, err)
	}

	bundle := &Bundle{Tag: tag, messages: make(map[string]string)}
	for _, key := range k.Keys() {
		bundle.messages[key] = k.String(key)
	}

	return bundle, nil
}

// Native returns the fallback locale.
func (t *Translator) Native() language.Tag {
	return t.native
}

// Locales returns the loaded locales, native first.
func (t *Translator) Locales() []language.Tag {
	return append([]language.Tag(nil), t.tags...)
}

// Bundle returns the bundle best matching locale.
func (t *Translator) Bundle(locale string) *Bundle {
	return t.bundles[t.match(locale)]
}

func (t *Translator) match(locale string) language.Tag {
	if locale == "" {
		return t.native
	}

	_, index, confidence := t.matcher.Match(language.Make(locale))
	if confidence == language.No {
		return t.native
	}

	return t.tags[index]
}

// Lookup formats message id in the locale best matching locale, falling back
// to the native locale.
func (t *Translator) Lookup(locale, id string, params Params) (string, error) {
	for _, tag := range []language.Tag{t.match(locale), t.native} {
		if message, ok := t.bundles[tag].messages[id]; ok {
			return format(message, params), nil
		}
	}

	return "", fmt.Errorf("%w: %q in %s", ErrMissingMessage, id, locale)
}

// T is Lookup returning id itself for a missing message.
func (t *Translator) T(locale, id string, params Params) string {
	message, err := t.Lookup(locale, id, params)
	if err != nil {
		t.logger.Warn("Missing translation", zap.String("locale", locale), zap.String("id", id))
		return id
	}

	return message
}

// format replaces {name} with params[name]. Unknown names are left as is.
func format(message string, params Params) string {
	if len(params) == 0 || !strings.Contains(message, "{") {
		return message
	}

	return placeholder.ReplaceAllStringFunc(message, func(m string) string {
		value, ok := params[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return fmt.Sprint(value)
	})
}

// bytesProvider is a koanf.Provider over an in-memory file.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) {
	return b, nil
}

func (b bytesProvider) Read() (map[string]any, error) {
	return nil, errors.ErrUnsupported
}
