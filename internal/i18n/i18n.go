// Package i18n serves the user-facing texts from an embedded YAML catalog.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

const defaultLanguage = "ru"

// Translator resolves dot-separated keys such as "add.prompt".
type Translator interface {
	T(key string) string
	// Tf resolves key and formats it with args.
	Tf(key string, args ...any) string
}

// Manager holds the flattened catalog of every language.
type Manager struct {
	translations map[string]map[string]string
	defaultLang  string
}

// Load reads the catalog bundled into the binary.
func Load(defaultLang string) (*Manager, error) {
	return LoadFS(locales, "locales", defaultLang)
}

// LoadFS reads every .yaml and .yml file under root. Each file maps language codes to a
// tree of texts; files are merged and later keys win.
func LoadFS(fsys fs.FS, root, defaultLang string) (*Manager, error) {
	if defaultLang == "" {
		defaultLang = defaultLanguage
	}

	files, err := fs.Glob(fsys, path.Join(root, "*.y*ml"))
	if err != nil {
		return nil, fmt.Errorf("i18n: list %s: %w", root, err)
	}

	translations := make(map[string]map[string]string)
	for _, name := range files {
		if ext := path.Ext(name); ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := loadFile(fsys, name, translations); err != nil {
			return nil, err
		}
	}

	if _, ok := translations[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: no %q texts under %s", defaultLang, root)
	}
	return &Manager{translations: translations, defaultLang: defaultLang}, nil
}

func loadFile(fsys fs.FS, name string, into map[string]map[string]string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("i18n: read %s: %w", name, err)
	}

	var tree map[string]map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", name, err)
	}

	for lang, texts := range tree {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if into[lang] == nil {
			into[lang] = make(map[string]string)
		}
		flatten("", texts, into[lang])
	}
	return nil
}

func flatten(prefix string, tree map[string]any, out map[string]string) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		switch v := value.(type) {
		case string:
			out[key] = v
		case map[string]any:
			flatten(key, v, out)
		}
	}
}

// Translator returns texts of lang, falling back to the default language per key.
func (m *Manager) Translator(lang string) Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := m.translations[lang]; !ok {
		lang = m.defaultLang
	}
	return translator{primary: m.translations[lang], fallback: m.translations[m.defaultLang]}
}

type translator struct {
	primary  map[string]string
	fallback map[string]string
}

// T returns the key itself when no language knows it.
func (t translator) T(key string) string {
	if key = strings.TrimSpace(key); key == "" {
		return ""
	}
	if v, ok := t.primary[key]; ok {
		return v
	}
	if v, ok := t.fallback[key]; ok {
		return v
	}
	return key
}

func (t translator) Tf(key string, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}
