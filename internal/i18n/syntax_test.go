package i18n

import (
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func loadLocale(t *testing.T, name string) map[string]map[string]string {
	t.Helper()
	data, err := localeFS.ReadFile("locales/" + name)
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	var v map[string]map[string]string
	if _, err := toml.Decode(string(data), &v); err != nil {
		t.Fatalf("%s: invalid TOML syntax: %v", name, err)
	}
	return v
}

// TestLocaleSyntax ensures all TOML locale files are syntactically valid.
func TestLocaleSyntax(t *testing.T) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		t.Fatalf("reading locales dir: %v", err)
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".toml") {
			continue
		}
		t.Run(name, func(t *testing.T) {
			for id, forms := range loadLocale(t, name) {
				if forms["other"] == "" {
					t.Errorf("%s: %s has no other form", name, id)
				}
			}
		})
	}
}

// Every translated id must exist in the English catalog.
func TestLocaleKeysMatchEnglish(t *testing.T) {
	en := loadLocale(t, "en.toml")
	for _, lang := range Languages() {
		if lang == "en" {
			continue
		}
		for id := range loadLocale(t, lang+".toml") {
			if _, ok := en[id]; !ok {
				t.Errorf("%s: %s missing from en.toml", lang, id)
			}
		}
	}
}
