package i18n

import (
	"slices"
	"testing"
)

func TestT_ReturnsDefaultMessage(t *testing.T) {
	Init("en")
	got := T("tui.live.waiting", "Waiting for events...")
	if got != "Waiting for events..." {
		t.Errorf("T() = %q, want %q", got, "Waiting for events...")
	}
}

func TestTn_Pluralization(t *testing.T) {
	Init("en")

	one := Tn("test.sessions", "{{.Count}} session", "{{.Count}} sessions", 1)
	if one != "1 session" {
		t.Errorf("Tn(1) = %q, want %q", one, "1 session")
	}

	many := Tn("test.sessions", "{{.Count}} session", "{{.Count}} sessions", 5)
	if many != "5 sessions" {
		t.Errorf("Tn(5) = %q, want %q", many, "5 sessions")
	}
}

func TestInit_FallbackToEnglish(t *testing.T) {
	Init("xx-nonexistent")
	got := T("tui.live.waiting", "Waiting for events...")
	if got != "Waiting for events..." {
		t.Errorf("expected English fallback, got %q", got)
	}
}

func TestResolveLocale(t *testing.T) {
	t.Setenv(EnvLang, "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LANG", "zh_CN.UTF-8")

	if got := ResolveLocale("de"); got != "de" {
		t.Errorf("config language ignored: %q", got)
	}
	if got := ResolveLocale(""); got != "zh-CN" {
		t.Errorf("LANG not normalized: %q", got)
	}
	t.Setenv(EnvLang, "zh-Hans")
	if got := ResolveLocale("de"); got != "zh-Hans" {
		t.Errorf("env override ignored: %q", got)
	}
	t.Setenv(EnvLang, "")
	t.Setenv("LANG", "C")
	if got := ResolveLocale(""); got != "en" {
		t.Errorf("C locale = %q, want en", got)
	}
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	for _, want := range []string{"en", "zh-Hans"} {
		if !slices.Contains(langs, want) {
			t.Errorf("Languages() = %v, missing %s", langs, want)
		}
	}
}
