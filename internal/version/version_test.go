package version

import (
	"strings"
	"testing"
)

func TestGet_PrefersLdflags(t *testing.T) {
	prev := Version
	defer func() { Version = prev }()

	Version = "v9.9.9"
	if got := Get(); got != "v9.9.9" {
		t.Errorf("Get() = %q", got)
	}
	if got := String("thinkt-live"); !strings.HasPrefix(got, "thinkt-live version v9.9.9") {
		t.Errorf("String() = %q", got)
	}
	if info := GetInfo("thinkt-live"); info.Version != "v9.9.9" || info.GoVersion == "" {
		t.Errorf("GetInfo() = %+v", info)
	}
}

func TestShortRevision(t *testing.T) {
	if got := shortRevision("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortRevision = %q", got)
	}
	if got := shortRevision("abc"); got != "abc" {
		t.Errorf("shortRevision = %q", got)
	}
}
