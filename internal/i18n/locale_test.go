package i18n

import (
	"testing"
	"time"
)

func TestChineseLocale(t *testing.T) {
	Init("zh-Hans")
	defer Init("en")

	tests := []struct {
		id     string
		def    string
		wantZh string
	}{
		{"tui.live.waiting", "Waiting for events...", "等待事件..."},
		{"tui.status.live", "live", "实时"},
		{"tui.sessions.all", "All sessions", "全部会话"},
		{"tui.filter.user", "User", "用户"},
		{"tui.filter.other", "Other", "其他"},
		{"tui.kind.toolResult", "Tool Result", "工具结果"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := T(tt.id, tt.def)
			if got != tt.wantZh {
				t.Errorf("T(%q) = %q, want %q", tt.id, got, tt.wantZh)
			}
		})
	}
}

func TestChinesePlural(t *testing.T) {
	Init("zh-Hans")
	defer Init("en")

	if got := relativeTime(3 * time.Hour); got != "3 小时前" {
		t.Errorf("relativeTime(3h) = %q", got)
	}
	if got := Tf("tui.live.resyncFailed", "resync failed: %s", "timeout"); got != "重新同步失败: timeout" {
		t.Errorf("Tf = %q", got)
	}
}

func TestLocaleSwitch(t *testing.T) {
	Init("en")
	if en := T("tui.filter.user", "User"); en != "User" {
		t.Errorf("English filter.user = %q, want %q", en, "User")
	}

	Init("zh-Hans")
	if zh := T("tui.filter.user", "User"); zh != "用户" {
		t.Errorf("Chinese filter.user = %q, want %q", zh, "用户")
	}

	Init("en")
	if en := T("tui.filter.user", "User"); en != "User" {
		t.Errorf("English filter.user after switch = %q, want %q", en, "User")
	}
}

func TestUntranslatedKeyFallsBack(t *testing.T) {
	Init("zh-Hans")
	defer Init("en")

	got := T("some.untranslated.key", "English fallback")
	if got != "English fallback" {
		t.Errorf("untranslated key = %q, want %q", got, "English fallback")
	}
}
