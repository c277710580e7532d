package tui

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/wethinkt/thinkt-live/internal/transcript"
)

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeImageDimensions(t *testing.T) {
	if got := decodeImageDimensions(pngBase64(t, 32, 16)); got != "32x16" {
		t.Errorf("dimensions = %q, want 32x16", got)
	}
	if got := decodeImageDimensions("not base64!"); got != "" {
		t.Errorf("garbage decoded as %q", got)
	}
}

func TestRowBody_ImagePlaceholder(t *testing.T) {
	payload, _ := json.Marshal(map[string]any{
		"text":  "see screenshot",
		"image": map[string]string{"media_type": "image/png", "data": pngBase64(t, 64, 48)},
	})
	body := rowBody(transcript.Event{Kind: transcript.KindUser, Payload: payload})

	lines := strings.Split(body, "\n")
	if len(lines) != 2 || lines[0] != "see screenshot" {
		t.Fatalf("body = %q", body)
	}
	if !strings.HasPrefix(lines[1], "[image/png 64x48 ") || !strings.HasSuffix(lines[1], "B]") {
		t.Errorf("placeholder = %q", lines[1])
	}
}

func TestFormatByteSize(t *testing.T) {
	for n, want := range map[int]string{512: "512B", 48_000: "48KB", 2_500_000: "2.5MB"} {
		if got := formatByteSize(n); got != want {
			t.Errorf("formatByteSize(%d) = %q, want %q", n, got, want)
		}
	}
}
