package tui

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// attachment is an inline image carried in an event payload.
type attachment struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// payloadAttachments returns the images of a payload, given either as
// "image": {...} or "images": [{...}].
func payloadAttachments(payload json.RawMessage) []attachment {
	var obj struct {
		Image  *attachment  `json:"image"`
		Images []attachment `json:"images"`
	}
	if json.Unmarshal(payload, &obj) != nil {
		return nil
	}
	out := obj.Images
	if obj.Image != nil {
		out = append([]attachment{*obj.Image}, out...)
	}
	return out
}

// attachmentSummary renders one placeholder line per image, for example
// "[image/png 1920x1080 48KB]".
func attachmentSummary(atts []attachment) string {
	lines := make([]string, 0, len(atts))
	for _, a := range atts {
		parts := []string{a.MediaType}
		if a.MediaType == "" {
			parts[0] = "image"
		}
		if dims := decodeImageDimensions(a.Data); dims != "" {
			parts = append(parts, dims)
		}
		parts = append(parts, formatByteSize(base64.StdEncoding.DecodedLen(len(a.Data))))
		lines = append(lines, "["+strings.Join(parts, " ")+"]")
	}
	return strings.Join(lines, "\n")
}

// decodeImageDimensions reads just the image header to extract width x height
// without decoding the full pixel data. Returns "1920x1080" or "" on error.
func decodeImageDimensions(base64Data string) string {
	// 2048 base64 chars cover every supported header.
	sample := base64Data
	if len(sample) > 2048 {
		sample = sample[:2048]
	}
	decoded, err := base64.StdEncoding.DecodeString(sample)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(sample, "="))
		if err != nil {
			return ""
		}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(decoded))
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)
}

// formatByteSize formats a byte count as a human-readable string.
func formatByteSize(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fMB", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.0fKB", float64(n)/1_000)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
