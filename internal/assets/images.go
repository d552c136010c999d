// Package assets converts image payloads between the binary form stored in
// Postgres and the base64 data URLs the frontend consumes.
package assets

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeBase64Image accepts either a raw base64 string or a full
// "data:image/...;base64," data URL and returns the image bytes.
func DecodeBase64Image(s string) ([]byte, error) {
	if idx := strings.Index(s, ";base64,"); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return data, nil
}

// DataURL renders bytes as a data URL for inline display.
func DataURL(data []byte, mimeType string) string {
	if len(data) == 0 {
		return ""
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
