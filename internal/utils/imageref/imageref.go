// Package imageref extracts a displayable image reference from arbitrary
// provider output. Providers return images as bare strings, arrays, or
// objects nested to unpredictable depth; this package walks the decoded
// value depth-first and returns the first string that looks like an image.
package imageref

import (
	"errors"
	"net/url"
	"path"
	"sort"
	"strings"
)

// ErrNoImage is returned when no node of the value is a usable image
// reference.
var ErrNoImage = errors.New("no image reference found in provider output")

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".bmp":  true,
}

// IsImageRef reports whether s is a data-URI image, an HTTP(S) URL with a
// known image extension, or inline SVG text.
func IsImageRef(s string) bool {
	if strings.HasPrefix(s, "data:image/") {
		return true
	}

	if strings.HasPrefix(strings.TrimSpace(s), "<svg") {
		return true
	}

	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		u, err := url.Parse(s)
		if err != nil {
			return false
		}
		return imageExtensions[strings.ToLower(path.Ext(u.Path))]
	}

	return false
}

// Extract walks v depth-first and returns the first string node for which
// IsImageRef holds. Map keys are visited in sorted order so extraction is
// deterministic regardless of Go's map iteration order.
func Extract(v any) (string, error) {
	if ref, ok := search(v); ok {
		return ref, nil
	}

	return "", ErrNoImage
}

func search(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		if IsImageRef(val) {
			return val, true
		}
	case []any:
		for _, item := range val {
			if ref, ok := search(item); ok {
				return ref, true
			}
		}
	case map[string]any:
		for _, key := range sortedKeys(val) {
			if ref, ok := search(val[key]); ok {
				return ref, true
			}
		}
	}

	return "", false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}
