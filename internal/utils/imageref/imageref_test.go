package imageref

import (
	"errors"
	"testing"
)

func TestIsImageRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want bool
	}{
		{"data uri", "data:image/png;base64,iVBORw0KGgo=", true},
		{"inline svg", "<svg xmlns=\"http://www.w3.org/2000/svg\"></svg>", true},
		{"inline svg with leading space", "  <svg></svg>", true},
		{"https png", "https://cdn.example.com/images/out.png", true},
		{"http svg with query", "http://x/img.svg?width=512", true},
		{"webp", "https://cdn.example.com/out.webp", true},
		{"html page", "https://example.com/gallery", false},
		{"non-image extension", "https://example.com/result.json", false},
		{"plain text", "a red fox logo", false},
		{"data uri non-image", "data:text/plain;base64,aGVsbG8=", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsImageRef(tt.ref); got != tt.want {
				t.Errorf("IsImageRef(%q) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestExtractBuriedDataURI(t *testing.T) {
	dataURI := "data:image/png;base64,iVBORw0KGgo="

	// A single valid data URI buried three levels deep among noise strings.
	output := map[string]any{
		"status": "ok",
		"result": map[string]any{
			"meta": "not an image",
			"artifacts": []any{
				map[string]any{
					"note":  "some log line",
					"image": dataURI,
				},
			},
		},
	}

	got, err := Extract(output)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != dataURI {
		t.Errorf("Extract() = %q, want %q", got, dataURI)
	}
}

func TestExtractShapes(t *testing.T) {
	tests := []struct {
		name   string
		output any
		want   string
	}{
		{"bare string", "http://x/img.png", "http://x/img.png"},
		{"array first element", []any{"http://x/img.svg", "http://x/other.svg"}, "http://x/img.svg"},
		{"openai shape", map[string]any{"data": []any{map[string]any{"url": "http://x/img.png"}}}, "http://x/img.png"},
		{"raw svg text", "<svg viewBox=\"0 0 24 24\"/>", "<svg viewBox=\"0 0 24 24\"/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.output)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractNoImage(t *testing.T) {
	outputs := []any{
		nil,
		"just text",
		map[string]any{"status": "succeeded", "logs": []any{"step 1", "step 2"}},
		[]any{42, true},
	}

	for _, output := range outputs {
		if _, err := Extract(output); !errors.Is(err, ErrNoImage) {
			t.Errorf("Extract(%v) error = %v, want ErrNoImage", output, err)
		}
	}
}
