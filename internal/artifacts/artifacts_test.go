package artifacts

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestKindFromContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		expected    string
	}{
		{"png image", "image/png", KindImage},
		{"jpeg image", "image/jpeg", KindImage},
		{"mp4 video", "video/mp4", KindVideo},
		{"webm video", "video/webm", KindVideo},
		{"unknown defaults to image", "application/octet-stream", KindImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if kind := kindFromContentType(tt.contentType); kind != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, kind)
			}
		})
	}
}

func TestSupportedContentType(t *testing.T) {
	tests := []struct {
		contentType string
		supported   bool
	}{
		{"image/png", true},
		{"image/webp", true},
		{"video/mp4", true},
		{"application/pdf", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := supportedContentType(tt.contentType); got != tt.supported {
				t.Errorf("supportedContentType(%q) = %v, expected %v", tt.contentType, got, tt.supported)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name", "clip.mp4", "clip.mp4"},
		{"strips directories", "../../etc/passwd", "passwd"},
		{"empty becomes artifact", "", "artifact"},
		{"dot becomes artifact", ".", "artifact"},
		{"escapes spaces", "my clip.mp4", "my%20clip.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestBuildStorageKey(t *testing.T) {
	id := uuid.New()
	key := buildStorageKey(id, "frame.png")

	if !strings.HasPrefix(key, "artifacts/") {
		t.Errorf("expected artifacts/ prefix, got %q", key)
	}
	if !strings.HasSuffix(key, "/frame.png") {
		t.Errorf("expected filename suffix, got %q", key)
	}
	if !strings.Contains(key, id.String()) {
		t.Errorf("expected key to contain artifact id, got %q", key)
	}
}

func TestDetectContentType(t *testing.T) {
	pngHeader := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	tests := []struct {
		name     string
		header   string
		data     []byte
		expected string
	}{
		{"explicit header wins", "image/webp", pngHeader, "image/webp"},
		{"sniffs when header empty", "", pngHeader, "image/png"},
		{"sniffs past octet-stream", "application/octet-stream", pngHeader, "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectContentType(tt.header, tt.data); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
