package docloader

import (
	"testing"

	"github.com/local/hackeval/internal/filetype"
)

func TestIsLocalPath(t *testing.T) {
	cases := map[string]bool{
		"/tmp/decks/rocket.pdf":        true,
		"file:///tmp/decks/rocket.pdf": true,
		"s3://hackeval-decks/a.pdf":    false,
		"http://example.com/a.pdf":     false,
		"https://example.com/a.pdf":    false,
	}
	for ref, want := range cases {
		if got := isLocalPath(ref); got != want {
			t.Errorf("isLocalPath(%q) = %v, want %v", ref, got, want)
		}
	}
}

func TestDetectedDeckExtension(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{"application/pdf", ".pdf"},
		{"application/vnd.openxmlformats-officedocument.presentationml.presentation", ".pptx"},
		{"application/vnd.ms-powerpoint", ".ppt"},
		{"application/zip", ""},
		{"text/plain", ""},
	}
	for _, tc := range cases {
		info := &filetype.FileTypeInfo{MIMEType: tc.mime}
		if got := detectedDeckExtension(info); got != tc.want {
			t.Errorf("detectedDeckExtension(%q) = %q, want %q", tc.mime, got, tc.want)
		}
	}
}
