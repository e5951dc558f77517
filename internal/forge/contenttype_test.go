package forge

import "testing"

func TestContentTypeFor(t *testing.T) {
	cases := []struct {
		ext  string
		want string
	}{
		{".png", "image/png"},
		{"png", "image/png"},
		{".js", "text/javascript"},
		{".svg", "image/svg+xml"},
		{".wasm", "application/wasm"},
		{".xml", "text/xml"},
		{".unknown", DefaultContentType},
		{"", DefaultContentType},
		{".PNG", DefaultContentType},
	}
	for _, tc := range cases {
		if got := ContentTypeFor(tc.ext); got != tc.want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", tc.ext, got, tc.want)
		}
	}
}
