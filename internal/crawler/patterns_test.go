package crawler

import "testing"

func TestPathAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		ignore []string
		follow []string
		want   bool
	}{
		{
			name:   "no patterns allows everything",
			target: "http://site.example/anything",
			want:   true,
		},
		{
			name:   "ignore prefix pattern blocks subtree",
			target: "http://site.example/admin/dashboard",
			ignore: []string{"/admin/*"},
			want:   false,
		},
		{
			name:   "ignore prefix pattern blocks the directory itself",
			target: "http://site.example/admin",
			ignore: []string{"/admin/*"},
			want:   false,
		},
		{
			name:   "ignore extension pattern blocks matching files",
			target: "http://site.example/files/report.pdf",
			ignore: []string{"*.pdf"},
			want:   false,
		},
		{
			name:   "extension pattern matches across directories",
			target: "http://site.example/static/deep/site.css",
			ignore: []string{"*.css"},
			want:   false,
		},
		{
			name:   "non-matching ignore lets the path through",
			target: "http://site.example/docs/guide",
			ignore: []string{"/admin/*", "*.pdf"},
			want:   true,
		},
		{
			name:   "follow patterns restrict to matching paths",
			target: "http://site.example/blog/post",
			follow: []string{"/docs/*"},
			want:   false,
		},
		{
			name:   "follow pattern admits matching paths",
			target: "http://site.example/docs/guide",
			follow: []string{"/docs/*"},
			want:   true,
		},
		{
			name:   "ignore wins over follow",
			target: "http://site.example/docs/secret",
			ignore: []string{"/docs/secret"},
			follow: []string{"/docs/*"},
			want:   false,
		},
		{
			name:   "empty path is treated as root",
			target: "http://site.example",
			follow: []string{"/"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := pathAllowed(tt.target, tt.ignore, tt.follow); got != tt.want {
				t.Errorf("pathAllowed(%q, %v, %v) = %v, want %v",
					tt.target, tt.ignore, tt.follow, got, tt.want)
			}
		})
	}
}
