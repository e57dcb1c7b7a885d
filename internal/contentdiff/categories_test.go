package contentdiff

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple name",
			input: "News",
			want:  "news",
		},
		{
			name:  "multi word",
			input: "Local News & Events",
			want:  "local-news-events",
		},
		{
			name:  "surrounding whitespace",
			input: "  Opinion  ",
			want:  "opinion",
		},
		{
			name:  "punctuation dropped",
			input: "What's On?",
			want:  "whats-on",
		},
		{
			name:  "already a slug",
			input: "arts-culture",
			want:  "arts-culture",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.input)
			if got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
