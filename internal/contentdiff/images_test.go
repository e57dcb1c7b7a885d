package contentdiff

import "testing"

func TestUploadsRelativePath(t *testing.T) {
	aliases := []string{"example.com", "www.example.com"}

	tests := []struct {
		name   string
		rawURL string
		want   string
		wantOK bool
	}{
		{
			name:   "local host",
			rawURL: "https://example.com/wp-content/uploads/2024/03/photo.jpg",
			want:   "2024/03/photo.jpg",
			wantOK: true,
		},
		{
			name:   "alias host case insensitive",
			rawURL: "https://WWW.Example.com/wp-content/uploads/2024/03/photo.jpg",
			want:   "2024/03/photo.jpg",
			wantOK: true,
		},
		{
			name:   "size suffix stripped",
			rawURL: "https://example.com/wp-content/uploads/2024/03/photo-300x200.jpg",
			want:   "2024/03/photo.jpg",
			wantOK: true,
		},
		{
			name:   "relative url is local",
			rawURL: "/wp-content/uploads/2024/03/photo.jpg",
			want:   "2024/03/photo.jpg",
			wantOK: true,
		},
		{
			name:   "foreign host rejected",
			rawURL: "https://cdn.elsewhere.net/wp-content/uploads/2024/03/photo.jpg",
			wantOK: false,
		},
		{
			name:   "not an uploads path",
			rawURL: "https://example.com/wp-content/themes/x/logo.png",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := UploadsRelativePath(tt.rawURL, aliases)
			if ok != tt.wantOK {
				t.Fatalf("UploadsRelativePath() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("UploadsRelativePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFixImageTag(t *testing.T) {
	aliases := []string{"example.com"}
	resolve := func(rel string) (int64, bool, error) {
		if rel == "2024/03/photo.jpg" {
			return 456, true, nil
		}
		return 0, false, nil
	}

	tests := []struct {
		name string
		tag  string
		want string
	}{
		{
			name: "wrong id corrected",
			tag:  `<img class="wp-image-123" data-id="123" src="https://example.com/wp-content/uploads/2024/03/photo.jpg">`,
			want: `<img class="wp-image-456" data-id="456" src="https://example.com/wp-content/uploads/2024/03/photo.jpg">`,
		},
		{
			name: "correct id untouched",
			tag:  `<img class="wp-image-456" src="https://example.com/wp-content/uploads/2024/03/photo.jpg">`,
			want: `<img class="wp-image-456" src="https://example.com/wp-content/uploads/2024/03/photo.jpg">`,
		},
		{
			name: "foreign host untouched",
			tag:  `<img class="wp-image-123" src="https://cdn.elsewhere.net/wp-content/uploads/2024/03/photo.jpg">`,
			want: `<img class="wp-image-123" src="https://cdn.elsewhere.net/wp-content/uploads/2024/03/photo.jpg">`,
		},
		{
			name: "unresolvable src untouched",
			tag:  `<img class="wp-image-123" src="https://example.com/wp-content/uploads/2024/03/missing.jpg">`,
			want: `<img class="wp-image-123" src="https://example.com/wp-content/uploads/2024/03/missing.jpg">`,
		},
		{
			name: "no class marker untouched",
			tag:  `<img src="https://example.com/wp-content/uploads/2024/03/photo.jpg">`,
			want: `<img src="https://example.com/wp-content/uploads/2024/03/photo.jpg">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FixImageTag(tt.tag, aliases, resolve)
			if err != nil {
				t.Fatalf("FixImageTag() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FixImageTag() = %q, want %q", got, tt.want)
			}
		})
	}
}
