package contentdiff

import (
	"testing"
)

func TestRewriteBlockSingleIDs(t *testing.T) {
	idMap := map[int64]int64{123: 456}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "mapped id inside block header",
			content: `<!-- wp:image {"id":123,"sizeSlug":"large"} --><figure></figure><!-- /wp:image -->`,
			want:    `<!-- wp:image {"id":456,"sizeSlug":"large"} --><figure></figure><!-- /wp:image -->`,
		},
		{
			name:    "unrelated numeral outside header untouched",
			content: `<!-- wp:image {"id":123} --><p>chapter 123 of 123</p><!-- /wp:image -->`,
			want:    `<!-- wp:image {"id":456} --><p>chapter 123 of 123</p><!-- /wp:image -->`,
		},
		{
			name:    "unmapped id untouched",
			content: `<!-- wp:image {"id":999} -->`,
			want:    `<!-- wp:image {"id":999} -->`,
		},
		{
			name:    "longer id not matched by prefix",
			content: `<!-- wp:image {"id":1234} -->`,
			want:    `<!-- wp:image {"id":1234} -->`,
		},
		{
			name:    "id attribute outside any header untouched",
			content: `<p>"id":123</p>`,
			want:    `<p>"id":123</p>`,
		},
		{
			name:    "namespaced block",
			content: `<!-- wp:jetpack/slideshow {"id":123} -->`,
			want:    `<!-- wp:jetpack/slideshow {"id":456} -->`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewriteBlockSingleIDs(tt.content, idMap)
			if got != tt.want {
				t.Errorf("RewriteBlockSingleIDs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteBlockCSVIDs(t *testing.T) {
	tests := []struct {
		name    string
		content string
		idMap   map[int64]int64
		want    string
	}{
		{
			name:    "partial rewrite of list",
			content: `<!-- wp:gallery {"ids":[10,20,30]} -->`,
			idMap:   map[int64]int64{10: 11, 30: 31},
			want:    `<!-- wp:gallery {"ids":[11,20,31]} -->`,
		},
		{
			name:    "single element list",
			content: `"ids":[10]`,
			idMap:   map[int64]int64{10: 11},
			want:    `"ids":[11]`,
		},
		{
			name:    "no mapped ids",
			content: `"ids":[1,2,3]`,
			idMap:   map[int64]int64{10: 11},
			want:    `"ids":[1,2,3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewriteBlockCSVIDs(tt.content, tt.idMap)
			if got != tt.want {
				t.Errorf("RewriteBlockCSVIDs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteImageClassIDs(t *testing.T) {
	idMap := map[int64]int64{123: 456}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "mapped class marker",
			content: `<img class="alignnone wp-image-123 size-large" src="a.jpg"/>`,
			want:    `<img class="alignnone wp-image-456 size-large" src="a.jpg"/>`,
		},
		{
			name:    "longer id untouched",
			content: `<img class="wp-image-1230"/>`,
			want:    `<img class="wp-image-1230"/>`,
		},
		{
			name:    "unmapped id untouched",
			content: `<img class="wp-image-7"/>`,
			want:    `<img class="wp-image-7"/>`,
		},
		{
			name:    "marker outside an img tag untouched",
			content: `<p>the wp-image-123 class</p><div class="wp-image-123"></div>`,
			want:    `<p>the wp-image-123 class</p><div class="wp-image-123"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewriteImageClassIDs(tt.content, idMap)
			if got != tt.want {
				t.Errorf("RewriteImageClassIDs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteImageDataIDs(t *testing.T) {
	idMap := map[int64]int64{123: 456}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "mapped data-id on img tag",
			content: `<img data-id="123" data-link="/x-123/"/>`,
			want:    `<img data-id="456" data-link="/x-123/"/>`,
		},
		{
			name:    "data-id on another element untouched",
			content: `<div data-id="123"><img src="a.jpg"/></div>`,
			want:    `<div data-id="123"><img src="a.jpg"/></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewriteImageDataIDs(tt.content, idMap)
			if got != tt.want {
				t.Errorf("RewriteImageDataIDs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteAttachmentIDs(t *testing.T) {
	idMap := map[int64]int64{10: 11, 30: 31, 123: 456}

	content := `<!-- wp:gallery {"ids":[10,20,30]} -->` +
		`<!-- wp:image {"id":123} -->` +
		`<img class="wp-image-123" data-id="123"/>` +
		`<p>see page 123</p>` +
		`<!-- /wp:image --><!-- /wp:gallery -->`
	want := `<!-- wp:gallery {"ids":[11,20,31]} -->` +
		`<!-- wp:image {"id":456} -->` +
		`<img class="wp-image-456" data-id="456"/>` +
		`<p>see page 123</p>` +
		`<!-- /wp:image --><!-- /wp:gallery -->`

	got := RewriteAttachmentIDs(content, idMap)
	if got != want {
		t.Errorf("RewriteAttachmentIDs() = %q, want %q", got, want)
	}
}
