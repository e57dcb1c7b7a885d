package contentdiff

import (
	"reflect"
	"testing"
)

func TestPendingFeaturedImageUpdates(t *testing.T) {
	thumb := func(metaID, postID int64, value string) PostMetaRow {
		return PostMetaRow{MetaID: metaID, PostID: postID, MetaKey: "_thumbnail_id", MetaValue: value}
	}
	attachmentIDMap := map[int64]int64{60: 900}

	tests := []struct {
		name     string
		metas    []PostMetaRow
		imported map[int64]bool
		updated  map[int64]bool
		want     []pendingThumbnailUpdate
	}{
		{
			name:     "imported post with mapped thumbnail",
			metas:    []PostMetaRow{thumb(1, 101, "60")},
			imported: map[int64]bool{101: true},
			want: []pendingThumbnailUpdate{
				{MetaID: 1, Update: FeaturedImageUpdate{PostID: 101, ThumbnailIDOld: 60, ThumbnailIDNew: 900}},
			},
		},
		{
			name: "pre-existing local post with colliding value is left alone",
			metas: []PostMetaRow{
				thumb(1, 101, "60"),
				thumb(2, 7, "60"),
			},
			imported: map[int64]bool{101: true},
			want: []pendingThumbnailUpdate{
				{MetaID: 1, Update: FeaturedImageUpdate{PostID: 101, ThumbnailIDOld: 60, ThumbnailIDNew: 900}},
			},
		},
		{
			name:     "post already fixed in an earlier run",
			metas:    []PostMetaRow{thumb(1, 101, "60")},
			imported: map[int64]bool{101: true},
			updated:  map[int64]bool{101: true},
			want:     nil,
		},
		{
			name:     "unmapped thumbnail value",
			metas:    []PostMetaRow{thumb(1, 101, "61")},
			imported: map[int64]bool{101: true},
			want:     nil,
		},
		{
			name:     "non-numeric thumbnail value",
			metas:    []PostMetaRow{thumb(1, 101, "sixty")},
			imported: map[int64]bool{101: true},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pendingFeaturedImageUpdates(tt.metas, tt.imported, attachmentIDMap, tt.updated)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("pendingFeaturedImageUpdates() = %v, want %v", got, tt.want)
			}
		})
	}
}
