package contentdiff

import (
	"context"
	"testing"
)

func TestImportAuthorKeepsZeroSentinel(t *testing.T) {
	// Author 0 means "no author"; the bare insert already wrote it, so
	// the import must neither touch the database nor report an error.
	s := NewStore(nil, "wp_")
	bundle := &PostBundle{Post: PostRow{ID: 5, PostAuthor: 0}}

	if errs := s.importAuthor(context.Background(), bundle, 101); len(errs) != 0 {
		t.Errorf("importAuthor() errors = %v, want none", errs)
	}
}
