package contentdiff

import "testing"

func TestPostBundleLookups(t *testing.T) {
	bundle := &PostBundle{
		Users: []UserRow{{ID: 5, UserLogin: "alice"}, {ID: 7, UserLogin: "bob"}},
		UserMeta: []UserMetaRow{
			{UmetaID: 1, UserID: 5, MetaKey: "nickname"},
			{UmetaID: 2, UserID: 7, MetaKey: "nickname"},
			{UmetaID: 3, UserID: 5, MetaKey: "description"},
		},
		Comments: []CommentRow{{CommentID: 11}, {CommentID: 12}},
		CommentMeta: []CommentMetaRow{
			{MetaID: 1, CommentID: 11},
			{MetaID: 2, CommentID: 12},
			{MetaID: 3, CommentID: 11},
		},
		TermTaxonomies: []TermTaxonomyRow{{TermTaxonomyID: 21, TermID: 31}},
		Terms:          []TermRow{{TermID: 31, Name: "news"}},
		TermMeta:       []TermMetaRow{{MetaID: 1, TermID: 31}, {MetaID: 2, TermID: 99}},
	}

	if got := bundle.UserByID(7); got == nil || got.UserLogin != "bob" {
		t.Errorf("UserByID(7) = %v, want bob", got)
	}
	if got := bundle.UserByID(99); got != nil {
		t.Errorf("UserByID(99) = %v, want nil", got)
	}
	if got := bundle.UserMetaFor(5); len(got) != 2 {
		t.Errorf("UserMetaFor(5) returned %d rows, want 2", len(got))
	}
	if got := bundle.CommentMetaFor(11); len(got) != 2 {
		t.Errorf("CommentMetaFor(11) returned %d rows, want 2", len(got))
	}
	if got := bundle.TermTaxonomyByID(21); got == nil || got.TermID != 31 {
		t.Errorf("TermTaxonomyByID(21) = %v, want term 31", got)
	}
	if got := bundle.TermByID(31); got == nil || got.Name != "news" {
		t.Errorf("TermByID(31) = %v, want news", got)
	}
	if got := bundle.TermMetaFor(31); len(got) != 1 {
		t.Errorf("TermMetaFor(31) returned %d rows, want 1", len(got))
	}
}
