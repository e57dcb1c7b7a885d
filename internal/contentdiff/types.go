package contentdiff

// Core WP table suffixes the migration touches. Prefixes (local or live)
// are prepended at query time.
var CoreTables = []string{
	"commentmeta",
	"comments",
	"postmeta",
	"posts",
	"terms",
	"termmeta",
	"term_relationships",
	"term_taxonomy",
	"usermeta",
	"users",
}

// PostRow mirrors a wp_posts row. Date columns stay as strings so values
// round-trip between the two table sets byte for byte.
type PostRow struct {
	ID                  int64
	PostAuthor          int64
	PostDate            string
	PostDateGmt         string
	PostContent         string
	PostTitle           string
	PostExcerpt         string
	PostStatus          string
	CommentStatus       string
	PingStatus          string
	PostPassword        string
	PostName            string
	ToPing              string
	Pinged              string
	PostModified        string
	PostModifiedGmt     string
	PostContentFiltered string
	PostParent          int64
	GUID                string
	MenuOrder           int64
	PostType            string
	PostMimeType        string
	CommentCount        int64
}

// PostMetaRow mirrors a wp_postmeta row.
type PostMetaRow struct {
	MetaID    int64
	PostID    int64
	MetaKey   string
	MetaValue string
}

// CommentRow mirrors a wp_comments row.
type CommentRow struct {
	CommentID          int64
	CommentPostID      int64
	CommentAuthor      string
	CommentAuthorEmail string
	CommentAuthorURL   string
	CommentAuthorIP    string
	CommentDate        string
	CommentDateGmt     string
	CommentContent     string
	CommentKarma       int64
	CommentApproved    string
	CommentAgent       string
	CommentType        string
	CommentParent      int64
	UserID             int64
}

// CommentMetaRow mirrors a wp_commentmeta row.
type CommentMetaRow struct {
	MetaID    int64
	CommentID int64
	MetaKey   string
	MetaValue string
}

// UserRow mirrors a wp_users row.
type UserRow struct {
	ID                int64
	UserLogin         string
	UserPass          string
	UserNicename      string
	UserEmail         string
	UserURL           string
	UserRegistered    string
	UserActivationKey string
	UserStatus        int64
	DisplayName       string
}

// UserMetaRow mirrors a wp_usermeta row.
type UserMetaRow struct {
	UmetaID   int64
	UserID    int64
	MetaKey   string
	MetaValue string
}

// TermRow mirrors a wp_terms row.
type TermRow struct {
	TermID    int64
	Name      string
	Slug      string
	TermGroup int64
}

// TermMetaRow mirrors a wp_termmeta row.
type TermMetaRow struct {
	MetaID    int64
	TermID    int64
	MetaKey   string
	MetaValue string
}

// TermTaxonomyRow mirrors a wp_term_taxonomy row.
type TermTaxonomyRow struct {
	TermTaxonomyID int64
	TermID         int64
	Taxonomy       string
	Description    string
	Parent         int64
	Count          int64
}

// TermRelationshipRow mirrors a wp_term_relationships row.
type TermRelationshipRow struct {
	ObjectID       int64
	TermTaxonomyID int64
	TermOrder      int64
}

// PostBundle is the full relational closure of one post, fetched from the
// live tables and consumed by the importer. It lives for exactly one
// post's import and is never persisted.
type PostBundle struct {
	Post              PostRow
	PostMeta          []PostMetaRow
	Comments          []CommentRow
	CommentMeta       []CommentMetaRow
	Users             []UserRow
	UserMeta          []UserMetaRow
	TermRelationships []TermRelationshipRow
	TermTaxonomies    []TermTaxonomyRow
	Terms             []TermRow
	TermMeta          []TermMetaRow
}

// UserByID returns the bundle user with the given source-side ID, or nil.
func (b *PostBundle) UserByID(id int64) *UserRow {
	for i := range b.Users {
		if b.Users[i].ID == id {
			return &b.Users[i]
		}
	}
	return nil
}

// UserMetaFor returns the bundle's usermeta rows belonging to a source-side
// user ID.
func (b *PostBundle) UserMetaFor(userID int64) []UserMetaRow {
	var rows []UserMetaRow
	for _, row := range b.UserMeta {
		if row.UserID == userID {
			rows = append(rows, row)
		}
	}
	return rows
}

// CommentMetaFor returns the bundle's commentmeta rows belonging to a
// source-side comment ID.
func (b *PostBundle) CommentMetaFor(commentID int64) []CommentMetaRow {
	var rows []CommentMetaRow
	for _, row := range b.CommentMeta {
		if row.CommentID == commentID {
			rows = append(rows, row)
		}
	}
	return rows
}

// TermTaxonomyByID returns the bundle term_taxonomy row with the given
// source-side term_taxonomy_id, or nil.
func (b *PostBundle) TermTaxonomyByID(id int64) *TermTaxonomyRow {
	for i := range b.TermTaxonomies {
		if b.TermTaxonomies[i].TermTaxonomyID == id {
			return &b.TermTaxonomies[i]
		}
	}
	return nil
}

// TermByID returns the bundle term with the given source-side term_id,
// or nil.
func (b *PostBundle) TermByID(id int64) *TermRow {
	for i := range b.Terms {
		if b.Terms[i].TermID == id {
			return &b.Terms[i]
		}
	}
	return nil
}

// TermMetaFor returns all bundle termmeta rows belonging to a
// source-side term_id.
func (b *PostBundle) TermMetaFor(termID int64) []TermMetaRow {
	var out []TermMetaRow
	for _, m := range b.TermMeta {
		if m.TermID == termID {
			out = append(out, m)
		}
	}
	return out
}

// PostIdentity is the minimal tuple the diff finder compares across the
// live and local table sets. Dates stay as raw strings; the comparison is
// pure equality and parsing them would only invite timezone drift.
type PostIdentity struct {
	ID       int64
	Name     string
	Title    string
	Status   string
	Date     string
	Modified string
}

// ModifiedID pairs a live post with the local post it matched, where the
// live side has a strictly newer modification stamp.
type ModifiedID struct {
	LiveID  int64 `json:"live_id"`
	LocalID int64 `json:"local_id"`
}

// ImportedPost is one imported-posts ledger record.
type ImportedPost struct {
	PostType string `json:"post_type"`
	IDOld    int64  `json:"id_old"`
	IDNew    int64  `json:"id_new"`
}

// CategoryRow is a joined terms + term_taxonomy view of one category.
// Created categories are written to the ledger as-is, hence the tags.
type CategoryRow struct {
	TermID         int64  `json:"term_id"`
	TermTaxonomyID int64  `json:"term_taxonomy_id"`
	Taxonomy       string `json:"taxonomy"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Description    string `json:"description"`
	Parent         int64  `json:"parent"`
	Count          int64  `json:"count"`
}
