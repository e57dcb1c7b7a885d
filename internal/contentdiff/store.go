package contentdiff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Store wraps a single *sql.DB serving both the local and the live table
// sets. Every method takes the table prefix to operate on; the same
// physical connection reaches both because the live tables are imported
// side by side into the local database.
type Store struct {
	db          *sql.DB
	localPrefix string
}

// NewStore returns a Store. localPrefix is the destination table prefix,
// typically "wp_".
func NewStore(db *sql.DB, localPrefix string) *Store {
	return &Store{db: db, localPrefix: localPrefix}
}

// LocalPrefix returns the destination table prefix.
func (s *Store) LocalPrefix() string {
	return s.localPrefix
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

const postColumns = "ID, post_author, post_date, post_date_gmt, post_content, post_title, post_excerpt, post_status, comment_status, ping_status, post_password, post_name, to_ping, pinged, post_modified, post_modified_gmt, post_content_filtered, post_parent, guid, menu_order, post_type, post_mime_type, comment_count"

func scanPostRow(sc scanner) (PostRow, error) {
	var p PostRow
	err := sc.Scan(
		&p.ID, &p.PostAuthor, &p.PostDate, &p.PostDateGmt, &p.PostContent,
		&p.PostTitle, &p.PostExcerpt, &p.PostStatus, &p.CommentStatus,
		&p.PingStatus, &p.PostPassword, &p.PostName, &p.ToPing, &p.Pinged,
		&p.PostModified, &p.PostModifiedGmt, &p.PostContentFiltered,
		&p.PostParent, &p.GUID, &p.MenuOrder, &p.PostType, &p.PostMimeType,
		&p.CommentCount,
	)
	return p, err
}

// SelectPostRow fetches one post by ID from the prefixed posts table.
func (s *Store) SelectPostRow(ctx context.Context, prefix string, postID int64) (PostRow, error) {
	q := fmt.Sprintf("SELECT %s FROM %sposts WHERE ID = ?", postColumns, prefix)
	p, err := scanPostRow(s.db.QueryRowContext(ctx, q, postID))
	if err != nil {
		return PostRow{}, fmt.Errorf("selecting post %d from %sposts: %w", postID, prefix, err)
	}
	return p, nil
}

// InsertPost inserts a post into the prefixed posts table, letting the
// table assign a fresh ID, and returns that ID.
func (s *Store) InsertPost(ctx context.Context, prefix string, p PostRow) (int64, error) {
	q := fmt.Sprintf(`INSERT INTO %sposts
		(post_author, post_date, post_date_gmt, post_content, post_title, post_excerpt,
		 post_status, comment_status, ping_status, post_password, post_name, to_ping, pinged,
		 post_modified, post_modified_gmt, post_content_filtered, post_parent, guid,
		 menu_order, post_type, post_mime_type, comment_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, prefix)
	res, err := s.db.ExecContext(ctx, q,
		p.PostAuthor, p.PostDate, p.PostDateGmt, p.PostContent, p.PostTitle, p.PostExcerpt,
		p.PostStatus, p.CommentStatus, p.PingStatus, p.PostPassword, p.PostName, p.ToPing, p.Pinged,
		p.PostModified, p.PostModifiedGmt, p.PostContentFiltered, p.PostParent, p.GUID,
		p.MenuOrder, p.PostType, p.PostMimeType, p.CommentCount,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting post (old ID %d): %w", p.ID, err)
	}
	return lastInsertID(res, "post")
}

// UpdatePostAuthor points a post's author FK at a new user ID. Exactly
// one row must change.
func (s *Store) UpdatePostAuthor(ctx context.Context, prefix string, postID, authorID int64) error {
	q := fmt.Sprintf("UPDATE %sposts SET post_author = ? WHERE ID = ?", prefix)
	res, err := s.db.ExecContext(ctx, q, authorID, postID)
	if err != nil {
		return fmt.Errorf("updating post %d author to %d: %w", postID, authorID, err)
	}
	return exactlyOne(res, fmt.Sprintf("update post %d author to %d", postID, authorID))
}

// UpdatePostParent sets a post's post_parent.
func (s *Store) UpdatePostParent(ctx context.Context, prefix string, postID, parentID int64) error {
	q := fmt.Sprintf("UPDATE %sposts SET post_parent = ? WHERE ID = ?", prefix)
	if _, err := s.db.ExecContext(ctx, q, parentID, postID); err != nil {
		return fmt.Errorf("updating post %d parent to %d: %w", postID, parentID, err)
	}
	return nil
}

// PostParent reads a post's current post_parent.
func (s *Store) PostParent(ctx context.Context, prefix string, postID int64) (int64, error) {
	q := fmt.Sprintf("SELECT post_parent FROM %sposts WHERE ID = ?", prefix)
	var parent int64
	if err := s.db.QueryRowContext(ctx, q, postID).Scan(&parent); err != nil {
		return 0, fmt.Errorf("reading post %d parent: %w", postID, err)
	}
	return parent, nil
}

// PostContentExcerpt is one row of the content/excerpt projection the
// block rewriter works on.
type PostContentExcerpt struct {
	ID      int64
	Content string
	Excerpt string
}

// SelectPostContentExcerpts fetches content and excerpt for a set of
// local post IDs.
func (s *Store) SelectPostContentExcerpts(ctx context.Context, prefix string, ids []int64) ([]PostContentExcerpt, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf("SELECT ID, post_content, post_excerpt FROM %sposts WHERE ID IN (%s)",
		prefix, placeholders(len(ids)))
	rows, err := s.db.QueryContext(ctx, q, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("selecting post contents: %w", err)
	}
	defer rows.Close()

	var out []PostContentExcerpt
	for rows.Next() {
		var r PostContentExcerpt
		if err := rows.Scan(&r.ID, &r.Content, &r.Excerpt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdatePostContentExcerpt persists rewritten content and excerpt.
func (s *Store) UpdatePostContentExcerpt(ctx context.Context, prefix string, id int64, content, excerpt string) error {
	q := fmt.Sprintf("UPDATE %sposts SET post_content = ?, post_excerpt = ? WHERE ID = ?", prefix)
	if _, err := s.db.ExecContext(ctx, q, content, excerpt, id); err != nil {
		return fmt.Errorf("updating post %d content: %w", id, err)
	}
	return nil
}

// PostIdentities fetches the minimal identity tuples the diff finder
// compares, for the given post types and statuses.
func (s *Store) PostIdentities(ctx context.Context, prefix string, postTypes, statuses []string) ([]PostIdentity, error) {
	args := make([]any, 0, len(postTypes)+len(statuses))
	for _, t := range postTypes {
		args = append(args, t)
	}
	for _, st := range statuses {
		args = append(args, st)
	}
	q := fmt.Sprintf(`SELECT ID, post_name, post_title, post_status, post_date, post_modified
		FROM %sposts
		WHERE post_type IN (%s) AND post_status IN (%s)`,
		prefix, placeholders(len(postTypes)), placeholders(len(statuses)))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting post identities from %sposts: %w", prefix, err)
	}
	defer rows.Close()

	var out []PostIdentity
	for rows.Next() {
		var p PostIdentity
		if err := rows.Scan(&p.ID, &p.Name, &p.Title, &p.Status, &p.Date, &p.Modified); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DistinctPostTypes lists the post types present in a prefixed posts table.
func (s *Store) DistinctPostTypes(ctx context.Context, prefix string) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT(post_type) FROM %sposts", prefix)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("selecting distinct post types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// PostIDsInRange lists local post IDs of type post within [from, to],
// publish or draft, ascending.
func (s *Store) PostIDsInRange(ctx context.Context, prefix string, from, to int64) ([]int64, error) {
	q := fmt.Sprintf(`SELECT ID FROM %sposts
		WHERE post_type = 'post' AND post_status IN ('publish', 'draft')
		AND ID >= ? AND ID <= ? ORDER BY ID ASC`, prefix)
	return s.selectIDs(ctx, q, from, to)
}

// AllPostIDs lists every local post ID of type post, publish or draft.
func (s *Store) AllPostIDs(ctx context.Context, prefix string) ([]int64, error) {
	q := fmt.Sprintf(`SELECT ID FROM %sposts
		WHERE post_type = 'post' AND post_status IN ('publish', 'draft')
		ORDER BY ID ASC`, prefix)
	return s.selectIDs(ctx, q)
}

func (s *Store) selectIDs(ctx context.Context, q string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeletePostFully removes a post and its dependent rows (postmeta,
// comments, commentmeta, term relationships). Used before reimporting a
// modified post.
func (s *Store) DeletePostFully(ctx context.Context, prefix string, postID int64) error {
	commentIDs, err := s.selectIDs(ctx,
		fmt.Sprintf("SELECT comment_ID FROM %scomments WHERE comment_post_ID = ?", prefix), postID)
	if err != nil {
		return fmt.Errorf("listing comments of post %d: %w", postID, err)
	}
	if len(commentIDs) > 0 {
		q := fmt.Sprintf("DELETE FROM %scommentmeta WHERE comment_id IN (%s)", prefix, placeholders(len(commentIDs)))
		if _, err := s.db.ExecContext(ctx, q, int64Args(commentIDs)...); err != nil {
			return fmt.Errorf("deleting commentmeta of post %d: %w", postID, err)
		}
	}
	steps := []string{
		fmt.Sprintf("DELETE FROM %scomments WHERE comment_post_ID = ?", prefix),
		fmt.Sprintf("DELETE FROM %sterm_relationships WHERE object_id = ?", prefix),
		fmt.Sprintf("DELETE FROM %spostmeta WHERE post_id = ?", prefix),
		fmt.Sprintf("DELETE FROM %sposts WHERE ID = ?", prefix),
	}
	for _, q := range steps {
		if _, err := s.db.ExecContext(ctx, q, postID); err != nil {
			return fmt.Errorf("deleting post %d: %w", postID, err)
		}
	}
	return nil
}

// PostIDByMetaValue finds a local post carrying the given meta key/value
// pair. Returns (0, false, nil) when no row matches.
func (s *Store) PostIDByMetaValue(ctx context.Context, prefix, metaKey string, metaValue int64) (int64, bool, error) {
	q := fmt.Sprintf("SELECT post_id FROM %spostmeta WHERE meta_key = ? AND meta_value = ? LIMIT 1", prefix)
	var id int64
	err := s.db.QueryRowContext(ctx, q, metaKey, fmt.Sprintf("%d", metaValue)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("searching postmeta %s=%d: %w", metaKey, metaValue, err)
	}
	return id, true, nil
}

// PostIDByComparingWithLive resolves a local post ID for a live post ID by
// joining the two posts tables on the identity tuple.
func (s *Store) PostIDByComparingWithLive(ctx context.Context, livePrefix string, liveID int64) (int64, bool, error) {
	q := fmt.Sprintf(`SELECT wp.ID
		FROM %sposts lwp
		LEFT JOIN %sposts wp
			ON wp.post_name = lwp.post_name
			AND wp.post_title = lwp.post_title
			AND wp.post_status = lwp.post_status
			AND wp.post_date = lwp.post_date
			AND wp.post_type = lwp.post_type
		WHERE lwp.ID = ?`, livePrefix, s.localPrefix)
	var id sql.NullInt64
	err := s.db.QueryRowContext(ctx, q, liveID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("comparing live post %d with local: %w", liveID, err)
	}
	if !id.Valid {
		return 0, false, nil
	}
	return id.Int64, true, nil
}

// SelectPostMetaRows fetches all postmeta for a post.
func (s *Store) SelectPostMetaRows(ctx context.Context, prefix string, postID int64) ([]PostMetaRow, error) {
	q := fmt.Sprintf("SELECT meta_id, post_id, meta_key, meta_value FROM %spostmeta WHERE post_id = ?", prefix)
	rows, err := s.db.QueryContext(ctx, q, postID)
	if err != nil {
		return nil, fmt.Errorf("selecting postmeta of post %d: %w", postID, err)
	}
	defer rows.Close()

	var out []PostMetaRow
	for rows.Next() {
		var m PostMetaRow
		if err := rows.Scan(&m.MetaID, &m.PostID, &m.MetaKey, &m.MetaValue); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertPostMeta inserts a postmeta row under a new post ID.
func (s *Store) InsertPostMeta(ctx context.Context, prefix string, m PostMetaRow, newPostID int64) (int64, error) {
	q := fmt.Sprintf("INSERT INTO %spostmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)", prefix)
	res, err := s.db.ExecContext(ctx, q, newPostID, m.MetaKey, m.MetaValue)
	if err != nil {
		return 0, fmt.Errorf("inserting postmeta %q for post %d: %w", m.MetaKey, newPostID, err)
	}
	return lastInsertID(res, "postmeta")
}

// ThumbnailMetas fetches _thumbnail_id postmeta rows whose values are any
// of the given old attachment IDs.
func (s *Store) ThumbnailMetas(ctx context.Context, prefix string, oldAttachmentIDs []int64) ([]PostMetaRow, error) {
	if len(oldAttachmentIDs) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`SELECT meta_id, post_id, meta_key, meta_value FROM %spostmeta
		WHERE meta_key = '_thumbnail_id' AND meta_value IN (%s)`,
		prefix, placeholders(len(oldAttachmentIDs)))
	rows, err := s.db.QueryContext(ctx, q, int64Args(oldAttachmentIDs)...)
	if err != nil {
		return nil, fmt.Errorf("selecting thumbnail metas: %w", err)
	}
	defer rows.Close()

	var out []PostMetaRow
	for rows.Next() {
		var m PostMetaRow
		if err := rows.Scan(&m.MetaID, &m.PostID, &m.MetaKey, &m.MetaValue); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdatePostMetaValue rewrites a single postmeta value by meta_id.
func (s *Store) UpdatePostMetaValue(ctx context.Context, prefix string, metaID int64, value string) error {
	q := fmt.Sprintf("UPDATE %spostmeta SET meta_value = ? WHERE meta_id = ?", prefix)
	res, err := s.db.ExecContext(ctx, q, value, metaID)
	if err != nil {
		return fmt.Errorf("updating postmeta %d: %w", metaID, err)
	}
	return exactlyOne(res, fmt.Sprintf("update postmeta %d", metaID))
}

// SelectUserRow fetches one user by ID. A missing user returns
// (nil, nil): posts and comments carry dangling author references often
// enough that the caller decides how to handle one.
func (s *Store) SelectUserRow(ctx context.Context, prefix string, userID int64) (*UserRow, error) {
	q := fmt.Sprintf(`SELECT ID, user_login, user_pass, user_nicename, user_email, user_url,
		user_registered, user_activation_key, user_status, display_name
		FROM %susers WHERE ID = ?`, prefix)
	var u UserRow
	err := s.db.QueryRowContext(ctx, q, userID).Scan(
		&u.ID, &u.UserLogin, &u.UserPass, &u.UserNicename, &u.UserEmail, &u.UserURL,
		&u.UserRegistered, &u.UserActivationKey, &u.UserStatus, &u.DisplayName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting user %d from %susers: %w", userID, prefix, err)
	}
	return &u, nil
}

// InsertUser inserts a user, dropping the source-side ID.
func (s *Store) InsertUser(ctx context.Context, prefix string, u UserRow) (int64, error) {
	q := fmt.Sprintf(`INSERT INTO %susers
		(user_login, user_pass, user_nicename, user_email, user_url,
		 user_registered, user_activation_key, user_status, display_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, prefix)
	res, err := s.db.ExecContext(ctx, q,
		u.UserLogin, u.UserPass, u.UserNicename, u.UserEmail, u.UserURL,
		u.UserRegistered, u.UserActivationKey, u.UserStatus, u.DisplayName,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting user %q: %w", u.UserLogin, err)
	}
	return lastInsertID(res, "user")
}

// UserIDByLogin resolves a user by login name, the natural key for
// reusing destination-side users. Returns (0, false, nil) when absent.
func (s *Store) UserIDByLogin(ctx context.Context, prefix, login string) (int64, bool, error) {
	q := fmt.Sprintf("SELECT ID FROM %susers WHERE user_login = ?", prefix)
	var id int64
	err := s.db.QueryRowContext(ctx, q, login).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up user %q: %w", login, err)
	}
	return id, true, nil
}

// SelectUserMetaRows fetches all usermeta for a user.
func (s *Store) SelectUserMetaRows(ctx context.Context, prefix string, userID int64) ([]UserMetaRow, error) {
	q := fmt.Sprintf("SELECT umeta_id, user_id, meta_key, meta_value FROM %susermeta WHERE user_id = ?", prefix)
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("selecting usermeta of user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []UserMetaRow
	for rows.Next() {
		var m UserMetaRow
		if err := rows.Scan(&m.UmetaID, &m.UserID, &m.MetaKey, &m.MetaValue); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertUserMeta inserts a usermeta row under a new user ID.
func (s *Store) InsertUserMeta(ctx context.Context, prefix string, m UserMetaRow, newUserID int64) (int64, error) {
	q := fmt.Sprintf("INSERT INTO %susermeta (user_id, meta_key, meta_value) VALUES (?, ?, ?)", prefix)
	res, err := s.db.ExecContext(ctx, q, newUserID, m.MetaKey, m.MetaValue)
	if err != nil {
		return 0, fmt.Errorf("inserting usermeta %q for user %d: %w", m.MetaKey, newUserID, err)
	}
	return lastInsertID(res, "usermeta")
}

// SelectCommentRows fetches all comments of a post.
func (s *Store) SelectCommentRows(ctx context.Context, prefix string, postID int64) ([]CommentRow, error) {
	q := fmt.Sprintf(`SELECT comment_ID, comment_post_ID, comment_author, comment_author_email,
		comment_author_url, comment_author_IP, comment_date, comment_date_gmt, comment_content,
		comment_karma, comment_approved, comment_agent, comment_type, comment_parent, user_id
		FROM %scomments WHERE comment_post_ID = ?`, prefix)
	rows, err := s.db.QueryContext(ctx, q, postID)
	if err != nil {
		return nil, fmt.Errorf("selecting comments of post %d: %w", postID, err)
	}
	defer rows.Close()

	var out []CommentRow
	for rows.Next() {
		var c CommentRow
		if err := rows.Scan(
			&c.CommentID, &c.CommentPostID, &c.CommentAuthor, &c.CommentAuthorEmail,
			&c.CommentAuthorURL, &c.CommentAuthorIP, &c.CommentDate, &c.CommentDateGmt,
			&c.CommentContent, &c.CommentKarma, &c.CommentApproved, &c.CommentAgent,
			&c.CommentType, &c.CommentParent, &c.UserID,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertComment inserts a comment with its post and user FKs rewritten to
// destination-side IDs.
func (s *Store) InsertComment(ctx context.Context, prefix string, c CommentRow, newPostID, newUserID int64) (int64, error) {
	q := fmt.Sprintf(`INSERT INTO %scomments
		(comment_post_ID, comment_author, comment_author_email, comment_author_url,
		 comment_author_IP, comment_date, comment_date_gmt, comment_content, comment_karma,
		 comment_approved, comment_agent, comment_type, comment_parent, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, prefix)
	res, err := s.db.ExecContext(ctx, q,
		newPostID, c.CommentAuthor, c.CommentAuthorEmail, c.CommentAuthorURL,
		c.CommentAuthorIP, c.CommentDate, c.CommentDateGmt, c.CommentContent, c.CommentKarma,
		c.CommentApproved, c.CommentAgent, c.CommentType, c.CommentParent, newUserID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting comment (old ID %d) for post %d: %w", c.CommentID, newPostID, err)
	}
	return lastInsertID(res, "comment")
}

// SelectCommentMetaRows fetches all commentmeta of a comment.
func (s *Store) SelectCommentMetaRows(ctx context.Context, prefix string, commentID int64) ([]CommentMetaRow, error) {
	q := fmt.Sprintf("SELECT meta_id, comment_id, meta_key, meta_value FROM %scommentmeta WHERE comment_id = ?", prefix)
	rows, err := s.db.QueryContext(ctx, q, commentID)
	if err != nil {
		return nil, fmt.Errorf("selecting commentmeta of comment %d: %w", commentID, err)
	}
	defer rows.Close()

	var out []CommentMetaRow
	for rows.Next() {
		var m CommentMetaRow
		if err := rows.Scan(&m.MetaID, &m.CommentID, &m.MetaKey, &m.MetaValue); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertCommentMeta inserts a commentmeta row under a new comment ID.
func (s *Store) InsertCommentMeta(ctx context.Context, prefix string, m CommentMetaRow, newCommentID int64) (int64, error) {
	q := fmt.Sprintf("INSERT INTO %scommentmeta (comment_id, meta_key, meta_value) VALUES (?, ?, ?)", prefix)
	res, err := s.db.ExecContext(ctx, q, newCommentID, m.MetaKey, m.MetaValue)
	if err != nil {
		return 0, fmt.Errorf("inserting commentmeta %q for comment %d: %w", m.MetaKey, newCommentID, err)
	}
	return lastInsertID(res, "commentmeta")
}

// UpdateCommentParent rewrites a comment's parent FK. Exactly one row
// must change.
func (s *Store) UpdateCommentParent(ctx context.Context, prefix string, commentID, parentID int64) error {
	q := fmt.Sprintf("UPDATE %scomments SET comment_parent = ? WHERE comment_ID = ?", prefix)
	res, err := s.db.ExecContext(ctx, q, parentID, commentID)
	if err != nil {
		return fmt.Errorf("updating comment %d parent to %d: %w", commentID, parentID, err)
	}
	return exactlyOne(res, fmt.Sprintf("update comment %d parent to %d", commentID, parentID))
}

// SelectTermRelationshipRows fetches all term relationships of a post.
func (s *Store) SelectTermRelationshipRows(ctx context.Context, prefix string, postID int64) ([]TermRelationshipRow, error) {
	q := fmt.Sprintf("SELECT object_id, term_taxonomy_id, term_order FROM %sterm_relationships WHERE object_id = ?", prefix)
	rows, err := s.db.QueryContext(ctx, q, postID)
	if err != nil {
		return nil, fmt.Errorf("selecting term relationships of post %d: %w", postID, err)
	}
	defer rows.Close()

	var out []TermRelationshipRow
	for rows.Next() {
		var r TermRelationshipRow
		if err := rows.Scan(&r.ObjectID, &r.TermTaxonomyID, &r.TermOrder); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertTermRelationship links a post to a term taxonomy junction.
func (s *Store) InsertTermRelationship(ctx context.Context, prefix string, objectID, termTaxonomyID int64) error {
	q := fmt.Sprintf("INSERT INTO %sterm_relationships (object_id, term_taxonomy_id) VALUES (?, ?)", prefix)
	res, err := s.db.ExecContext(ctx, q, objectID, termTaxonomyID)
	if err != nil {
		return fmt.Errorf("inserting term relationship (%d, %d): %w", objectID, termTaxonomyID, err)
	}
	return exactlyOne(res, fmt.Sprintf("insert term relationship (%d, %d)", objectID, termTaxonomyID))
}

// SelectTermTaxonomyRow fetches one term_taxonomy row by ID. A missing
// row returns (nil, nil): source databases carry dangling relationship
// references and the fetcher tolerates them.
func (s *Store) SelectTermTaxonomyRow(ctx context.Context, prefix string, termTaxonomyID int64) (*TermTaxonomyRow, error) {
	q := fmt.Sprintf(`SELECT term_taxonomy_id, term_id, taxonomy, description, parent, count
		FROM %sterm_taxonomy WHERE term_taxonomy_id = ?`, prefix)
	var t TermTaxonomyRow
	err := s.db.QueryRowContext(ctx, q, termTaxonomyID).Scan(
		&t.TermTaxonomyID, &t.TermID, &t.Taxonomy, &t.Description, &t.Parent, &t.Count,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting term taxonomy %d: %w", termTaxonomyID, err)
	}
	return &t, nil
}

// SelectTermRow fetches one term by ID, (nil, nil) when missing.
func (s *Store) SelectTermRow(ctx context.Context, prefix string, termID int64) (*TermRow, error) {
	q := fmt.Sprintf("SELECT term_id, name, slug, term_group FROM %sterms WHERE term_id = ?", prefix)
	var t TermRow
	err := s.db.QueryRowContext(ctx, q, termID).Scan(&t.TermID, &t.Name, &t.Slug, &t.TermGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting term %d: %w", termID, err)
	}
	return &t, nil
}

// SelectTermMetaRows fetches all termmeta of a term.
func (s *Store) SelectTermMetaRows(ctx context.Context, prefix string, termID int64) ([]TermMetaRow, error) {
	q := fmt.Sprintf("SELECT meta_id, term_id, meta_key, meta_value FROM %stermmeta WHERE term_id = ?", prefix)
	rows, err := s.db.QueryContext(ctx, q, termID)
	if err != nil {
		return nil, fmt.Errorf("selecting termmeta of term %d: %w", termID, err)
	}
	defer rows.Close()

	var out []TermMetaRow
	for rows.Next() {
		var m TermMetaRow
		if err := rows.Scan(&m.MetaID, &m.TermID, &m.MetaKey, &m.MetaValue); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertTerm inserts a term, dropping the source-side ID.
func (s *Store) InsertTerm(ctx context.Context, prefix string, t TermRow) (int64, error) {
	q := fmt.Sprintf("INSERT INTO %sterms (name, slug, term_group) VALUES (?, ?, ?)", prefix)
	res, err := s.db.ExecContext(ctx, q, t.Name, t.Slug, t.TermGroup)
	if err != nil {
		return 0, fmt.Errorf("inserting term %q: %w", t.Name, err)
	}
	return lastInsertID(res, "term")
}

// InsertTermTaxonomy inserts a term_taxonomy junction under a new term ID.
func (s *Store) InsertTermTaxonomy(ctx context.Context, prefix string, t TermTaxonomyRow, newTermID int64) (int64, error) {
	q := fmt.Sprintf(`INSERT INTO %sterm_taxonomy (term_id, taxonomy, description, parent, count)
		VALUES (?, ?, ?, ?, ?)`, prefix)
	res, err := s.db.ExecContext(ctx, q, newTermID, t.Taxonomy, t.Description, t.Parent, t.Count)
	if err != nil {
		return 0, fmt.Errorf("inserting term taxonomy for term %d: %w", newTermID, err)
	}
	return lastInsertID(res, "term taxonomy")
}

// InsertTermMeta inserts a termmeta row under a new term ID.
func (s *Store) InsertTermMeta(ctx context.Context, prefix string, m TermMetaRow, newTermID int64) (int64, error) {
	q := fmt.Sprintf("INSERT INTO %stermmeta (term_id, meta_key, meta_value) VALUES (?, ?, ?)", prefix)
	res, err := s.db.ExecContext(ctx, q, newTermID, m.MetaKey, m.MetaValue)
	if err != nil {
		return 0, fmt.Errorf("inserting termmeta %q for term %d: %w", m.MetaKey, newTermID, err)
	}
	return lastInsertID(res, "termmeta")
}

// TermTaxonomyByTermAndTaxonomy fetches the junction row for a term in a
// taxonomy, (nil, nil) when absent.
func (s *Store) TermTaxonomyByTermAndTaxonomy(ctx context.Context, prefix string, termID int64, taxonomy string) (*TermTaxonomyRow, error) {
	q := fmt.Sprintf(`SELECT term_taxonomy_id, term_id, taxonomy, description, parent, count
		FROM %sterm_taxonomy WHERE term_id = ? AND taxonomy = ?`, prefix)
	var t TermTaxonomyRow
	err := s.db.QueryRowContext(ctx, q, termID, taxonomy).Scan(
		&t.TermTaxonomyID, &t.TermID, &t.Taxonomy, &t.Description, &t.Parent, &t.Count,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting term taxonomy for term %d/%s: %w", termID, taxonomy, err)
	}
	return &t, nil
}

// TermByNameAndTaxonomy fetches a term by exact name within a taxonomy,
// (nil, nil) when absent.
func (s *Store) TermByNameAndTaxonomy(ctx context.Context, prefix, name, taxonomy string) (*TermRow, error) {
	q := fmt.Sprintf(`SELECT t.term_id, t.name, t.slug, t.term_group
		FROM %sterms t
		JOIN %sterm_taxonomy tt ON t.term_id = tt.term_id
		WHERE t.name = ? AND tt.taxonomy = ?`, prefix, prefix)
	var t TermRow
	err := s.db.QueryRowContext(ctx, q, name, taxonomy).Scan(&t.TermID, &t.Name, &t.Slug, &t.TermGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting term %q in %s: %w", name, taxonomy, err)
	}
	return &t, nil
}

// TermSlugExists reports whether a term with the given slug exists.
func (s *Store) TermSlugExists(ctx context.Context, prefix, slug string) (bool, error) {
	q := fmt.Sprintf("SELECT term_id FROM %sterms WHERE slug = ?", prefix)
	var id int64
	err := s.db.QueryRowContext(ctx, q, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking term slug %q: %w", slug, err)
	}
	return true, nil
}

// AttachmentIDByFilePath resolves a local attachment by its
// _wp_attached_file relative path. Returns (0, false, nil) when absent.
func (s *Store) AttachmentIDByFilePath(ctx context.Context, prefix, relativePath string) (int64, bool, error) {
	q := fmt.Sprintf(`SELECT post_id FROM %spostmeta
		WHERE meta_key = '_wp_attached_file' AND meta_value = ? LIMIT 1`, prefix)
	var id int64
	err := s.db.QueryRowContext(ctx, q, relativePath).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolving attachment for %q: %w", relativePath, err)
	}
	return id, true, nil
}

func lastInsertID(res sql.Result, what string) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted %s ID: %w", what, err)
	}
	return id, nil
}

// exactlyOne enforces the "every write affects exactly one row" contract
// the importer relies on for its error accounting.
func exactlyOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: reading rows affected: %w", what, err)
	}
	if n != 1 {
		return fmt.Errorf("%s: affected %d rows, want 1", what, n)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
