package contentdiff

import (
	"context"
	"fmt"
)

// FetchPostBundle loads a post and its full relational closure from the
// prefixed table set: the post row, its postmeta, the author user with
// usermeta, comments with commentmeta and their distinct comment users,
// term relationships, and the term taxonomies, terms and termmeta they
// point at.
//
// Dangling references are tolerated where live databases actually have
// them: post_author 0 and authors whose user row is gone leave the
// bundle without that user (the importer keeps author 0 as-is), a
// relationship whose term_taxonomy row is gone is dropped, and a
// taxonomy row whose term is gone is kept without its term. Everything
// else missing is an error.
func (s *Store) FetchPostBundle(ctx context.Context, prefix string, postID int64) (*PostBundle, error) {
	post, err := s.SelectPostRow(ctx, prefix, postID)
	if err != nil {
		return nil, err
	}
	bundle := &PostBundle{Post: post}

	bundle.PostMeta, err = s.SelectPostMetaRows(ctx, prefix, postID)
	if err != nil {
		return nil, err
	}

	if post.PostAuthor != 0 {
		author, err := s.SelectUserRow(ctx, prefix, post.PostAuthor)
		if err != nil {
			return nil, fmt.Errorf("post %d: %w", postID, err)
		}
		if author != nil {
			if err := s.appendUser(ctx, prefix, bundle, *author); err != nil {
				return nil, err
			}
		}
	}

	if post.CommentCount > 0 {
		bundle.Comments, err = s.SelectCommentRows(ctx, prefix, postID)
		if err != nil {
			return nil, err
		}
	}
	for _, comment := range bundle.Comments {
		meta, err := s.SelectCommentMetaRows(ctx, prefix, comment.CommentID)
		if err != nil {
			return nil, err
		}
		bundle.CommentMeta = append(bundle.CommentMeta, meta...)

		// user_id 0 is an anonymous commenter, not a reference.
		if comment.UserID == 0 || bundle.UserByID(comment.UserID) != nil {
			continue
		}
		user, err := s.SelectUserRow(ctx, prefix, comment.UserID)
		if err != nil {
			return nil, fmt.Errorf("comment %d: %w", comment.CommentID, err)
		}
		if user == nil {
			continue
		}
		if err := s.appendUser(ctx, prefix, bundle, *user); err != nil {
			return nil, err
		}
	}

	relationships, err := s.SelectTermRelationshipRows(ctx, prefix, postID)
	if err != nil {
		return nil, err
	}
	for _, rel := range relationships {
		taxonomy, err := s.SelectTermTaxonomyRow(ctx, prefix, rel.TermTaxonomyID)
		if err != nil {
			return nil, err
		}
		if taxonomy == nil {
			continue
		}
		bundle.TermRelationships = append(bundle.TermRelationships, rel)
		bundle.TermTaxonomies = append(bundle.TermTaxonomies, *taxonomy)

		if bundle.TermByID(taxonomy.TermID) != nil {
			continue
		}
		term, err := s.SelectTermRow(ctx, prefix, taxonomy.TermID)
		if err != nil {
			return nil, err
		}
		if term == nil {
			continue
		}
		bundle.Terms = append(bundle.Terms, *term)
		meta, err := s.SelectTermMetaRows(ctx, prefix, term.TermID)
		if err != nil {
			return nil, err
		}
		bundle.TermMeta = append(bundle.TermMeta, meta...)
	}

	return bundle, nil
}

func (s *Store) appendUser(ctx context.Context, prefix string, bundle *PostBundle, user UserRow) error {
	bundle.Users = append(bundle.Users, user)
	meta, err := s.SelectUserMetaRows(ctx, prefix, user.ID)
	if err != nil {
		return err
	}
	bundle.UserMeta = append(bundle.UserMeta, meta...)
	return nil
}
