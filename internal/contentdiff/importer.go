package contentdiff

import (
	"context"
	"fmt"
)

// LiveIDMetaKey is the postmeta key stamped on every imported post with
// the source-side ID it came from. Later runs use it to resolve parents
// imported in earlier runs.
const LiveIDMetaKey = "contentdiff_live_id"

// ImportPost inserts the bundle's post row to obtain a fresh local ID,
// then imports the rest of the bundle under it. The bare row goes in
// first so every later step has a valid FK target even when some of
// them fail.
func (s *Store) ImportPost(ctx context.Context, bundle *PostBundle, categoryTermMap map[int64]int64) (int64, []error) {
	newPostID, err := s.InsertPost(ctx, s.localPrefix, bundle.Post)
	if err != nil {
		return 0, []error{err}
	}
	return newPostID, s.ImportPostData(ctx, bundle, newPostID, categoryTermMap)
}

// ImportPostData imports everything in a bundle except the post row
// itself, which the caller inserts first to obtain newPostID. Every
// foreign key is rewritten from source-side to destination-side IDs.
// categoryTermMap is the live-to-local term_id mapping produced by
// RecreateCategories; category relationships resolve through it so the
// recreated hierarchy is preserved. A nil map falls back to matching
// categories by name like any other taxonomy.
//
// Errors do not stop the import: each failed step is recorded and the
// remaining steps run, so one broken meta row does not lose a post's
// comments or terms. The returned slice is empty on full success.
func (s *Store) ImportPostData(ctx context.Context, bundle *PostBundle, newPostID int64, categoryTermMap map[int64]int64) []error {
	var errs []error

	for _, meta := range bundle.PostMeta {
		if _, err := s.InsertPostMeta(ctx, s.localPrefix, meta, newPostID); err != nil {
			errs = append(errs, err)
		}
	}

	errs = append(errs, s.importAuthor(ctx, bundle, newPostID)...)
	errs = append(errs, s.importComments(ctx, bundle, newPostID)...)
	errs = append(errs, s.importTerms(ctx, bundle, newPostID, categoryTermMap)...)

	return errs
}

// importAuthor resolves the post author against local users by login,
// inserting the user when absent, then repoints post_author. Author 0
// is a plain authorless post and carries over as-is. A failed
// resolution leaves the author at 0 rather than at a dangling source ID.
func (s *Store) importAuthor(ctx context.Context, bundle *PostBundle, newPostID int64) []error {
	oldAuthorID := bundle.Post.PostAuthor
	if oldAuthorID == 0 {
		return nil
	}

	var errs []error
	newAuthorID, userErrs := s.resolveUser(ctx, bundle, oldAuthorID)
	errs = append(errs, userErrs...)

	if newAuthorID != oldAuthorID {
		if err := s.UpdatePostAuthor(ctx, s.localPrefix, newPostID, newAuthorID); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// resolveUser maps a source-side user ID to a destination-side one,
// keyed on user_login. Unresolvable users map to 0.
func (s *Store) resolveUser(ctx context.Context, bundle *PostBundle, oldUserID int64) (int64, []error) {
	user := bundle.UserByID(oldUserID)
	if user == nil {
		return 0, []error{fmt.Errorf("user %d not found in source data", oldUserID)}
	}

	localID, ok, err := s.UserIDByLogin(ctx, s.localPrefix, user.UserLogin)
	if err != nil {
		return 0, []error{err}
	}
	if ok {
		return localID, nil
	}

	newUserID, err := s.InsertUser(ctx, s.localPrefix, *user)
	if err != nil {
		return 0, []error{err}
	}
	var errs []error
	for _, meta := range bundle.UserMetaFor(oldUserID) {
		if _, err := s.InsertUserMeta(ctx, s.localPrefix, meta, newUserID); err != nil {
			errs = append(errs, err)
		}
	}
	return newUserID, errs
}

// importComments inserts a post's comments with rewritten post and user
// FKs, carries their commentmeta over, then rewires comment_parent in a
// second pass once every new comment ID is known.
func (s *Store) importComments(ctx context.Context, bundle *PostBundle, newPostID int64) []error {
	var errs []error

	commentIDMap := make(map[int64]int64, len(bundle.Comments))
	for _, comment := range bundle.Comments {
		var newUserID int64
		if comment.UserID != 0 {
			var userErrs []error
			newUserID, userErrs = s.resolveUser(ctx, bundle, comment.UserID)
			errs = append(errs, userErrs...)
		}

		newCommentID, err := s.InsertComment(ctx, s.localPrefix, comment, newPostID, newUserID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		commentIDMap[comment.CommentID] = newCommentID

		for _, meta := range bundle.CommentMetaFor(comment.CommentID) {
			if _, err := s.InsertCommentMeta(ctx, s.localPrefix, meta, newCommentID); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, comment := range bundle.Comments {
		if comment.CommentParent == 0 {
			continue
		}
		newCommentID, ok := commentIDMap[comment.CommentID]
		if !ok {
			continue
		}
		newParentID, ok := commentIDMap[comment.CommentParent]
		if !ok {
			errs = append(errs, fmt.Errorf("comment %d: parent %d was not imported", comment.CommentID, comment.CommentParent))
			continue
		}
		if newParentID == comment.CommentParent {
			continue
		}
		if err := s.UpdateCommentParent(ctx, s.localPrefix, newCommentID, newParentID); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// importTerms links the new post to local terms, reusing existing terms
// by (name, taxonomy) and inserting the rest along with their termmeta
// and taxonomy junctions.
func (s *Store) importTerms(ctx context.Context, bundle *PostBundle, newPostID int64, categoryTermMap map[int64]int64) []error {
	var errs []error

	termIDMap := make(map[int64]int64)
	for _, rel := range bundle.TermRelationships {
		taxonomy := bundle.TermTaxonomyByID(rel.TermTaxonomyID)
		if taxonomy == nil {
			errs = append(errs, fmt.Errorf("term taxonomy %d not found in source data", rel.TermTaxonomyID))
			continue
		}
		term := bundle.TermByID(taxonomy.TermID)
		if term == nil {
			errs = append(errs, fmt.Errorf("term %d not found in source data", taxonomy.TermID))
			continue
		}

		var newTermTaxonomyID int64
		var err error
		if taxonomy.Taxonomy == "category" && categoryTermMap != nil {
			newTermTaxonomyID, err = s.resolveCategoryTaxonomy(ctx, categoryTermMap, *term)
		} else {
			newTermTaxonomyID, err = s.resolveTermTaxonomy(ctx, termIDMap, *term, *taxonomy, bundle)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.InsertTermRelationship(ctx, s.localPrefix, newPostID, newTermTaxonomyID); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// resolveCategoryTaxonomy maps a live category term to the local
// taxonomy junction via the mapping RecreateCategories produced.
func (s *Store) resolveCategoryTaxonomy(ctx context.Context, categoryTermMap map[int64]int64, term TermRow) (int64, error) {
	localTermID, ok := categoryTermMap[term.TermID]
	if !ok {
		return 0, fmt.Errorf("category term %d (%q) missing from recreated category tree", term.TermID, term.Name)
	}
	junction, err := s.TermTaxonomyByTermAndTaxonomy(ctx, s.localPrefix, localTermID, "category")
	if err != nil {
		return 0, err
	}
	if junction == nil {
		return 0, fmt.Errorf("local category term %d has no taxonomy row", localTermID)
	}
	return junction.TermTaxonomyID, nil
}

// resolveTermTaxonomy returns the local term_taxonomy_id for a source
// term within a taxonomy, creating the term, its meta, and the junction
// row if needed. termIDMap memoizes term inserts within one import so a
// term shared by several taxonomies is created once.
func (s *Store) resolveTermTaxonomy(ctx context.Context, termIDMap map[int64]int64, term TermRow, taxonomy TermTaxonomyRow, bundle *PostBundle) (int64, error) {
	existing, err := s.TermByNameAndTaxonomy(ctx, s.localPrefix, term.Name, taxonomy.Taxonomy)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		junction, err := s.TermTaxonomyByTermAndTaxonomy(ctx, s.localPrefix, existing.TermID, taxonomy.Taxonomy)
		if err != nil {
			return 0, err
		}
		if junction == nil {
			return 0, fmt.Errorf("local term %d has no %s taxonomy row", existing.TermID, taxonomy.Taxonomy)
		}
		return junction.TermTaxonomyID, nil
	}

	newTermID, ok := termIDMap[term.TermID]
	if !ok {
		newTermID, err = s.InsertTerm(ctx, s.localPrefix, term)
		if err != nil {
			return 0, err
		}
		termIDMap[term.TermID] = newTermID
		for _, meta := range bundle.TermMetaFor(term.TermID) {
			if _, err := s.InsertTermMeta(ctx, s.localPrefix, meta, newTermID); err != nil {
				return 0, err
			}
		}
	}

	junction, err := s.TermTaxonomyByTermAndTaxonomy(ctx, s.localPrefix, newTermID, taxonomy.Taxonomy)
	if err != nil {
		return 0, err
	}
	if junction != nil {
		return junction.TermTaxonomyID, nil
	}
	return s.InsertTermTaxonomy(ctx, s.localPrefix, taxonomy, newTermID)
}
