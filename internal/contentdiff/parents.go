package contentdiff

import (
	"context"
	"fmt"
	"strconv"
)

// ParentUpdate records one post whose post_parent was rewritten from a
// source-side ID to the local one.
type ParentUpdate struct {
	PostID      int64 `json:"id_new"`
	ParentIDOld int64 `json:"parent_id_old"`
	ParentIDNew int64 `json:"parent_id_new"`
}

// FixPostParents rewrites post_parent on imported posts. The bare insert
// carries each parent over as a source-side ID, so once the whole batch
// is in, every non-zero parent is resolved through three strategies in
// order:
//
//  1. the in-run import map (covers parents imported in this batch),
//  2. the live-ID marker meta stamped on every imported post (covers
//     parents imported in earlier runs),
//  3. an identity-tuple join against the live posts table (covers
//     parents that already existed locally before any migration).
//
// A parent none of the strategies can place is reset to 0 and reported
// through warn. updated holds post IDs already fixed in earlier runs and
// is skipped. report receives every rewrite performed.
func (s *Store) FixPostParents(ctx context.Context, livePrefix string, imported []ImportedPost, idMap map[int64]int64, updated map[int64]bool, markerKey string, report func(ParentUpdate), warn func(string)) error {
	for _, post := range imported {
		if updated[post.IDNew] {
			continue
		}
		parentOld, err := s.PostParent(ctx, s.localPrefix, post.IDNew)
		if err != nil {
			return err
		}
		if parentOld == 0 {
			continue
		}

		parentNew, ok := idMap[parentOld]
		if !ok {
			parentNew, ok, err = s.PostIDByMetaValue(ctx, s.localPrefix, markerKey, parentOld)
			if err != nil {
				return err
			}
		}
		if !ok {
			parentNew, ok, err = s.PostIDByComparingWithLive(ctx, livePrefix, parentOld)
			if err != nil {
				return err
			}
		}
		if !ok {
			if warn != nil {
				warn(fmt.Sprintf("post %d: parent %d could not be resolved, resetting to 0", post.IDNew, parentOld))
			}
			parentNew = 0
		}

		if parentNew == parentOld {
			continue
		}
		if err := s.UpdatePostParent(ctx, s.localPrefix, post.IDNew, parentNew); err != nil {
			return err
		}
		if report != nil {
			report(ParentUpdate{PostID: post.IDNew, ParentIDOld: parentOld, ParentIDNew: parentNew})
		}
	}
	return nil
}

// FeaturedImageUpdate records one _thumbnail_id meta rewritten to a
// local attachment ID.
type FeaturedImageUpdate struct {
	PostID         int64 `json:"id"`
	ThumbnailIDOld int64 `json:"thumbnail_id_old"`
	ThumbnailIDNew int64 `json:"thumbnail_id_new"`
}

// UpdateFeaturedImages rewrites _thumbnail_id metas still holding
// source-side attachment IDs to the local ones from attachmentIDMap.
// Only metas on posts in importedPosts are touched: a pre-existing
// local post may carry a thumbnail ID that happens to collide with a
// source-side one, and that thumbnail is already correct. updated holds
// post IDs fixed in earlier runs.
func (s *Store) UpdateFeaturedImages(ctx context.Context, importedPosts map[int64]bool, attachmentIDMap map[int64]int64, updated map[int64]bool, report func(FeaturedImageUpdate)) error {
	oldIDs := make([]int64, 0, len(attachmentIDMap))
	for old := range attachmentIDMap {
		oldIDs = append(oldIDs, old)
	}
	metas, err := s.ThumbnailMetas(ctx, s.localPrefix, oldIDs)
	if err != nil {
		return err
	}
	for _, pending := range pendingFeaturedImageUpdates(metas, importedPosts, attachmentIDMap, updated) {
		if err := s.UpdatePostMetaValue(ctx, s.localPrefix, pending.MetaID, strconv.FormatInt(pending.Update.ThumbnailIDNew, 10)); err != nil {
			return err
		}
		if report != nil {
			report(pending.Update)
		}
	}
	return nil
}

type pendingThumbnailUpdate struct {
	MetaID int64
	Update FeaturedImageUpdate
}

// pendingFeaturedImageUpdates filters the candidate metas down to the
// ones that actually get rewritten: on an imported post, not already
// done, numeric, and mapped.
func pendingFeaturedImageUpdates(metas []PostMetaRow, importedPosts map[int64]bool, attachmentIDMap map[int64]int64, updated map[int64]bool) []pendingThumbnailUpdate {
	var pending []pendingThumbnailUpdate
	for _, meta := range metas {
		if !importedPosts[meta.PostID] || updated[meta.PostID] {
			continue
		}
		old, err := strconv.ParseInt(meta.MetaValue, 10, 64)
		if err != nil {
			continue
		}
		newID, ok := attachmentIDMap[old]
		if !ok {
			continue
		}
		pending = append(pending, pendingThumbnailUpdate{
			MetaID: meta.MetaID,
			Update: FeaturedImageUpdate{PostID: meta.PostID, ThumbnailIDOld: old, ThumbnailIDNew: newID},
		})
	}
	return pending
}
