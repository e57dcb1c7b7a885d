package contentdiff

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var (
	blockHeaderRe = regexp.MustCompile(`<!-- wp:[a-z][\w/-]* \{.*?\} -->`)
	singleIDRe    = regexp.MustCompile(`"id":(\d+)\b`)
	csvIDsRe      = regexp.MustCompile(`"ids":\[(\d+(?:,\d+)*)\]`)
	imageClassRe  = regexp.MustCompile(`wp-image-(\d+)\b`)
	imageDataIDRe = regexp.MustCompile(`data-id="(\d+)"`)
)

// RewriteBlockSingleIDs rewrites "id":<old> attributes to "id":<new>
// inside block comment headers, for IDs present in idMap. The
// replacement is scoped to each matched header so an unrelated numeral
// elsewhere in the content is never touched.
func RewriteBlockSingleIDs(content string, idMap map[int64]int64) string {
	return blockHeaderRe.ReplaceAllStringFunc(content, func(header string) string {
		return singleIDRe.ReplaceAllStringFunc(header, func(attr string) string {
			return rewriteDigits(attr, `"id":`, "", idMap)
		})
	})
}

// RewriteBlockCSVIDs rewrites each mapped ID inside "ids":[...] lists.
// IDs absent from idMap stay in place; partial rewrites of one list are
// expected.
func RewriteBlockCSVIDs(content string, idMap map[int64]int64) string {
	return csvIDsRe.ReplaceAllStringFunc(content, func(attr string) string {
		inner := strings.TrimSuffix(strings.TrimPrefix(attr, `"ids":[`), `]`)
		parts := strings.Split(inner, ",")
		for i, part := range parts {
			old, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				continue
			}
			if newID, ok := idMap[old]; ok {
				parts[i] = strconv.FormatInt(newID, 10)
			}
		}
		return `"ids":[` + strings.Join(parts, ",") + `]`
	})
}

// RewriteImageClassIDs rewrites wp-image-<old> class markers to the
// mapped IDs. The replacement is scoped to <img> tags so the same text
// appearing in prose or on another element stays untouched.
func RewriteImageClassIDs(content string, idMap map[int64]int64) string {
	return imgTagRe.ReplaceAllStringFunc(content, func(tag string) string {
		return imageClassRe.ReplaceAllStringFunc(tag, func(marker string) string {
			return rewriteDigits(marker, "wp-image-", "", idMap)
		})
	})
}

// RewriteImageDataIDs rewrites data-id="<old>" attributes to the mapped
// IDs, scoped to <img> tags the same way as RewriteImageClassIDs.
func RewriteImageDataIDs(content string, idMap map[int64]int64) string {
	return imgTagRe.ReplaceAllStringFunc(content, func(tag string) string {
		return imageDataIDRe.ReplaceAllStringFunc(tag, func(attr string) string {
			return rewriteDigits(attr, `data-id="`, `"`, idMap)
		})
	})
}

// rewriteDigits maps the digits between prefix and suffix through idMap,
// returning the input unchanged when the ID is unmapped.
func rewriteDigits(match, prefix, suffix string, idMap map[int64]int64) string {
	digits := strings.TrimSuffix(strings.TrimPrefix(match, prefix), suffix)
	old, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return match
	}
	newID, ok := idMap[old]
	if !ok {
		return match
	}
	return prefix + strconv.FormatInt(newID, 10) + suffix
}

// RewriteAttachmentIDs applies all four embedded-reference rewrites.
func RewriteAttachmentIDs(content string, idMap map[int64]int64) string {
	content = RewriteBlockSingleIDs(content, idMap)
	content = RewriteBlockCSVIDs(content, idMap)
	content = RewriteImageClassIDs(content, idMap)
	content = RewriteImageDataIDs(content, idMap)
	return content
}

// BlockRewrite records one post whose content or excerpt changed during
// the attachment-ID rewrite pass. Unchanged fields stay empty so the
// ledger only carries what actually moved.
type BlockRewrite struct {
	PostID        int64  `json:"id_new"`
	ContentBefore string `json:"content_before,omitempty"`
	ContentAfter  string `json:"content_after,omitempty"`
	ExcerptBefore string `json:"excerpt_before,omitempty"`
	ExcerptAfter  string `json:"excerpt_after,omitempty"`
}

// RewriteBlockIDsInPosts runs the four rewrites over the given local
// posts and persists only the rows that changed. changed, when non-nil,
// receives one record per persisted post.
func (s *Store) RewriteBlockIDsInPosts(ctx context.Context, postIDs []int64, idMap map[int64]int64, changed func(BlockRewrite)) error {
	rows, err := s.SelectPostContentExcerpts(ctx, s.localPrefix, postIDs)
	if err != nil {
		return err
	}
	for _, row := range rows {
		newContent := RewriteAttachmentIDs(row.Content, idMap)
		newExcerpt := RewriteAttachmentIDs(row.Excerpt, idMap)
		if newContent == row.Content && newExcerpt == row.Excerpt {
			continue
		}
		if err := s.UpdatePostContentExcerpt(ctx, s.localPrefix, row.ID, newContent, newExcerpt); err != nil {
			return err
		}
		if changed != nil {
			record := BlockRewrite{PostID: row.ID}
			if newContent != row.Content {
				record.ContentBefore, record.ContentAfter = row.Content, newContent
			}
			if newExcerpt != row.Excerpt {
				record.ExcerptBefore, record.ExcerptAfter = row.Excerpt, newExcerpt
			}
			changed(record)
		}
	}
	return nil
}
