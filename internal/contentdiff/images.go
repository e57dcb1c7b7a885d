package contentdiff

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	imgTagRe     = regexp.MustCompile(`<img[^>]*>`)
	imgSrcRe     = regexp.MustCompile(`src="([^"]+)"`)
	sizeSuffixRe = regexp.MustCompile(`-\d+x\d+(\.\w+)$`)
)

// AttachmentResolver maps an uploads-relative file path to a local
// attachment ID.
type AttachmentResolver func(relativePath string) (int64, bool, error)

// UploadsRelativePath extracts the path under wp-content/uploads/ from an
// image URL, with any -WxH size suffix stripped, which is the form
// attachment file paths are stored in. hostAliases are the hostnames
// treated as local; a URL on any other host returns ok false. Relative
// URLs are always local.
func UploadsRelativePath(rawURL string, hostAliases []string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if u.Host != "" {
		known := false
		for _, alias := range hostAliases {
			if strings.EqualFold(u.Host, alias) {
				known = true
				break
			}
		}
		if !known {
			return "", false
		}
	}
	_, rel, found := strings.Cut(u.Path, "/wp-content/uploads/")
	if !found || rel == "" {
		return "", false
	}
	return sizeSuffixRe.ReplaceAllString(rel, "$1"), true
}

// FixImageTag checks one <img> tag's wp-image class and data-id against
// the attachment its src actually resolves to, and rewrites them when
// they disagree. Returns the tag unchanged when the src is not local,
// does not resolve, or already matches.
func FixImageTag(tag string, hostAliases []string, resolve AttachmentResolver) (string, error) {
	srcMatch := imgSrcRe.FindStringSubmatch(tag)
	if srcMatch == nil {
		return tag, nil
	}
	rel, ok := UploadsRelativePath(srcMatch[1], hostAliases)
	if !ok {
		return tag, nil
	}
	correctID, found, err := resolve(rel)
	if err != nil {
		return tag, err
	}
	if !found {
		return tag, nil
	}

	classMatch := imageClassRe.FindStringSubmatch(tag)
	if classMatch == nil {
		return tag, nil
	}
	currentID, err := strconv.ParseInt(classMatch[1], 10, 64)
	if err != nil || currentID == correctID {
		return tag, nil
	}

	idMap := map[int64]int64{currentID: correctID}
	tag = RewriteImageClassIDs(tag, idMap)
	tag = RewriteImageDataIDs(tag, idMap)
	return tag, nil
}

// ImageIDFix records one post whose image references were corrected.
type ImageIDFix struct {
	PostID        int64  `json:"id"`
	ContentBefore string `json:"content_before"`
	ContentAfter  string `json:"content_after"`
}

// FixImageIDsInPosts walks the given local posts and corrects image tags
// whose wp-image class points at a different attachment than their src
// resolves to. Only changed rows are persisted. changed, when non-nil,
// receives one record per persisted post.
func (s *Store) FixImageIDsInPosts(ctx context.Context, postIDs []int64, hostAliases []string, changed func(ImageIDFix)) error {
	resolve := func(rel string) (int64, bool, error) {
		return s.AttachmentIDByFilePath(ctx, s.localPrefix, rel)
	}
	rows, err := s.SelectPostContentExcerpts(ctx, s.localPrefix, postIDs)
	if err != nil {
		return err
	}
	for _, row := range rows {
		var tagErr error
		newContent := imgTagRe.ReplaceAllStringFunc(row.Content, func(tag string) string {
			fixed, err := FixImageTag(tag, hostAliases, resolve)
			if err != nil && tagErr == nil {
				tagErr = err
			}
			return fixed
		})
		if tagErr != nil {
			return tagErr
		}
		if newContent == row.Content {
			continue
		}
		if err := s.UpdatePostContentExcerpt(ctx, s.localPrefix, row.ID, newContent, row.Excerpt); err != nil {
			return err
		}
		if changed != nil {
			changed(ImageIDFix{PostID: row.ID, ContentBefore: row.Content, ContentAfter: newContent})
		}
	}
	return nil
}
