package contentdiff

// PostStatuses are the migratable statuses for regular post types.
// Attachments live under "inherit" instead and are queried as their own
// group so each identity query stays narrow.
var (
	PostStatuses       = []string{"publish", "future", "draft", "pending", "private"}
	AttachmentStatuses = []string{"inherit"}
)

// SplitPostTypes separates "attachment" from the other requested post
// types. The two groups are fetched under different status sets and
// never share identity tuples, since the status is part of the tuple.
func SplitPostTypes(postTypes []string) (attachments, others []string) {
	for _, t := range postTypes {
		if t == "attachment" {
			attachments = append(attachments, t)
		} else {
			others = append(others, t)
		}
	}
	return attachments, others
}

// identityKey is the tuple posts are matched on across the two table
// sets. IDs are never compared because the two sets assign them
// independently.
func identityKey(p PostIdentity) string {
	return p.Name + "\x00" + p.Title + "\x00" + p.Status + "\x00" + p.Date
}

// poolByIdentity indexes local identities by tuple, preserving order so
// the earliest local row is consumed first on duplicate tuples.
func poolByIdentity(local []PostIdentity) map[string][]PostIdentity {
	pool := make(map[string][]PostIdentity, len(local))
	for _, p := range local {
		k := identityKey(p)
		pool[k] = append(pool[k], p)
	}
	return pool
}

// FilterNewLiveIDs returns the live post IDs with no identity match on
// the local side. Each local row can satisfy at most one live row: a
// matched local row is removed from the pool, so N live duplicates of a
// tuple backed by one local row yield N-1 new IDs.
func FilterNewLiveIDs(live, local []PostIdentity) []int64 {
	pool := poolByIdentity(local)
	var newIDs []int64
	for _, lp := range live {
		k := identityKey(lp)
		if candidates := pool[k]; len(candidates) > 0 {
			pool[k] = candidates[1:]
			continue
		}
		newIDs = append(newIDs, lp.ID)
	}
	return newIDs
}

// FilterModifiedLiveIDs returns the live posts whose identity matches a
// local post and whose post_modified is strictly newer than the local
// one, paired with the matched local ID. A local copy edited after the
// live one is left alone: the migration must never replace local work
// with a staler live version. The datetime strings sort
// lexicographically, so a plain string comparison orders them. The pool
// shrinks the same way as in FilterNewLiveIDs so a local row is matched
// at most once.
func FilterModifiedLiveIDs(live, local []PostIdentity) []ModifiedID {
	pool := poolByIdentity(local)
	var modified []ModifiedID
	for _, lp := range live {
		k := identityKey(lp)
		candidates := pool[k]
		if len(candidates) == 0 {
			continue
		}
		match := candidates[0]
		pool[k] = candidates[1:]
		if lp.Modified > match.Modified {
			modified = append(modified, ModifiedID{LiveID: lp.ID, LocalID: match.ID})
		}
	}
	return modified
}
