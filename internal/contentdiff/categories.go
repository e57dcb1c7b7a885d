package contentdiff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const categoryColumns = "t.term_id, tt.term_taxonomy_id, tt.taxonomy, t.name, t.slug, tt.description, tt.parent, tt.count"

func scanCategoryRows(rows *sql.Rows) ([]CategoryRow, error) {
	var out []CategoryRow
	for rows.Next() {
		var c CategoryRow
		if err := rows.Scan(&c.TermID, &c.TermTaxonomyID, &c.Taxonomy, &c.Name, &c.Slug, &c.Description, &c.Parent, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AllCategories fetches every category term with its taxonomy junction
// from the prefixed table set.
func (s *Store) AllCategories(ctx context.Context, prefix string) ([]CategoryRow, error) {
	q := fmt.Sprintf(`SELECT %s FROM %sterms t
		JOIN %sterm_taxonomy tt ON t.term_id = tt.term_id
		WHERE tt.taxonomy = 'category'
		ORDER BY tt.parent ASC, t.term_id ASC`, categoryColumns, prefix, prefix)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("selecting categories from %s tables: %w", prefix, err)
	}
	defer rows.Close()
	return scanCategoryRows(rows)
}

// CategoriesWithInvalidParents lists categories whose parent points at a
// term_id no category taxonomy row covers. The hierarchy recreation
// cannot place such a category, so these must be reset first.
func (s *Store) CategoriesWithInvalidParents(ctx context.Context, prefix string) ([]CategoryRow, error) {
	q := fmt.Sprintf(`SELECT %s FROM %sterms t
		JOIN %sterm_taxonomy tt ON t.term_id = tt.term_id
		WHERE tt.taxonomy = 'category' AND tt.parent <> 0
		AND tt.parent NOT IN (
			SELECT term_id FROM %sterm_taxonomy WHERE taxonomy = 'category'
		)`, categoryColumns, prefix, prefix, prefix)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("selecting orphaned categories from %s tables: %w", prefix, err)
	}
	defer rows.Close()
	return scanCategoryRows(rows)
}

// ResetCategoryParents zeroes the parent of the given category taxonomy
// rows, turning orphans into root categories.
func (s *Store) ResetCategoryParents(ctx context.Context, prefix string, termTaxonomyIDs []int64) error {
	if len(termTaxonomyIDs) == 0 {
		return nil
	}
	q := fmt.Sprintf("UPDATE %sterm_taxonomy SET parent = 0 WHERE term_taxonomy_id IN (%s)",
		prefix, placeholders(len(termTaxonomyIDs)))
	if _, err := s.db.ExecContext(ctx, q, int64Args(termTaxonomyIDs)...); err != nil {
		return fmt.Errorf("resetting category parents: %w", err)
	}
	return nil
}

// localCategory finds a local category by exact name and description
// under the given local parent term, (nil, nil) when absent. Description
// is part of the match: two categories sharing a name under one parent
// are distinct when their descriptions differ, and reusing the wrong one
// would merge them.
func (s *Store) localCategory(ctx context.Context, name, description string, parent int64) (*CategoryRow, error) {
	q := fmt.Sprintf(`SELECT %s FROM %sterms t
		JOIN %sterm_taxonomy tt ON t.term_id = tt.term_id
		WHERE tt.taxonomy = 'category' AND t.name = ? AND tt.description = ? AND tt.parent = ?`,
		categoryColumns, s.localPrefix, s.localPrefix)
	var c CategoryRow
	err := s.db.QueryRowContext(ctx, q, name, description, parent).Scan(
		&c.TermID, &c.TermTaxonomyID, &c.Taxonomy, &c.Name, &c.Slug, &c.Description, &c.Parent, &c.Count,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting local category %q under parent %d: %w", name, parent, err)
	}
	return &c, nil
}

// insertCategory creates a category term and its taxonomy junction under
// a local parent term, deduplicating the slug against existing terms.
func (s *Store) insertCategory(ctx context.Context, name, slug, description string, parent int64) (CategoryRow, error) {
	if slug == "" {
		slug = Slugify(name)
	}
	unique := slug
	for n := 2; ; n++ {
		exists, err := s.TermSlugExists(ctx, s.localPrefix, unique)
		if err != nil {
			return CategoryRow{}, err
		}
		if !exists {
			break
		}
		unique = fmt.Sprintf("%s-%d", slug, n)
	}

	termID, err := s.InsertTerm(ctx, s.localPrefix, TermRow{Name: name, Slug: unique})
	if err != nil {
		return CategoryRow{}, err
	}
	taxonomyID, err := s.InsertTermTaxonomy(ctx, s.localPrefix, TermTaxonomyRow{
		Taxonomy:    "category",
		Description: description,
		Parent:      parent,
	}, termID)
	if err != nil {
		return CategoryRow{}, err
	}
	return CategoryRow{
		TermID:         termID,
		TermTaxonomyID: taxonomyID,
		Taxonomy:       "category",
		Name:           name,
		Slug:           unique,
		Description:    description,
		Parent:         parent,
	}, nil
}

// RecreateCategories rebuilds the live category tree on the local side,
// reusing local categories matched by name, description and parent and
// creating the
// rest, ancestors before descendants. It returns the mapping of live
// term_id to local term_id that category term relationships are imported
// through. created, when non-nil, receives every newly created category
// paired with its live original.
func (s *Store) RecreateCategories(ctx context.Context, livePrefix string, created func(live, local CategoryRow)) (map[int64]int64, error) {
	liveCategories, err := s.AllCategories(ctx, livePrefix)
	if err != nil {
		return nil, err
	}

	byTermID := make(map[int64]CategoryRow, len(liveCategories))
	for _, c := range liveCategories {
		byTermID[c.TermID] = c
	}

	termMap := make(map[int64]int64, len(liveCategories))
	visiting := make(map[int64]bool)

	var ensure func(liveTermID int64) (int64, error)
	ensure = func(liveTermID int64) (int64, error) {
		if localID, ok := termMap[liveTermID]; ok {
			return localID, nil
		}
		live, ok := byTermID[liveTermID]
		if !ok {
			// Dangling parent reference; treat as root.
			return 0, nil
		}
		if visiting[liveTermID] {
			return 0, fmt.Errorf("category %d (%q) is part of a parent cycle", liveTermID, live.Name)
		}
		visiting[liveTermID] = true
		defer delete(visiting, liveTermID)

		var localParent int64
		if live.Parent != 0 {
			parent, err := ensure(live.Parent)
			if err != nil {
				return 0, err
			}
			localParent = parent
		}

		existing, err := s.localCategory(ctx, live.Name, live.Description, localParent)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			termMap[liveTermID] = existing.TermID
			return existing.TermID, nil
		}

		inserted, err := s.insertCategory(ctx, live.Name, live.Slug, live.Description, localParent)
		if err != nil {
			return 0, err
		}
		if created != nil {
			created(live, inserted)
		}
		termMap[liveTermID] = inserted.TermID
		return inserted.TermID, nil
	}

	for _, c := range liveCategories {
		if _, err := ensure(c.TermID); err != nil {
			return nil, err
		}
	}
	return termMap, nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify derives a URL slug from a term name the same way term slugs
// are formed elsewhere in the tables: lowercased, whitespace to dashes,
// everything else dropped.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}
