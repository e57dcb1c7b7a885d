package contentdiff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CopySpeed controls how aggressively a collation repair copies rows:
// batch size per INSERT..SELECT and sleep between batches.
type CopySpeed struct {
	BatchSize int64
	Sleep     time.Duration
}

// CopySpeeds maps the named repair modes to their batch profiles.
var CopySpeeds = map[string]CopySpeed{
	"aggressive": {BatchSize: 15000, Sleep: 1 * time.Second},
	"generous":   {BatchSize: 10000, Sleep: 2 * time.Second},
	"calm":       {BatchSize: 1000, Sleep: 3 * time.Second},
	"cautious":   {BatchSize: 5000, Sleep: 2 * time.Second},
}

// CollationMismatch names a source table whose collation differs from the
// destination reference table.
type CollationMismatch struct {
	Table              string
	Collation          string
	ReferenceCollation string
}

// SpeedFor resolves a repair mode name to its batch profile. Unknown
// names fall back to cautious.
func SpeedFor(mode string) CopySpeed {
	if speed, ok := CopySpeeds[mode]; ok {
		return speed
	}
	return CopySpeeds["cautious"]
}

// CoreTablesExist verifies every core table is present under the given
// prefix. Table suffixes in skipTables are not checked.
func (s *Store) CoreTablesExist(ctx context.Context, prefix string, skipTables []string) error {
	skip := skipSet(skipTables)
	var missing []string
	for _, suffix := range CoreTables {
		if skip[suffix] {
			continue
		}
		table := prefix + suffix
		_, ok, err := s.tableCollation(ctx, table)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func skipSet(skipTables []string) map[string]bool {
	skip := make(map[string]bool, len(skipTables))
	for _, t := range skipTables {
		skip[t] = true
	}
	return skip
}

// TableCollation returns the collation of a table in the current schema.
func (s *Store) TableCollation(ctx context.Context, table string) (string, error) {
	collation, ok, err := s.tableCollation(ctx, table)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("table %s does not exist", table)
	}
	return collation, nil
}

func (s *Store) tableCollation(ctx context.Context, table string) (string, bool, error) {
	const q = `SELECT table_collation FROM information_schema.TABLES
		WHERE table_schema = DATABASE() AND table_name = ?`
	var collation sql.NullString
	err := s.db.QueryRowContext(ctx, q, table).Scan(&collation)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading collation of %s: %w", table, err)
	}
	return collation.String, true, nil
}

// CompareCollations checks every live core table against the collation of
// the local posts table and returns the tables that differ. Importing
// across differing collations corrupts joins, so mismatches block the
// migration until repaired. Table suffixes in skipTables are not checked,
// and a live table that does not exist is skipped rather than failing the
// whole comparison; the second return value lists those missing tables so
// the caller can warn about them.
func (s *Store) CompareCollations(ctx context.Context, livePrefix string, skipTables []string) ([]CollationMismatch, []string, error) {
	reference, err := s.TableCollation(ctx, s.localPrefix+"posts")
	if err != nil {
		return nil, nil, err
	}
	skip := skipSet(skipTables)
	var mismatches []CollationMismatch
	var missing []string
	for _, suffix := range CoreTables {
		if skip[suffix] {
			continue
		}
		table := livePrefix + suffix
		collation, ok, err := s.tableCollation(ctx, table)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			missing = append(missing, table)
			continue
		}
		if collation != reference {
			mismatches = append(mismatches, CollationMismatch{
				Table:              table,
				Collation:          collation,
				ReferenceCollation: reference,
			})
		}
	}
	return mismatches, missing, nil
}

// DefaultBackupTablePrefix names the backup copy a collation repair
// leaves behind.
const DefaultBackupTablePrefix = "bak_"

// RepairTableCollation rebuilds a table under the local reference
// collation and copies its rows over in batches. The original table is
// renamed to backupPrefix+table first and kept after the repair so the
// pre-repair rows stay recoverable until the operator drops the backup
// themselves. report, when non-nil, receives progress lines.
func (s *Store) RepairTableCollation(ctx context.Context, table, backupPrefix string, speed CopySpeed, report func(string)) error {
	if report == nil {
		report = func(string) {}
	}
	if backupPrefix == "" {
		backupPrefix = DefaultBackupTablePrefix
	}
	reference, err := s.TableCollation(ctx, s.localPrefix+"posts")
	if err != nil {
		return err
	}
	charset, _, ok := strings.Cut(reference, "_")
	if !ok {
		return fmt.Errorf("cannot derive charset from collation %q", reference)
	}

	backup := backupPrefix + table
	if _, exists, err := s.tableCollation(ctx, backup); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("backup table %s already exists, remove it before repairing", backup)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("RENAME TABLE %s TO %s", table, backup)); err != nil {
		return fmt.Errorf("renaming %s aside: %w", table, err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s LIKE %s", table, backup)); err != nil {
		return fmt.Errorf("recreating %s: %w", table, err)
	}
	convert := fmt.Sprintf("ALTER TABLE %s CONVERT TO CHARACTER SET %s COLLATE %s", table, charset, reference)
	if _, err := s.db.ExecContext(ctx, convert); err != nil {
		return fmt.Errorf("converting %s to %s: %w", table, reference, err)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", backup)).Scan(&total); err != nil {
		return fmt.Errorf("counting rows of %s: %w", backup, err)
	}

	var copied int64
	for copied < total {
		q := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s LIMIT %d, %d", table, backup, copied, speed.BatchSize)
		res, err := s.db.ExecContext(ctx, q)
		if err != nil {
			return fmt.Errorf("copying rows into %s at offset %d: %w", table, copied, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("copying rows into %s: %w", table, err)
		}
		copied += n
		report(fmt.Sprintf("%s: copied %d/%d rows", table, copied, total))
		if copied < total {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(speed.Sleep):
			}
		}
	}

	var final int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&final); err != nil {
		return fmt.Errorf("counting rows of %s: %w", table, err)
	}
	if final != total {
		return fmt.Errorf("row count mismatch after repairing %s: got %d, want %d (original kept as %s)", table, final, total, backup)
	}
	report(fmt.Sprintf("%s: repaired, original kept as %s", table, backup))
	return nil
}
