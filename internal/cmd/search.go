package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"contentdiff-cli/internal/contentdiff"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find new and modified live posts and record them for migration",
	Long: `Search compares the live and local posts tables and records which live posts
are new (no local identity match) and which were modified after the local copy
was taken. The result is written to the export directory and consumed by the
migrate command.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		livePrefix, _ := cmd.Flags().GetString("live-table-prefix")
		localPrefix, _ := cmd.Flags().GetString("local-table-prefix")
		exportDir, _ := cmd.Flags().GetString("export-dir")
		postTypesCSV, _ := cmd.Flags().GetString("post-types")

		for _, prefix := range []string{livePrefix, localPrefix} {
			if err := validateTablePrefix(prefix); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		postTypes := splitCSVFlag(postTypesCSV)
		if len(postTypes) == 0 {
			fmt.Fprintln(os.Stderr, "Error: --post-types must name at least one post type.")
			os.Exit(1)
		}

		db, err := openDB()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		store := contentdiff.NewStore(db, localPrefix)

		for _, prefix := range []string{livePrefix, localPrefix} {
			if err := store.CoreTablesExist(ctx, prefix, nil); err != nil {
				fmt.Fprintf(os.Stderr, "Error validating %s tables: %v\n", prefix, err)
				os.Exit(1)
			}
		}

		availableTypes, err := store.DistinctPostTypes(ctx, livePrefix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		available := make(map[string]bool, len(availableTypes))
		for _, t := range availableTypes {
			available[t] = true
		}
		for _, t := range postTypes {
			if !available[t] {
				fmt.Fprintf(os.Stderr, "Error: post type %q does not exist in the live tables. Available: %s\n",
					t, strings.Join(availableTypes, ", "))
				os.Exit(1)
			}
		}

		ensureMatchingCollations(ctx, store, livePrefix)

		fmt.Printf("Fetching post identities for types %v...\n", postTypes)
		liveIdentities, err := fetchIdentities(ctx, store, livePrefix, postTypes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		localIdentities, err := fetchIdentities(ctx, store, localPrefix, postTypes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  live: %d posts, local: %d posts\n", len(liveIdentities), len(localIdentities))

		newIDs := contentdiff.FilterNewLiveIDs(liveIdentities, localIdentities)
		modified := contentdiff.FilterModifiedLiveIDs(liveIdentities, localIdentities)

		ledger, err := contentdiff.NewLedger(exportDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := ledger.WriteNewIDsCSV(newIDs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := ledger.WriteModifiedIDs(modified); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✓ Found %d new and %d modified live posts\n", len(newIDs), len(modified))
		fmt.Printf("  new IDs:      %s\n", ledger.Path(contentdiff.LogNewIDsCSV))
		fmt.Printf("  modified IDs: %s\n", ledger.Path(contentdiff.LogModifiedIDs))
	},
}

// fetchIdentities loads identity tuples in two groups, attachments under
// inherit and everything else under the migratable statuses, so neither
// query drags in rows the other group's statuses would admit.
func fetchIdentities(ctx context.Context, store *contentdiff.Store, prefix string, postTypes []string) ([]contentdiff.PostIdentity, error) {
	attachments, others := contentdiff.SplitPostTypes(postTypes)
	var identities []contentdiff.PostIdentity
	if len(others) > 0 {
		batch, err := store.PostIdentities(ctx, prefix, others, contentdiff.PostStatuses)
		if err != nil {
			return nil, err
		}
		identities = append(identities, batch...)
	}
	if len(attachments) > 0 {
		batch, err := store.PostIdentities(ctx, prefix, attachments, contentdiff.AttachmentStatuses)
		if err != nil {
			return nil, err
		}
		identities = append(identities, batch...)
	}
	return identities, nil
}

// ensureMatchingCollations compares the live table collations against
// the local reference and, on mismatch, repairs the differing tables in
// generous mode before re-checking. Only a repair that still leaves a
// mismatch aborts the search.
func ensureMatchingCollations(ctx context.Context, store *contentdiff.Store, livePrefix string) {
	mismatches, missing, err := store.CompareCollations(ctx, livePrefix, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error comparing collations: %v\n", err)
		os.Exit(1)
	}
	for _, table := range missing {
		fmt.Printf("Warning: live table %s does not exist, skipping its collation check\n", table)
	}
	if len(mismatches) == 0 {
		return
	}

	fmt.Printf("%d live tables use a different collation than the local reference, repairing in generous mode:\n", len(mismatches))
	for _, m := range mismatches {
		fmt.Printf("  %s: %s (local reference: %s)\n", m.Table, m.Collation, m.ReferenceCollation)
	}
	speed := contentdiff.SpeedFor("generous")
	for _, m := range mismatches {
		err := store.RepairTableCollation(ctx, m.Table, contentdiff.DefaultBackupTablePrefix, speed, func(progress string) {
			fmt.Printf("  %s\n", progress)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error repairing %s: %v\n", m.Table, err)
			os.Exit(1)
		}
	}

	mismatches, _, err = store.CompareCollations(ctx, livePrefix, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error comparing collations: %v\n", err)
		os.Exit(1)
	}
	if len(mismatches) > 0 {
		fmt.Fprintf(os.Stderr, "Error: %d live tables still mismatch after repair. Run 'contentdiff collations compare' to inspect.\n", len(mismatches))
		os.Exit(1)
	}
	fmt.Println("✓ Collations repaired")
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("live-table-prefix", "", "prefix of the live table set (required)")
	searchCmd.MarkFlagRequired("live-table-prefix")
	searchCmd.Flags().String("local-table-prefix", "wp_", "prefix of the local table set")
	searchCmd.Flags().String("post-types", "post,page,attachment", "comma-separated post types to diff")
	searchCmd.Flags().String("export-dir", ".", "directory the diff logs are written to")
}
