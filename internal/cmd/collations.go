package cmd

import (
	"context"
	"fmt"
	"os"

	"contentdiff-cli/internal/contentdiff"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

var collationsCmd = &cobra.Command{
	Use:   "collations",
	Short: "Compare and repair table collations between the live and local table sets",
}

var collationsCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "List live tables whose collation differs from the local reference",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store, livePrefix := collationsStore(cmd)
		skipTablesCSV, _ := cmd.Flags().GetString("skip-tables")

		mismatches := compareCollations(ctx, store, livePrefix, splitCSVFlag(skipTablesCSV))
		if len(mismatches) == 0 {
			fmt.Println("✓ All live table collations match the local reference")
			return
		}
		fmt.Printf("%d live tables differ from the local reference:\n", len(mismatches))
		for _, m := range mismatches {
			fmt.Printf("  %s: %s (local reference: %s)\n", m.Table, m.Collation, m.ReferenceCollation)
		}
		os.Exit(1)
	},
}

var collationsFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Rebuild mismatched live tables under the local reference collation",
	Long: `Fix renames each mismatched live table aside, recreates it under the local
reference collation, and copies the rows back in batches. The batch size and
pacing are controlled by --mode; slower modes keep a shared database responsive
while the copy runs. The renamed original is kept as a backup table until you
drop it yourself.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store, livePrefix := collationsStore(cmd)
		skipTablesCSV, _ := cmd.Flags().GetString("skip-tables")
		backupPrefix, _ := cmd.Flags().GetString("backup-table-prefix")

		mode, _ := cmd.Flags().GetString("mode")
		yes, _ := cmd.Flags().GetBool("yes")
		if _, ok := contentdiff.CopySpeeds[mode]; !ok {
			fmt.Printf("Unknown mode %q, using cautious\n", mode)
			mode = "cautious"
		}
		speed := contentdiff.SpeedFor(mode)

		mismatches := compareCollations(ctx, store, livePrefix, splitCSVFlag(skipTablesCSV))
		if len(mismatches) == 0 {
			fmt.Println("✓ All live table collations already match, nothing to do")
			return
		}

		fmt.Printf("%d tables will be rebuilt:\n", len(mismatches))
		for _, m := range mismatches {
			fmt.Printf("  %s: %s -> %s\n", m.Table, m.Collation, m.ReferenceCollation)
		}
		if !yes {
			confirmed := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Rebuild these %d tables in %s mode?", len(mismatches), mode),
			}
			if err := survey.AskOne(prompt, &confirmed); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return
			}
		}

		for _, m := range mismatches {
			fmt.Printf("Rebuilding %s...\n", m.Table)
			err := store.RepairTableCollation(ctx, m.Table, backupPrefix, speed, func(progress string) {
				fmt.Printf("  %s\n", progress)
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error repairing %s: %v\n", m.Table, err)
				os.Exit(1)
			}
			fmt.Printf("✓ %s rebuilt as %s, original kept as %s%s\n", m.Table, m.ReferenceCollation, backupPrefix, m.Table)
		}
	},
}

// compareCollations runs the comparison and prints a warning per live
// table that does not exist instead of treating it as fatal.
func compareCollations(ctx context.Context, store *contentdiff.Store, livePrefix string, skipTables []string) []contentdiff.CollationMismatch {
	mismatches, missing, err := store.CompareCollations(ctx, livePrefix, skipTables)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, table := range missing {
		fmt.Printf("Warning: live table %s does not exist, skipping its collation check\n", table)
	}
	return mismatches
}

// collationsStore validates the prefix flags and opens the store shared
// by both subcommands.
func collationsStore(cmd *cobra.Command) (*contentdiff.Store, string) {
	livePrefix, _ := cmd.Flags().GetString("live-table-prefix")
	localPrefix, _ := cmd.Flags().GetString("local-table-prefix")
	for _, prefix := range []string{livePrefix, localPrefix} {
		if err := validateTablePrefix(prefix); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return contentdiff.NewStore(db, localPrefix), livePrefix
}

func init() {
	rootCmd.AddCommand(collationsCmd)
	collationsCmd.AddCommand(collationsCompareCmd)
	collationsCmd.AddCommand(collationsFixCmd)

	for _, sub := range []*cobra.Command{collationsCompareCmd, collationsFixCmd} {
		sub.Flags().String("live-table-prefix", "", "prefix of the live table set (required)")
		sub.MarkFlagRequired("live-table-prefix")
		sub.Flags().String("local-table-prefix", "wp_", "prefix of the local table set")
		sub.Flags().String("skip-tables", "", "comma-separated core table suffixes to leave out of the comparison")
	}
	collationsFixCmd.Flags().String("mode", "generous", "copy speed profile: aggressive, generous, calm, or cautious")
	collationsFixCmd.Flags().String("backup-table-prefix", contentdiff.DefaultBackupTablePrefix, "prefix for the backup copy each rebuilt table leaves behind")
	collationsFixCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
}
