package cmd

import (
	"context"
	"fmt"
	"os"

	"contentdiff-cli/internal/contentdiff"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

var fixImageIDsCmd = &cobra.Command{
	Use:   "fix-image-ids",
	Short: "Correct image tags whose wp-image class disagrees with the attachment their src resolves to",
	Long: `Fix-image-ids walks local posts and checks every <img> tag pointing at a local
upload: the attachment ID in its wp-image class and data-id attribute is
compared against the attachment the src URL actually resolves to, and rewritten
when they disagree. Image URLs on hosts outside --local-hostname-aliases are
left alone.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		localPrefix, _ := cmd.Flags().GetString("local-table-prefix")
		exportDir, _ := cmd.Flags().GetString("export-dir")
		aliasesCSV, _ := cmd.Flags().GetString("local-hostname-aliases")
		from, _ := cmd.Flags().GetInt64("post-id-from")
		to, _ := cmd.Flags().GetInt64("post-id-to")

		if err := validateTablePrefix(localPrefix); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if (from == 0) != (to == 0) {
			fmt.Fprintln(os.Stderr, "Error: --post-id-from and --post-id-to must be used together.")
			os.Exit(1)
		}

		aliases := splitCSVFlag(aliasesCSV)
		if len(aliases) == 0 {
			var hostname string
			prompt := &survey.Input{
				Message: "Local site hostname (image URLs on this host are treated as local):",
			}
			if err := survey.AskOne(prompt, &hostname, survey.WithValidator(survey.Required)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			aliases = []string{hostname}
		}

		db, err := openDB()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		store := contentdiff.NewStore(db, localPrefix)

		var postIDs []int64
		if from != 0 {
			postIDs, err = store.PostIDsInRange(ctx, localPrefix, from, to)
		} else {
			postIDs, err = store.AllPostIDs(ctx, localPrefix)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(postIDs) == 0 {
			fmt.Println("No posts to check.")
			return
		}

		ledger, err := contentdiff.NewLedger(exportDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Checking image IDs in %d posts...\n", len(postIDs))
		fixed := 0
		err = store.FixImageIDsInPosts(ctx, postIDs, aliases, func(fix contentdiff.ImageIDFix) {
			fixed++
			if err := ledger.AppendJSON(contentdiff.LogImageIDsFixes, fix); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing fix log: %v\n", err)
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✓ Fixed image IDs in %d posts\n", fixed)
		fmt.Printf("  log: %s\n", ledger.Path(contentdiff.LogImageIDsFixes))
	},
}

func init() {
	rootCmd.AddCommand(fixImageIDsCmd)

	fixImageIDsCmd.Flags().String("local-table-prefix", "wp_", "prefix of the local table set")
	fixImageIDsCmd.Flags().String("local-hostname-aliases", "", "comma-separated hostnames treated as local (prompted for when empty)")
	fixImageIDsCmd.Flags().Int64("post-id-from", 0, "lowest post ID to check (with --post-id-to)")
	fixImageIDsCmd.Flags().Int64("post-id-to", 0, "highest post ID to check (with --post-id-from)")
	fixImageIDsCmd.Flags().String("export-dir", ".", "directory the fix log is written to")
}
