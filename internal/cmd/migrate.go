package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"contentdiff-cli/internal/contentdiff"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import the posts the search command found, with their full relational closure",
	Long: `Migrate reads the diff the search command recorded and imports every new and
modified live post into the local table set: the post row, its meta, author,
comments, and terms, with all foreign keys remapped to local IDs. Afterwards it
fixes post parents, featured images, and attachment IDs embedded in content.

Progress is recorded in append-only logs in the import directory; an
interrupted run can be restarted and picks up where it left off.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		livePrefix, _ := cmd.Flags().GetString("live-table-prefix")
		localPrefix, _ := cmd.Flags().GetString("local-table-prefix")
		importDir, _ := cmd.Flags().GetString("import-dir")

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
		defer db.Close()
		store := contentdiff.NewStore(db, localPrefix)

		for _, prefix := range []string{livePrefix, localPrefix} {
			if err := store.CoreTablesExist(ctx, prefix, nil); err != nil {
				fmt.Fprintf(os.Stderr, "Error validating %s tables: %v\n", prefix, err)
				os.Exit(1)
			}
		}
		mismatches, _, err := store.CompareCollations(ctx, livePrefix, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error comparing collations: %v\n", err)
			os.Exit(1)
		}
		if len(mismatches) > 0 {
			fmt.Fprintln(os.Stderr, "Error: live tables use a different collation than the local ones. Run 'contentdiff collations fix' first.")
			os.Exit(1)
		}

		ledger, err := contentdiff.NewLedger(importDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		newIDs, err := ledger.ReadNewIDsCSV()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		modified, err := ledger.ReadModifiedIDs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if newIDs == nil && modified == nil {
			fmt.Fprintf(os.Stderr, "Error: no diff found in %s. Run 'contentdiff search' first.\n", importDir)
			os.Exit(1)
		}

		logErr := func(msg string) {
			fmt.Fprintf(os.Stderr, "  %s\n", msg)
			if err := ledger.AppendError(msg); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing error log: %v\n", err)
			}
		}

		// A modified post is migrated by deleting the stale local copy and
		// importing the live one fresh. Deletions are logged so a restart
		// does not delete the freshly imported copy.
		deleted, err := ledger.ReadDeletedModifiedIDs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(modified) > 0 {
			fmt.Printf("Deleting %d modified local posts before reimport...\n", len(modified))
			for _, m := range modified {
				if deleted[m.LocalID] {
					continue
				}
				if err := store.DeletePostFully(ctx, localPrefix, m.LocalID); err != nil {
					logErr(fmt.Sprintf("deleting modified local post %d: %v", m.LocalID, err))
					continue
				}
				if err := ledger.AppendDeletedModifiedID(m.LocalID); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
			}
		}

		// Categories whose parent points at a nonexistent term cannot be
		// placed in the recreated tree; they are reset to root first.
		yes, _ := cmd.Flags().GetBool("yes")
		for _, prefix := range []string{livePrefix, localPrefix} {
			orphans, err := store.CategoriesWithInvalidParents(ctx, prefix)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error checking categories: %v\n", err)
				os.Exit(1)
			}
			if len(orphans) == 0 {
				continue
			}
			fmt.Printf("%d categories in the %s tables have nonexistent parents:\n", len(orphans), prefix)
			for _, c := range orphans {
				fmt.Printf("  %s (term_id %d, parent %d)\n", c.Name, c.TermID, c.Parent)
			}
			if !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: "Reset their parents to 0 and continue?",
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
				if !confirmed {
					fmt.Println("Aborted.")
					os.Exit(1)
				}
			}
			ids := make([]int64, len(orphans))
			for i, c := range orphans {
				ids[i] = c.TermTaxonomyID
			}
			if err := store.ResetCategoryParents(ctx, prefix, ids); err != nil {
				fmt.Fprintf(os.Stderr, "Error resetting category parents: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✓ Reset %d category parents in the %s tables\n", len(ids), prefix)
		}

		fmt.Println("Recreating the live category tree locally...")
		categoryTermMap, err := store.RecreateCategories(ctx, livePrefix, func(live, local contentdiff.CategoryRow) {
			if err := ledger.AppendJSON(contentdiff.LogRecreatedCategories, local); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing category log: %v\n", err)
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error recreating categories: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Category tree ready (%d live categories mapped)\n", len(categoryTermMap))

		worklist := make([]int64, 0, len(newIDs)+len(modified))
		worklist = append(worklist, newIDs...)
		for _, m := range modified {
			worklist = append(worklist, m.LiveID)
		}

		alreadyImported, err := ledger.ImportedOldIDs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Importing %d posts...\n", len(worklist))
		meter := contentdiff.NewProgressMeter(len(worklist), 10)
		imported := 0
		for i, liveID := range worklist {
			if percent, crossed := meter.Tick(i + 1); crossed {
				fmt.Printf("  %d%%\n", percent)
			}
			if alreadyImported[liveID] {
				continue
			}

			bundle, err := store.FetchPostBundle(ctx, livePrefix, liveID)
			if err != nil {
				logErr(fmt.Sprintf("fetching live post %d: %v", liveID, err))
				continue
			}
			newID, importErrs := store.ImportPost(ctx, bundle, categoryTermMap)
			if newID == 0 {
				logErr(fmt.Sprintf("importing live post %d: %v", liveID, importErrs[0]))
				continue
			}
			for _, importErr := range importErrs {
				logErr(fmt.Sprintf("importing live post %d: %v", liveID, importErr))
			}

			marker := contentdiff.PostMetaRow{MetaKey: contentdiff.LiveIDMetaKey, MetaValue: strconv.FormatInt(liveID, 10)}
			if _, err := store.InsertPostMeta(ctx, localPrefix, marker, newID); err != nil {
				logErr(fmt.Sprintf("stamping live ID on post %d: %v", newID, err))
			}

			record := contentdiff.ImportedPost{PostType: bundle.Post.PostType, IDOld: liveID, IDNew: newID}
			if err := ledger.AppendJSON(contentdiff.LogImportedPostIDs, record); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing import log: %v\n", err)
				os.Exit(1)
			}
			imported++
		}
		fmt.Printf("✓ Imported %d posts (%d were already done)\n", imported, len(worklist)-imported)

		// Every downstream fix works off the full import ledger, including
		// posts imported by earlier interrupted runs.
		allImported, err := ledger.ReadImportedPosts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		idMap := make(map[int64]int64, len(allImported))
		attachmentIDMap := make(map[int64]int64)
		newPostIDs := make([]int64, 0, len(allImported))
		newPostIDSet := make(map[int64]bool, len(allImported))
		for _, p := range allImported {
			idMap[p.IDOld] = p.IDNew
			if p.PostType == "attachment" {
				attachmentIDMap[p.IDOld] = p.IDNew
			}
			newPostIDs = append(newPostIDs, p.IDNew)
			newPostIDSet[p.IDNew] = true
		}

		fmt.Println("Fixing post parents...")
		parentsDone, err := ledger.UpdatedParentPostIDs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		err = store.FixPostParents(ctx, livePrefix, allImported, idMap, parentsDone, contentdiff.LiveIDMetaKey,
			func(update contentdiff.ParentUpdate) {
				if err := ledger.AppendJSON(contentdiff.LogUpdatedParentIDs, update); err != nil {
					fmt.Fprintf(os.Stderr, "Error writing parent log: %v\n", err)
				}
			},
			logErr,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fixing post parents: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Post parents fixed")

		fmt.Println("Updating featured images...")
		featuredDone, err := ledger.UpdatedFeaturedImagePostIDs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		err = store.UpdateFeaturedImages(ctx, newPostIDSet, attachmentIDMap, featuredDone, func(update contentdiff.FeaturedImageUpdate) {
			if err := ledger.AppendJSON(contentdiff.LogUpdatedFeaturedImgs, update); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing featured image log: %v\n", err)
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error updating featured images: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Featured images updated")

		fmt.Println("Rewriting attachment IDs embedded in post content...")
		err = store.RewriteBlockIDsInPosts(ctx, newPostIDs, attachmentIDMap, func(rewrite contentdiff.BlockRewrite) {
			if err := ledger.AppendJSON(contentdiff.LogBlockIDsUpdates, rewrite); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing block rewrite log: %v\n", err)
			}
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rewriting block IDs: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Embedded attachment IDs rewritten")

		fmt.Println("\nMigration complete. Logs:")
		for _, name := range []string{
			contentdiff.LogImportedPostIDs,
			contentdiff.LogDeletedModifiedIDs,
			contentdiff.LogRecreatedCategories,
			contentdiff.LogUpdatedParentIDs,
			contentdiff.LogUpdatedFeaturedImgs,
			contentdiff.LogBlockIDsUpdates,
			contentdiff.LogErrors,
		} {
			fmt.Printf("  %s\n", ledger.Path(name))
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().String("live-table-prefix", "", "prefix of the live table set (required)")
	migrateCmd.MarkFlagRequired("live-table-prefix")
	migrateCmd.Flags().String("local-table-prefix", "wp_", "prefix of the local table set")
	migrateCmd.Flags().String("import-dir", ".", "directory holding the search output and migration logs")
	migrateCmd.Flags().Bool("yes", false, "skip confirmation prompts (for unattended runs)")
}
