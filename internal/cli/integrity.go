package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/audit"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/level"
)

func init() {
	rootCmd.AddCommand(integrityCmd)
	integrityCmd.Flags().Bool("repair", false, "Rewrite snapshots whose level disagrees with their XP")
}

var integrityCmd = &cobra.Command{
	Use:   "integrity [USER_ID]",
	Short: "Audit snapshots against the ledger and the level curve",
	Long: `Replay each user's coin ledger against the stored balance and check
that the stored level matches the XP total. With --repair, level drift is
rewritten from the XP total; ledger mismatches are reported, never patched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIntegrity,
}

func runIntegrity(cmd *cobra.Command, args []string) error {
	repair, _ := cmd.Flags().GetBool("repair")

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	var userIDs []string
	if len(args) == 1 {
		userIDs = args
	} else {
		userIDs, err = rt.db.ActiveUserIDs()
		if err != nil {
			return err
		}
	}

	problems := 0
	for _, id := range userIDs {
		user, err := rt.db.Get(id)
		if err != nil {
			return fmt.Errorf("user %s: %w", id, err)
		}

		entries, err := rt.db.History(id)
		if err != nil {
			return fmt.Errorf("user %s: %w", id, err)
		}

		v := audit.AuditUser(*user, entries)
		if !v.Valid {
			problems++
			fmt.Fprintf(os.Stdout, "FAIL %s: %s\n", id, v.Reason)
		}
		for _, warn := range v.Warnings {
			fmt.Fprintf(os.Stdout, "WARN %s: %s\n", id, warn)
		}

		expected := level.ComputeLevelInfo(user.XP)
		if user.Level != expected.Level {
			problems++
			fmt.Fprintf(os.Stdout, "FAIL %s: level %d but XP %d implies level %d\n",
				id, user.Level, user.XP, expected.Level)
			if repair {
				if audit.EnsureLevelIntegrity(user) {
					if err := rt.db.Save(*user); err != nil {
						return fmt.Errorf("repair user %s: %w", id, err)
					}
					fmt.Fprintf(os.Stdout, "  repaired: level set to %d\n", user.Level)
				}
			}
		}
	}

	if problems == 0 {
		fmt.Fprintf(os.Stdout, "OK: %d user(s) consistent.\n", len(userIDs))
	} else {
		fmt.Fprintf(os.Stdout, "%d problem(s) across %d user(s).\n", problems, len(userIDs))
	}
	return nil
}
