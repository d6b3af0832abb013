package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/economy"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

func init() {
	rootCmd.AddCommand(adjustCmd)
	adjustCmd.Flags().Int64("coins", 0, "Coin delta (negative drains, clamped at zero)")
	adjustCmd.Flags().Int64("xp", 0, "XP delta (negative reductions clamp at zero)")
	adjustCmd.Flags().String("reason", "", "Audit reason (required)")
	adjustCmd.Flags().Bool("punishment", false, "Record as a punishment instead of a plain adjustment")
}

var adjustCmd = &cobra.Command{
	Use:   "adjust USER_ID",
	Short: "Apply an admin coin/XP adjustment",
	Long: `Apply an administrative adjustment to a user's balance or XP. The
adjustment is written to the ledger like any other transaction and runs the
consistency checks before it is persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdjust,
}

func runAdjust(cmd *cobra.Command, args []string) error {
	userID := args[0]
	reason, _ := cmd.Flags().GetString("reason")
	if reason == "" {
		return fmt.Errorf("an audit --reason is required")
	}

	var adj economy.Adjustment
	if cmd.Flags().Changed("coins") {
		v, _ := cmd.Flags().GetInt64("coins")
		adj.Coins = &v
	}
	if cmd.Flags().Changed("xp") {
		v, _ := cmd.Flags().GetInt64("xp")
		adj.XP = &v
	}
	if adj.Coins == nil && adj.XP == nil {
		return fmt.Errorf("nothing to adjust: pass --coins and/or --xp")
	}

	adjType := domain.SourceAdminAdjustment
	if punish, _ := cmd.Flags().GetBool("punishment"); punish {
		adjType = domain.SourcePunishment
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.economy.ProcessAdminAdjustment(userID, adj, reason, adjType)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Applied: coins %+d, xp %+d\n", res.CoinsApplied, res.XPApplied)
	fmt.Fprintf(os.Stdout, "User %s: %d coins, %d XP, level %d\n",
		userID, res.Updated.Coins, res.Updated.XP, res.Updated.Level)
	return nil
}
