package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 25, "Maximum entries to print")
}

var historyCmd = &cobra.Command{
	Use:   "history USER_ID",
	Short: "Print a user's ledger, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	userID := args[0]
	limit, _ := cmd.Flags().GetInt("limit")

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	entries, err := rt.economy.History(userID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stdout, "No ledger entries for %s.\n", userID)
		return nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tCURRENCY\tAMOUNT\tSOURCE\tBALANCE\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%+d\t%s\t%d\t%s\n",
			e.Timestamp.Format(time.RFC3339), e.Currency, e.Amount,
			e.Source, e.BalanceAfter, e.Description)
	}
	return w.Flush()
}
