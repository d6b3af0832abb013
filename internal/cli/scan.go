package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/domain"
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("user", "u", "", "Scan a single user instead of everyone")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run an anomaly sweep and print the findings",
	Long: `Run the windowed anomaly heuristics over the ledger, activity, and
review queue. Findings are advisory: nothing is blocked or reverted.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	userID, _ := cmd.Flags().GetString("user")

	var findings []domain.Anomaly
	if userID != "" {
		findings, err = rt.detector.ScanUser(userID)
	} else {
		findings, err = rt.detector.ScanAll()
	}
	if err != nil {
		return err
	}

	if len(findings) == 0 {
		fmt.Fprintln(os.Stdout, "No anomalies found.")
		return nil
	}
	for _, f := range findings {
		fmt.Fprintf(os.Stdout, "[%s/%s] %s\n", f.Type, f.Severity, f.Message)
	}
	fmt.Fprintf(os.Stdout, "\n%d finding(s).\n", len(findings))
	return nil
}
