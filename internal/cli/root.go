// Package cli implements the awbeta command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/economy"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/ledger"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/level"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/config"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/infra/anomaly"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/infra/plan"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/infra/sqlite"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/infra/telemetry"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "awbeta",
	Short: "Creative-work economy service",
	Long: `awbeta runs the coin/XP economy for the creative-work platform:
check-ins, mission rewards, store purchases, level progression, and the
consistency and anomaly tooling around them.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.toml (default ~/.awbeta/config.toml)")
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles everything a command needs after wiring.
type runtime struct {
	cfg      config.Config
	db       *sqlite.DB
	economy  *economy.Service
	detector *anomaly.Detector
}

// openRuntime loads config, opens the database, and wires the services.
// The caller must Close the runtime.
func openRuntime() (*runtime, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	sink := telemetry.NewRecorder(db)

	levels := level.NewEngine(level.Config{
		MilestoneInterval: cfg.Economy.MilestoneInterval,
		MilestoneBonus:    cfg.Economy.MilestoneBonus,
	})
	svc := economy.NewService(economy.Config{
		CheckInCoins:     cfg.Economy.CheckInCoins,
		CheckInXP:        cfg.Economy.CheckInXP,
		StreakLength:     cfg.Economy.StreakLength,
		StreakBonusCoins: cfg.Economy.StreakBonusCoins,
	}, db, db, ledger.NewEngine(db, sink), levels, plan.DefaultRegistry(), sink)

	det := anomaly.NewDetector(anomaly.DetectorConfig{
		XPSpikeThreshold:    cfg.Anomaly.XPSpikeThreshold,
		XPSpikeWindow:       cfg.Anomaly.XPSpikeWindow(),
		CoinSpikeThreshold:  cfg.Anomaly.CoinSpikeThreshold,
		CoinSpikeWindow:     cfg.Anomaly.CoinSpikeWindow(),
		SubmissionThreshold: cfg.Anomaly.SubmissionThreshold,
		SubmissionWindow:    cfg.Anomaly.SubmissionWindow(),
		QueueStallAge:       cfg.Anomaly.QueueStallAge(),
		RedemptionThreshold: cfg.Anomaly.RedemptionThreshold,
		RedemptionWindow:    cfg.Anomaly.RedemptionWindow(),
	}, db, db)

	return &runtime{cfg: cfg, db: db, economy: svc, detector: det}, nil
}

func (rt *runtime) Close() error { return rt.db.Close() }
