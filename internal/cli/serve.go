package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/api"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/app/sweeper"
	"github.com/neonofficialstudio-ux/awbeta1-sub001/internal/infra/telemetry"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the economy HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := api.NewServer(rt.economy, rt.detector)
	srv.EnableMetrics()
	srv.SetNotificationReader(rt.db)
	if rt.cfg.API.RequestTimeout > 0 {
		srv.SetRequestTimeout(time.Duration(rt.cfg.API.RequestTimeout) * time.Second)
	}

	sweep := sweeper.New(sweeper.DefaultConfig(), rt.detector, telemetry.NewRecorder(rt.db))
	sweep.Start(context.Background())
	defer sweep.Stop()

	addr := rt.cfg.API.Addr()
	fmt.Fprintf(os.Stdout, "Listening on %s (db: %s)\n", addr, rt.cfg.Storage.Path)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return httpServer.ListenAndServe()
}
