package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/callscope/internal/analysis"
	"github.com/KaramelBytes/callscope/internal/dashboard"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve the report as an interactive dashboard",
	Long: `Serve the report over HTTP. The source file is re-read when the cached report
expires (cache_ttl_sec) or when the page's Refresh button is pressed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		path := dataPath(args)
		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := dashboard.New(func() (*analysis.Frame, error) { return loadFrame(path) }, dashboard.Config{
			Addr:     addr,
			CacheTTL: time.Duration(c.CacheTTLSec) * time.Second,
			Report:   reportOptions(),
			Logger:   logs(),
		})
		// Build once up front so a missing file fails fast.
		rep, err := srv.Report()
		if rep == nil && err != nil {
			return err
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: serving partial report: %v\n", err)
		}
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %s on http://%s\n", path, displayAddr(addr))
		return srv.Run(ctx)
	},
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addSourceFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8501)")
}
