package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/callscope/internal/config"
	"github.com/KaramelBytes/callscope/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	logFile string

	// Loaded configuration
	cfg *cfgpkg.Global
	log *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "callscope",
	Short: "Call-center consultation analytics: report and dashboard",
	Long: `callscope loads a consultation log (CSV, TSV, XLSX or SQLite) and builds the
call center performance report: talk-time averages, revenue totals, connection and
disconnection timing, order and refund breakdowns, and the daily charge trend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.callscope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c
}

// settings returns the loaded configuration, loading it on first use.
func settings() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func initLogger() error {
	c := settings()
	level := c.LogLevel
	if debug {
		level = "debug"
	}
	file := c.LogFile
	if logFile != "" {
		file = logFile
	}
	l, err := logger.New(logger.Options{Level: level, File: file})
	if err != nil {
		return err
	}
	log = l
	return nil
}

func logs() *zap.SugaredLogger {
	if log == nil {
		return logger.Nop()
	}
	return log
}
