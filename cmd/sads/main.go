// Command sads runs the prediction console backend and its operator tools.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/johan/sads-console/internal/config"
	"github.com/johan/sads-console/internal/logging"
)

var (
	configPath string
	envFiles   []string
	logLevel   string

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "sads",
	Short: "SADS prediction console backend",
	Long: `sads serves the prediction console API: the market catalogue with live
Polymarket prices, trade tickets, synthetic candles and risk predictions,
cached Polymarket proxies, and a websocket quote stream.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFiles...); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.ApplyEnv(); err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid config")
		}

		logCloser, err = logging.Setup(cfg.Logging)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Dotenv files to load before the environment (default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(serveCmd, probeCmd, eventsCmd, bookCmd, watchCmd, predictCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
