package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/johan/sads-console/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, price feed and quote stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := app.NewService(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := svc.Run(ctx); err != nil {
			return err
		}
		logrus.Info("Shutdown complete")
		return nil
	},
}
