package main

import (
	"context"
	"io"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/gamma"
	"github.com/johan/sads-console/internal/pricefeed"
	"github.com/johan/sads-console/internal/quotes"
	"github.com/johan/sads-console/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Terminal market board with live prices",
	Long: `watch polls Polymarket for every catalogue market and shows the board in the
terminal. Tab cycles categories, s cycles the sort, r refreshes, q quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The board owns the terminal; keep logs in the file only.
		if w, ok := logCloser.(io.Writer); ok {
			logrus.SetOutput(w)
		} else {
			logrus.SetOutput(io.Discard)
		}

		cat, err := catalog.Default()
		if err != nil {
			return err
		}
		store := quotes.NewStore().WithMaxAge(cfg.Feed.QuoteMaxAge())
		gc := gamma.NewClient(&http.Client{Timeout: cfg.Polymarket.RequestTimeout}).
			WithBaseURL(cfg.Polymarket.GammaURL).
			WithRetries(cfg.Polymarket.Retries)
		poller := pricefeed.NewPoller(gc, cat, store, cfg.Feed).
			WithRequestTimeout(cfg.Polymarket.RequestTimeout)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		model := tui.New(ctx, cat, store, poller.PollOnce)
		_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		return err
	},
}
