package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/johan/sads-console/internal/gamma"
)

var (
	eventsTag     string
	eventsLimit   int
	eventsMarkets bool
	eventsOutput  string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List active Polymarket events or markets",
	Long: `events lists active Gamma events, optionally filtered by tag, to find slugs
worth adding to the catalogue. --markets lists individual markets instead.`,
	Example: `  sads events --tag crypto
  sads events --markets --limit 20 --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := gamma.NewClient(&http.Client{Timeout: cfg.Polymarket.RequestTimeout}).
			WithBaseURL(cfg.Polymarket.GammaURL).
			WithRetries(cfg.Polymarket.Retries)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Polymarket.RequestTimeout)
		defer cancel()

		active, closed := true, false
		filter := &gamma.Filter{Active: &active, Closed: &closed, TagSlug: eventsTag, Limit: eventsLimit}
		out := cmd.OutOrStdout()

		if eventsMarkets {
			markets, err := client.FetchMarkets(ctx, filter)
			if err != nil {
				return err
			}
			if eventsOutput == "json" {
				return writeJSON(out, markets)
			}
			printMarkets(out, markets)
			return nil
		}

		events, err := client.FetchEvents(ctx, filter)
		if err != nil {
			return err
		}
		if eventsOutput == "json" {
			return writeJSON(out, events)
		}
		printEvents(out, events)
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsTag, "tag", "", "Filter by tag slug")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 10, "Maximum number of results")
	eventsCmd.Flags().BoolVar(&eventsMarkets, "markets", false, "List markets instead of events")
	eventsCmd.Flags().StringVarP(&eventsOutput, "output", "o", "table", "Output format: table or json")
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encoding output")
}

func printEvents(out io.Writer, events []gamma.Event) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tTITLE\tMARKETS\tVOLUME24H\tENDS")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\n",
			e.Slug, truncate(e.Title, 40), len(e.Markets), e.Volume24hr, e.EndDate)
	}
	w.Flush()
	fmt.Fprintf(out, "\nTotal: %d events\n", len(events))
}

func printMarkets(out io.Writer, markets []gamma.Market) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tQUESTION\tPRICES\tVOLUME24H")
	for _, m := range markets {
		prices := "-"
		if len(m.OutcomePrices) > 0 {
			prices = fmt.Sprint([]string(m.OutcomePrices))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", truncate(m.Slug, 40), truncate(m.Question, 50), prices, m.Volume24hr)
	}
	w.Flush()
	fmt.Fprintf(out, "\nTotal: %d markets\n", len(markets))
}
