package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/gamma"
	"github.com/johan/sads-console/internal/outcome"
)

var (
	probeTarget string
	probeOutput string
)

var probeCmd = &cobra.Command{
	Use:   "probe <slug | market-id>",
	Short: "Fetch a Polymarket event and show which outcome a label matches",
	Long: `probe looks up a Polymarket event by slug, lists its outcome legs and runs the
outcome matcher against --target. A catalogue market id may be given instead
of a slug; its slug and favourite outcome are then used.`,
	Example: `  sads probe fed-decision-in-december --target "50+ bps decrease"
  sads probe fed-rate-cuts-2025
  sads probe 2028-democratic-presidential-nomination --target "Gavin Newsom" --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, target, err := resolveProbeArgs(args[0], probeTarget)
		if err != nil {
			return err
		}

		client := gamma.NewClient(&http.Client{Timeout: cfg.Polymarket.RequestTimeout}).
			WithBaseURL(cfg.Polymarket.GammaURL).
			WithRetries(cfg.Polymarket.Retries)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Polymarket.RequestTimeout)
		defer cancel()

		ev, err := client.FetchEventBySlug(ctx, slug)
		if err != nil {
			return err
		}

		res := probe(ev, target)
		if probeOutput == "json" {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		printProbe(cmd.OutOrStdout(), ev, res)
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVarP(&probeTarget, "target", "t", "", "Favourite outcome label to match")
	probeCmd.Flags().StringVarP(&probeOutput, "output", "o", "table", "Output format: table or json")
}

// probeResult is the matcher outcome for one event.
type probeResult struct {
	Slug      string             `json:"slug"`
	Target    string             `json:"target"`
	Strategy  outcome.Strategy   `json:"strategy"`
	Candidate *outcome.Candidate `json:"candidate,omitempty"`
	Prices    *outcome.Prices    `json:"prices,omitempty"`
}

// resolveProbeArgs accepts a catalogue id in place of a slug.
func resolveProbeArgs(arg, target string) (slug, label string, err error) {
	cat, err := catalog.Default()
	if err != nil {
		return "", "", err
	}
	m, ok := cat.Get(arg)
	if !ok {
		return arg, target, nil
	}
	if !m.Live() {
		return "", "", fmt.Errorf("market %s has no Polymarket slug", m.ID)
	}
	if target == "" {
		target = m.FavoriteOutcome
	}
	return m.PolymarketSlug, target, nil
}

func probe(ev *gamma.EventResponse, target string) probeResult {
	res := probeResult{Slug: ev.Event.Slug, Target: target}
	c, strategy := outcome.MatchWithStrategy(ev.Candidates(), target)
	res.Strategy = strategy
	if c != nil {
		res.Candidate = c
		p := outcome.NormalizePrices(*c.Prices)
		res.Prices = &p
	}
	return res
}

func printProbe(out io.Writer, ev *gamma.EventResponse, res probeResult) {
	fmt.Fprintf(out, "%s (%s)\n\n", ev.Event.Title, ev.Event.Slug)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tGROUP\tQUESTION\tYES\tNO")
	for i, m := range ev.Markets {
		yes, no := "-", "-"
		if p := outcome.PairFromList(m.OutcomePrices); p != nil {
			yes, no = p.Yes(), p.No()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, m.GroupItemTitle, truncate(m.Question, 50), yes, no)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTarget:   %q\n", res.Target)
	fmt.Fprintf(out, "Strategy: %s\n", res.Strategy)
	if res.Candidate == nil {
		fmt.Fprintln(out, "Matched:  none")
		return
	}
	fmt.Fprintf(out, "Matched:  %s\n", res.Candidate.Question)
	if res.Prices.Valid() {
		fmt.Fprintf(out, "Prices:   yes=%g no=%g implied=%d%%\n",
			res.Prices.YesPrice, res.Prices.NoPrice, res.Prices.ImpliedProbPercent)
	} else {
		fmt.Fprintln(out, "Prices:   unparseable")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
