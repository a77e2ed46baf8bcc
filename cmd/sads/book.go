package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/johan/sads-console/internal/app"
	"github.com/johan/sads-console/internal/catalog"
	"github.com/johan/sads-console/internal/clob"
	"github.com/johan/sads-console/internal/gamma"
	"github.com/johan/sads-console/internal/outcome"
	"github.com/johan/sads-console/internal/ws"
)

var bookDuration time.Duration

var bookCmd = &cobra.Command{
	Use:   "book <market-id>",
	Short: "Stream the top of book of a catalogue market's matched outcome",
	Long: `book matches a catalogue market to its Polymarket outcome, prints the CLOB
order book snapshot for the YES token, then follows the market websocket feed
and prints every top-of-book change.`,
	Example: `  sads book fed-rate-cuts-2025
  sads book btc-hit-95k-2025 --duration 30s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if bookDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, bookDuration)
			defer cancel()
		}

		httpClient := &http.Client{Timeout: cfg.Polymarket.RequestTimeout}
		gc := gamma.NewClient(httpClient).WithBaseURL(cfg.Polymarket.GammaURL).WithRetries(cfg.Polymarket.Retries)
		cc := clob.NewClient(httpClient).WithBaseURL(cfg.Polymarket.ClobURL).WithRetries(cfg.Polymarket.Retries)

		out := cmd.OutOrStdout()
		tokenID, question, err := resolveToken(ctx, gc, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\ntoken %s\n\n", question, truncateID(tokenID))

		if mid, err := cc.FetchMidpoint(ctx, tokenID); err == nil {
			spread, _ := cc.FetchSpread(ctx, tokenID)
			fmt.Fprintf(out, "mid %s  spread %s\n\n", dash(mid), dash(spread))
		}

		printer := newBookPrinter(out, tokenID)
		if snap, err := cc.FetchBook(ctx, tokenID); err != nil {
			fmt.Fprintf(os.Stderr, "Book snapshot unavailable: %v\n", err)
		} else {
			printer.print(ws.TopOfBook{
				AssetID:   tokenID,
				BestBid:   snap.BestBid(),
				BestAsk:   snap.BestAsk(),
				LastTrade: snap.LastTradePrice,
				Timestamp: snap.Timestamp,
			})
		}

		client := app.NewFeedClient(cfg.WebSocket, printer.handle)
		fmt.Fprintln(os.Stderr, "Connecting to WebSocket...")
		if err := client.Connect(ctx); err != nil {
			return errors.Wrap(err, "connecting")
		}
		defer client.Close()

		if err := client.Subscribe([]string{tokenID}); err != nil {
			return errors.Wrap(err, "subscribing")
		}
		fmt.Fprintln(os.Stderr, "Listening... (Ctrl+C to stop)")

		<-ctx.Done()
		fmt.Fprintf(os.Stderr, "\n%d updates\n", printer.updates())
		return nil
	},
}

func init() {
	bookCmd.Flags().DurationVar(&bookDuration, "duration", 0, "How long to run (0 = until Ctrl+C)")
}

// resolveToken finds the YES token of the outcome the market's favourite
// label matches.
func resolveToken(ctx context.Context, gc *gamma.Client, marketID string) (tokenID, question string, err error) {
	cat, err := catalog.Default()
	if err != nil {
		return "", "", err
	}
	m, ok := cat.Get(marketID)
	if !ok {
		return "", "", errors.Errorf("unknown market %q", marketID)
	}
	if !m.Live() {
		return "", "", errors.Errorf("market %s has no Polymarket slug", m.ID)
	}

	ev, err := gc.FetchEventBySlug(ctx, m.PolymarketSlug)
	if err != nil {
		return "", "", err
	}
	c, _ := outcome.MatchWithStrategy(ev.Candidates(), m.FavoriteOutcome)
	if c == nil || c.TokenIDs.First() == "" {
		return "", "", errors.Errorf("no priced outcome for %q in %s", m.FavoriteOutcome, m.PolymarketSlug)
	}
	return c.TokenIDs.First(), c.Question, nil
}

// bookPrinter merges feed updates into one top of book and prints each change.
type bookPrinter struct {
	out     io.Writer
	tokenID string

	mu    sync.Mutex
	top   ws.TopOfBook
	count int
}

func newBookPrinter(out io.Writer, tokenID string) *bookPrinter {
	return &bookPrinter{out: out, tokenID: tokenID, top: ws.TopOfBook{AssetID: tokenID}}
}

func (p *bookPrinter) handle(messages []ws.Message) {
	for _, msg := range messages {
		if q, ok := ws.BestQuote(msg, p.tokenID); ok {
			p.print(q)
		}
	}
}

func (p *bookPrinter) print(q ws.TopOfBook) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.top.Merge(q)
	if p.count > 0 && sameLevels(next, p.top) {
		return
	}
	p.top = next
	p.count++
	fmt.Fprintf(p.out, "[%s] bid=%-6s ask=%-6s last=%s\n",
		time.Now().Format("15:04:05"), dash(next.BestBid), dash(next.BestAsk), dash(next.LastTrade))
}

func (p *bookPrinter) updates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func sameLevels(a, b ws.TopOfBook) bool {
	return a.BestBid == b.BestBid && a.BestAsk == b.BestAsk && a.LastTrade == b.LastTrade
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncateID(id string) string {
	if len(id) > 20 {
		return id[:20] + "..."
	}
	return id
}
