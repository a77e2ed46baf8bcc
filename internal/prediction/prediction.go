// Package prediction generates the seeded synthetic "risk prediction" shown on
// the terminal page. It is a placeholder data generator keyed by a hash of the
// address, not a model; every report carries Synthetic=true.
package prediction

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"
	"unicode/utf16"
)

const (
	MinAddressLen = 32
	MaxAddressLen = 44
)

var riskDescriptions = []string{
	"Bot funding activity increases",
	"Dev wallet movement detected",
	"Liquidity pool imbalance forming",
	"Large holder accumulation pattern",
	"Unusual transaction velocity spike",
	"Cross-chain bridge activity detected",
	"Smart contract interaction anomaly",
	"Token distribution asymmetry detected",
}

var (
	outcomes   = []string{"rug", "pump & dump", "liquidity migration", "honeypot", "slow drain"}
	timeframes = []string{"12h", "24h", "36h", "48h", "72h", "7d"}
)

// Request is the body of a prediction request.
type Request struct {
	Address string `json:"address"`
}

// RiskWindow is one forecast risk event.
type RiskWindow struct {
	TimeHours   int     `json:"timeHours"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// SimilarCase is one look-alike historical case.
type SimilarCase struct {
	Confidence float64 `json:"confidence"`
	Outcome    string  `json:"outcome"`
	Timeframe  string  `json:"timeframe"`
}

// Report is the generated prediction.
type Report struct {
	Address          string        `json:"address"`
	TFI              float64       `json:"TFI"`
	QSS              float64       `json:"QSS"`
	LiquiditySafety  float64       `json:"liquiditySafety"`
	HolderSymmetry   float64       `json:"holderSymmetry"`
	AnomalyCount     int           `json:"anomalyCount"`
	RiskWindows      []RiskWindow  `json:"riskWindows"`
	SimilarPastCases []SimilarCase `json:"similarPastCases"`
	Synthetic        bool          `json:"synthetic"`
}

// Issue describes one validation failure of a request field.
type Issue struct {
	Code    string   `json:"code"`
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Minimum int      `json:"minimum,omitempty"`
	Maximum int      `json:"maximum,omitempty"`
}

// Validate checks the address length, counted in UTF-16 code units.
func Validate(address string) []Issue {
	n := len(utf16.Encode([]rune(address)))
	switch {
	case n < MinAddressLen:
		return []Issue{{
			Code:    "too_small",
			Path:    []string{"address"},
			Message: fmt.Sprintf("String must contain at least %d character(s)", MinAddressLen),
			Minimum: MinAddressLen,
		}}
	case n > MaxAddressLen:
		return []Issue{{
			Code:    "too_big",
			Path:    []string{"address"},
			Message: fmt.Sprintf("String must contain at most %d character(s)", MaxAddressLen),
			Maximum: MaxAddressLen,
		}}
	}
	return nil
}

// Hash is the sum of the UTF-16 code units of s.
func Hash(s string) int {
	h := 0
	for _, u := range utf16.Encode([]rune(s)) {
		h += int(u)
	}
	return h
}

// Generate builds the deterministic report for address. Same address, same
// report.
func Generate(address string) Report {
	hash := Hash(address)
	seed := float64(hash%100) / 100

	r := Report{
		Address:         address,
		TFI:             0.45 + seed*0.5,
		QSS:             0.35 + seed*0.55,
		LiquiditySafety: math.Max(0.08, 0.5-seed*0.45),
		HolderSymmetry:  0.2 + seed*0.6,
		AnomalyCount:    int(math.Floor(2 + seed*8)),
		Synthetic:       true,
	}

	numRisks := 1 + int(math.Floor(seed*4))
	r.RiskWindows = make([]RiskWindow, 0, numRisks)
	for i := 0; i < numRisks; i++ {
		r.RiskWindows = append(r.RiskWindows, RiskWindow{
			TimeHours:   6 + (hash+i*17)%168,
			Confidence:  0.65 + float64((hash+i)%30)/100,
			Description: riskDescriptions[(hash+i)%len(riskDescriptions)],
		})
	}

	numCases := 2 + int(math.Floor(seed*3))
	r.SimilarPastCases = make([]SimilarCase, 0, numCases)
	for i := 0; i < numCases; i++ {
		r.SimilarPastCases = append(r.SimilarPastCases, SimilarCase{
			Confidence: 0.48 + float64((hash+i*23)%45)/100,
			Outcome:    outcomes[(hash+i)%len(outcomes)],
			Timeframe:  timeframes[(hash+i)%len(timeframes)],
		})
	}
	sort.SliceStable(r.SimilarPastCases, func(i, j int) bool {
		return r.SimilarPastCases[i].Confidence > r.SimilarPastCases[j].Confidence
	})

	return r
}

// Generator wraps Generate with the artificial "analysis" latency.
type Generator struct {
	MinDelay time.Duration
	Jitter   time.Duration

	// jitter returns a value in [0,1); nil means math/rand.
	jitter func() float64
}

// NewGenerator creates a generator with the given latency window.
func NewGenerator(minDelay, jitter time.Duration) *Generator {
	return &Generator{MinDelay: minDelay, Jitter: jitter}
}

// Delay returns the latency for the next request.
func (g *Generator) Delay() time.Duration {
	f := rand.Float64
	if g.jitter != nil {
		f = g.jitter
	}
	return g.MinDelay + time.Duration(f()*float64(g.Jitter))
}

// Predict waits out the artificial latency, then returns the report. It
// returns ctx.Err() if the caller goes away first.
func (g *Generator) Predict(ctx context.Context, address string) (*Report, error) {
	if d := g.Delay(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	r := Generate(address)
	return &r, nil
}
