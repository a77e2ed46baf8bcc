package outcome

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	priceTarget     = regexp.MustCompile(`\$?([\d,]+)`)
)

// minKeywordLen is exclusive: keywords must be longer than this.
const minKeywordLen = 2

// Normalize lowercases s, drops everything outside [a-z0-9\s], collapses
// whitespace runs to one space and trims. Unicode spaces such as NBSP,
// U+3000 and U+FEFF count as whitespace.
func Normalize(s string) string {
	s = strings.Map(foldSpace, strings.ToLower(s))
	s = nonAlphanumeric.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func foldSpace(r rune) rune {
	if isSpace(r) {
		return ' '
	}
	return r
}

// isSpace matches the whitespace class used by browser regexps: Unicode White_Space
// without U+0085, plus the byte order mark.
func isSpace(r rune) bool {
	return (unicode.IsSpace(r) && r != 0x85) || r == 0xFEFF
}

// ExtractPriceTarget returns the first "$1,234"-style number in s with the
// commas removed ("$150,000" -> "150000"). Only the first match is looked at,
// so "$92k-$94k" yields "92".
func ExtractPriceTarget(s string) (string, bool) {
	m := priceTarget.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	digits := strings.ReplaceAll(m[1], ",", "")
	if digits == "" {
		return "", false
	}
	return digits, true
}

// Keywords returns the words of the normalized label longer than two characters.
func Keywords(label string) []string {
	var out []string
	for _, w := range strings.Split(Normalize(label), " ") {
		if len(w) > minKeywordLen {
			out = append(out, w)
		}
	}
	return out
}

// Match selects the candidate that best corresponds to targetLabel, or nil.
func Match(candidates []Candidate, targetLabel string) *Candidate {
	c, _ := MatchWithStrategy(candidates, targetLabel)
	return c
}

// MatchWithStrategy is Match that also reports which rule picked the result.
//
// Rules run in order and the first hit wins; within a rule, input order wins:
//  1. the price target of the label is contained in the normalized group label;
//  2. a keyword of the label is contained in normalized question + group label;
//  3. any candidate with prices.
//
// A candidate is only ever returned when it has a price pair.
func MatchWithStrategy(candidates []Candidate, targetLabel string) (*Candidate, Strategy) {
	if len(candidates) == 0 {
		return nil, StrategyNone
	}

	if target, ok := ExtractPriceTarget(targetLabel); ok {
		for i := range candidates {
			c := &candidates[i]
			if c.HasPrices() && strings.Contains(Normalize(c.GroupLabel), target) {
				return c, StrategyPriceTarget
			}
		}
	}

	keywords := Keywords(targetLabel)
	if len(keywords) > 0 {
		for i := range candidates {
			c := &candidates[i]
			if !c.HasPrices() {
				continue
			}
			combined := Normalize(c.Question) + " " + Normalize(c.GroupLabel)
			for _, kw := range keywords {
				if strings.Contains(combined, kw) {
					return c, StrategyKeyword
				}
			}
		}
	}

	for i := range candidates {
		if candidates[i].HasPrices() {
			return &candidates[i], StrategyFallback
		}
	}
	return nil, StrategyNone
}
