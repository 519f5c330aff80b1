package pnl

import (
	"regexp"
	"strconv"
	"strings"
)

// Extraction is the structured data pulled out of OCR text. Zero values
// mean the field was not found; Found reports whether anything useful
// was extracted at all.
type Extraction struct {
	TokenSymbol string
	EntryPrice  float64
	ExitPrice   float64
	PNLPercent  float64

	HasPNL   bool
	HasEntry bool
	HasExit  bool
}

// Found reports whether the text yielded at least one field.
func (e *Extraction) Found() bool {
	return e.HasPNL || e.HasEntry || e.HasExit || e.TokenSymbol != ""
}

var (
	// "PNL: +45.2%", "Profit 12%", "loss: -30 %"
	labeledPNLRe = regexp.MustCompile(`(pnl|profit|loss)\s*:?\s*([+\-]?\s*\d+(\.\d+)?)\s*%`)
	// Bare signed percentage, e.g. "+120.5%". Requires an explicit sign
	// so plain "24h 3%" style noise is not picked up.
	barePNLRe = regexp.MustCompile(`([+\-]\s*\d+(\.\d+)?)\s*%`)

	// "$sol", "$bonk"
	cashtagRe = regexp.MustCompile(`\$([a-z]{3,5})\b`)
	// "sol entry 23.5" style, symbol directly before entry/exit
	symbolBeforeRe = regexp.MustCompile(`\b([a-z]{3,5})\b\s*(entry|exit)`)

	entryRe = regexp.MustCompile(`entry\s*(price)?\s*:?\s*\$?(\d+(\.\d+)?)`)
	exitRe  = regexp.MustCompile(`exit\s*(price)?\s*:?\s*\$?(\d+(\.\d+)?)`)
)

// symbolStopwords are short common words that match the symbol patterns
// but are never token symbols.
var symbolStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"entry": true, "exit": true, "pnl": true, "loss": true, "long": true,
	"short": true, "price": true, "usd": true, "usdt": true, "usdc": true,
}

// Parse pulls trade data out of OCR'd screenshot text. Matching is done
// on the lowercased text since OCR output is inconsistent about case.
func Parse(text string) *Extraction {
	lower := strings.ToLower(text)
	out := &Extraction{}

	if m := labeledPNLRe.FindStringSubmatch(lower); m != nil {
		if v, err := parseSignedNumber(m[2]); err == nil {
			out.PNLPercent = v
			out.HasPNL = true
		}
	} else if m := barePNLRe.FindStringSubmatch(lower); m != nil {
		if v, err := parseSignedNumber(m[1]); err == nil {
			out.PNLPercent = v
			out.HasPNL = true
		}
	}

	if m := cashtagRe.FindStringSubmatch(lower); m != nil {
		out.TokenSymbol = m[1]
	} else if m := symbolBeforeRe.FindStringSubmatch(lower); m != nil {
		if !symbolStopwords[m[1]] {
			out.TokenSymbol = m[1]
		}
	}

	if m := entryRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			out.EntryPrice = v
			out.HasEntry = true
		}
	}
	if m := exitRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			out.ExitPrice = v
			out.HasExit = true
		}
	}

	return out
}

// parseSignedNumber parses "+ 45.2" / "-30" style strings where OCR may
// have put whitespace between the sign and the digits.
func parseSignedNumber(s string) (float64, error) {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "+")
	return strconv.ParseFloat(s, 64)
}
