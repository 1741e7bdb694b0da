// Package ticker converts reference-table symbols to quote-source tickers.
package ticker

import "strings"

// Sanitize maps a reference symbol to the quote-source format, e.g.
// "BRK.B" becomes "BRK-B".
func Sanitize(symbol string) string {
	return strings.ReplaceAll(strings.TrimSpace(symbol), ".", "-")
}
