package reference

import (
	"context"
	"sort"
	"time"

	"ShareAnalysis/internal/cache"
	"ShareAnalysis/internal/model"
)

// ListColumns are the columns shown in the companies list, in display order. Each entry lists
// the names the column has had upstream.
var ListColumns = [][]string{
	{model.ColumnSecurity},
	{model.ColumnSector},
	{"Date first added", "Date added"},
	{"Founded"},
}

// defaultIndex is the position of the symbol selected when none is given.
const defaultIndex = 3

// Directory is a loaded reference table. It is never mutated after creation.
type Directory struct {
	bySymbol map[string]model.Company
	symbols  []string
}

// NewDirectory indexes companies by symbol. The first company for a symbol wins.
func NewDirectory(companies []model.Company) *Directory {
	d := &Directory{bySymbol: make(map[string]model.Company, len(companies))}
	for _, c := range companies {
		if _, ok := d.bySymbol[c.Symbol]; ok {
			continue
		}
		d.bySymbol[c.Symbol] = c
		d.symbols = append(d.symbols, c.Symbol)
	}
	sort.Strings(d.symbols)
	return d
}

// Symbols returns all symbols in sorted order.
func (d *Directory) Symbols() []string {
	return append([]string(nil), d.symbols...)
}

// Companies returns all companies sorted by symbol.
func (d *Directory) Companies() []model.Company {
	out := make([]model.Company, len(d.symbols))
	for i, s := range d.symbols {
		out[i] = d.bySymbol[s]
	}
	return out
}

// Len returns the number of companies.
func (d *Directory) Len() int { return len(d.symbols) }

// Lookup returns the company for symbol.
func (d *Directory) Lookup(symbol string) (model.Company, bool) {
	c, ok := d.bySymbol[symbol]
	return c, ok
}

// Label formats a symbol for the ticker select, e.g. "AAPL - Apple Inc.".
func (d *Directory) Label(symbol string) string {
	c, ok := d.bySymbol[symbol]
	if !ok || c.Name() == "" {
		return symbol
	}
	return symbol + " - " + c.Name()
}

// DefaultSymbol returns the symbol preselected on first load.
func (d *Directory) DefaultSymbol() string {
	switch {
	case len(d.symbols) == 0:
		return ""
	case len(d.symbols) > defaultIndex:
		return d.symbols[defaultIndex]
	default:
		return d.symbols[0]
	}
}

// Loader memoizes the reference table for the process lifetime, or for ttl
// when it is positive.
type Loader struct {
	source Source
	memo   *cache.Memo[string, *Directory]
}

const directoryKey = "constituents"

// NewLoader wraps a source in a memo.
func NewLoader(source Source, ttl time.Duration) *Loader {
	return &Loader{source: source, memo: cache.NewMemo[string, *Directory]("reference", ttl)}
}

// Load returns the cached directory, fetching it on first use.
func (l *Loader) Load(ctx context.Context) (*Directory, error) {
	return l.memo.GetOrLoad(ctx, directoryKey, func(ctx context.Context) (*Directory, error) {
		companies, err := l.source.FetchCompanies(ctx)
		if err != nil {
			return nil, err
		}
		return NewDirectory(companies), nil
	})
}
