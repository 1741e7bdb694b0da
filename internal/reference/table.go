package reference

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ShareAnalysis/internal/model"
)

// ErrUpstreamShape means the page no longer has the table layout we read.
var ErrUpstreamShape = errors.New("unexpected reference table shape")

// ParseTable reads the first <table> of an HTML document and returns one
// company per row, keyed by the Symbol column. The first row for a symbol wins.
func ParseTable(r io.Reader) ([]model.Company, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := find(doc, atom.Table)
	if table == nil {
		return nil, fmt.Errorf("%w: no table found", ErrUpstreamShape)
	}

	var header []string
	var companies []model.Company
	seen := make(map[string]bool)
	symbolCol := -1

	for _, tr := range findAll(table, atom.Tr) {
		cells, isHeader := rowCells(tr)
		if len(cells) == 0 {
			continue
		}
		if header == nil {
			if !isHeader {
				return nil, fmt.Errorf("%w: table has no header row", ErrUpstreamShape)
			}
			header = cells
			for i, h := range header {
				if h == model.ColumnSymbol {
					symbolCol = i
				}
			}
			if symbolCol < 0 {
				return nil, fmt.Errorf("%w: no %q column in %v", ErrUpstreamShape, model.ColumnSymbol, header)
			}
			continue
		}
		if symbolCol >= len(cells) {
			continue
		}
		symbol := cells[symbolCol]
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true

		c := model.Company{Symbol: symbol}
		for i, name := range header {
			if i == symbolCol {
				continue
			}
			var v string
			if i < len(cells) {
				v = cells[i]
			}
			c.Fields = append(c.Fields, model.Field{Name: name, Value: v})
		}
		companies = append(companies, c)
	}

	if len(companies) == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrUpstreamShape)
	}
	return companies, nil
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

// findAll collects matching descendants without descending into nested tables.
func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == a {
			out = append(out, c)
			continue
		}
		if c.DataAtom == atom.Table {
			continue
		}
		out = append(out, findAll(c, a)...)
	}
	return out
}

// rowCells returns the text of each cell and whether every cell is a <th>.
func rowCells(tr *html.Node) ([]string, bool) {
	var cells []string
	allHeader := true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Th:
		case atom.Td:
			allHeader = false
		default:
			continue
		}
		cells = append(cells, cellText(c))
	}
	return cells, allHeader
}

func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			// Footnote markers such as [1] live in <sup>.
			if n.DataAtom == atom.Sup || n.DataAtom == atom.Style {
				return
			}
			if n.DataAtom == atom.Br {
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
