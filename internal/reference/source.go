// Package reference loads the table of index-member companies.
package reference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/observability"
)

// DefaultURL is the page listing the S&P 500 constituents.
const DefaultURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Source fetches the reference table.
type Source interface {
	FetchCompanies(ctx context.Context) ([]model.Company, error)
}

// WikipediaSource reads the constituents table from an HTML page.
type WikipediaSource struct {
	URL    string
	Client *http.Client
}

// NewWikipediaSource creates a source with optional proxy support.
func NewWikipediaSource(pageURL, proxyURL string) *WikipediaSource {
	if pageURL == "" {
		pageURL = DefaultURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &WikipediaSource{
		URL: pageURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// FetchCompanies downloads the page and parses its first table.
func (s *WikipediaSource) FetchCompanies(ctx context.Context) (companies []model.Company, err error) {
	defer func() { observability.RecordReferenceFetch(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reference fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reference read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reference: status %d", resp.StatusCode)
	}
	return ParseTable(bytes.NewReader(body))
}
