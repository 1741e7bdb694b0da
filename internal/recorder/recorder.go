package recorder

import (
	"time"

	"ShareAnalysis/internal/model"
)

// QuoteSnapshot holds one freshly fetched quote series.
type QuoteSnapshot struct {
	Ticker string
	Source string
	Bars   []model.OHLCV
}

// ViewEvent records one rendered dashboard.
type ViewEvent struct {
	Symbol    string
	Ticker    string
	Window    int
	Total     int
	Columns   []string
	LastClose float64
	LastDate  time.Time
	NoData    bool
}

// Recorder persists a history of what the dashboard fetched and showed.
type Recorder interface {
	RecordQuotes(snap *QuoteSnapshot) error
	RecordView(evt *ViewEvent) error
	Close() error
}
