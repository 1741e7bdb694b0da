package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ShareAnalysis/internal/model"
	"ShareAnalysis/internal/reference"
)

type fakeDirectory struct {
	dir *reference.Directory
	err error
}

func (f *fakeDirectory) Load(context.Context) (*reference.Directory, error) { return f.dir, f.err }

type fakeQuotes struct {
	mu     sync.Mutex
	loaded []string
	fail   map[string]bool
}

func (f *fakeQuotes) Load(_ context.Context, symbol string) (*model.RawSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, symbol)
	if f.fail[symbol] {
		return nil, errors.New("timeout")
	}
	return &model.RawSeries{}, nil
}

func directory(symbols ...string) *reference.Directory {
	var cs []model.Company
	for _, s := range symbols {
		cs = append(cs, model.Company{Symbol: s})
	}
	return reference.NewDirectory(cs)
}

func TestWarm(t *testing.T) {
	quotes := &fakeQuotes{fail: map[string]bool{"MSFT": true}}
	s := NewScheduler(context.Background(),
		&fakeDirectory{dir: directory("AAPL", "MSFT", "BRK.B")},
		quotes,
		[]string{"AAPL", "MSFT", "BRK.B", "NOPE"},
		log.NewNopLogger())

	require.NoError(t, s.RunNow())
	assert.ElementsMatch(t, []string{"AAPL", "MSFT", "BRK.B"}, quotes.loaded,
		"failures do not stop other tickers and unknown symbols are skipped")
}

func TestWarm_ReferenceFailure(t *testing.T) {
	quotes := &fakeQuotes{}
	s := NewScheduler(context.Background(),
		&fakeDirectory{err: errors.New("status 503")},
		quotes, []string{"AAPL"}, log.NewNopLogger())

	err := s.RunNow()
	assert.ErrorContains(t, err, "status 503")
	assert.Empty(t, quotes.loaded)
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeDirectory{}, &fakeQuotes{}, nil, log.NewNopLogger())
	require.NoError(t, s.RegisterAll("0 */30 * * * *"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.RegisterAll("not a cron"))
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeDirectory{}, &fakeQuotes{}, nil, log.NewNopLogger())
	s.Start()
	s.Stop()
}
