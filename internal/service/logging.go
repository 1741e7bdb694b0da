package service

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"ShareAnalysis/internal/reference"
)

// loggingMiddleware wraps Service and logs request information to the provided logger
type loggingMiddleware struct {
	logger log.Logger
	svc    Service
}

func (s *loggingMiddleware) Companies(ctx context.Context) (dir *reference.Directory, err error) {
	defer func(begin time.Time) {
		count := 0
		if dir != nil {
			count = dir.Len()
		}
		_ = s.wrap(err).Log(
			"method", "Companies",
			"companies", count,
			"err", err,
			"elapsed", time.Since(begin),
		)
	}(time.Now())
	return s.svc.Companies(ctx)
}

func (s *loggingMiddleware) Dashboard(ctx context.Context, req *DashboardRequest) (d *Dashboard, err error) {
	defer func(begin time.Time) {
		keyvals := []interface{}{
			"method", "Dashboard",
			"symbol", req.Symbol,
			"window", req.Window,
		}
		if d != nil {
			keyvals = append(keyvals, "ticker", d.Ticker, "rows", d.Display.Len(), "total", d.Total)
		}
		keyvals = append(keyvals, "err", err, "elapsed", time.Since(begin))
		_ = s.wrap(err).Log(keyvals...)
	}(time.Now())
	return s.svc.Dashboard(ctx, req)
}

func (s *loggingMiddleware) wrap(err error) log.Logger {
	lvl := level.Debug
	if err != nil {
		lvl = level.Error
	}
	return lvl(s.logger)
}

// NewLoggingMiddleware ...
func NewLoggingMiddleware(logger log.Logger, svc Service) Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}
