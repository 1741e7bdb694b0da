package service

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics"

	"ShareAnalysis/internal/reference"
)

// MethodError are the label names of the request metrics.
var MethodError = []string{"method", "error"}

// instrumentingMiddleware wraps Service and enables request metrics
type instrumentingMiddleware struct {
	reqCount    metrics.Counter
	reqDuration metrics.Histogram
	svc         Service
}

func (s *instrumentingMiddleware) Companies(ctx context.Context) (dir *reference.Directory, err error) {
	defer func(begin time.Time) { s.recordMetrics("Companies", begin, err) }(time.Now())
	return s.svc.Companies(ctx)
}

func (s *instrumentingMiddleware) Dashboard(ctx context.Context, req *DashboardRequest) (d *Dashboard, err error) {
	defer func(begin time.Time) { s.recordMetrics("Dashboard", begin, err) }(time.Now())
	return s.svc.Dashboard(ctx, req)
}

func (s *instrumentingMiddleware) recordMetrics(method string, startTime time.Time, err error) {
	labels := []string{
		"method", method,
		"error", strconv.FormatBool(err != nil),
	}
	s.reqCount.With(labels...).Add(1)
	s.reqDuration.With(labels...).Observe(time.Since(startTime).Seconds())
}

// NewInstrumentingMiddleware ...
func NewInstrumentingMiddleware(reqCount metrics.Counter, reqDuration metrics.Histogram, svc Service) Service {
	return &instrumentingMiddleware{
		reqCount:    reqCount,
		reqDuration: reqDuration,
		svc:         svc,
	}
}
