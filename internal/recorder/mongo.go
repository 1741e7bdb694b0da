package recorder

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by MongoRecorder.
const (
	QuotesCollection = "quote_bars"
	ViewsCollection  = "dashboard_views"
)

// MongoRecorder persists history to MongoDB.
type MongoRecorder struct {
	client  *mongo.Client
	quotes  *mongo.Collection
	views   *mongo.Collection
	timeout time.Duration
	logger  log.Logger
}

// NewMongoRecorder connects to uri and checks the connection.
func NewMongoRecorder(ctx context.Context, uri, database string, logger log.Logger) (*MongoRecorder, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(database)
	_ = level.Info(logger).Log("msg", "mongo recorder opened", "database", database)
	return &MongoRecorder{
		client:  client,
		quotes:  db.Collection(QuotesCollection),
		views:   db.Collection(ViewsCollection),
		timeout: 10 * time.Second,
		logger:  logger,
	}, nil
}

func (r *MongoRecorder) RecordQuotes(snap *QuoteSnapshot) error {
	if len(snap.Bars) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	fetchedAt := time.Now()
	docs := make([]interface{}, len(snap.Bars))
	for i, b := range snap.Bars {
		docs[i] = bson.M{
			"ticker":     snap.Ticker,
			"source":     snap.Source,
			"day":        b.Time,
			"open":       nullable(b.Open),
			"high":       nullable(b.High),
			"low":        nullable(b.Low),
			"close":      nullable(b.Close),
			"volume":     nullable(b.Volume),
			"fetched_at": fetchedAt,
		}
	}
	if _, err := r.quotes.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert quotes: %w", err)
	}
	return nil
}

func (r *MongoRecorder) RecordView(evt *ViewEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	_, err := r.views.InsertOne(ctx, bson.M{
		"timestamp":  time.Now(),
		"symbol":     evt.Symbol,
		"ticker":     evt.Ticker,
		"window":     evt.Window,
		"total":      evt.Total,
		"columns":    evt.Columns,
		"last_close": nullable(evt.LastClose),
		"last_day":   evt.LastDate,
		"no_data":    evt.NoData,
	})
	if err != nil {
		return fmt.Errorf("insert view: %w", err)
	}
	return nil
}

func (r *MongoRecorder) Close() error {
	_ = level.Info(r.logger).Log("msg", "closing mongo recorder")
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// nullable maps NaN to a database NULL.
func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
