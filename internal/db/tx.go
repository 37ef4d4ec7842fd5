package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTx runs functions inside a MongoDB multi-document transaction.
// Requires a replica set; standalone deployments use SequentialTx instead.
type MongoTx struct {
	Client *mongo.Client
}

// WithTransaction runs fn inside one session transaction. The session
// context must be threaded through every store call fn makes.
func (t *MongoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.Client.StartSession()
	if err != nil {
		return fmt.Errorf("starting mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// SequentialTx satisfies TxRunner without transactional guarantees. Each
// row's writes still happen in order, so a failure can leave later rows
// unprocessed but never a half-written row triple out of order.
type SequentialTx struct{}

// WithTransaction runs fn directly.
func (SequentialTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
