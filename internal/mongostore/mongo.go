// Package mongostore is the MongoDB implementation of the booking store.
// Appointment writes run in a session transaction that bumps a per-day
// guard document, so two transactions writing the same professional's day
// always conflict and one of them re-runs its check.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"beautybook/internal/store"
)

const (
	professionalsColl = "professionals"
	treatmentsColl    = "treatments"
	appointmentsColl  = "appointments"
	guardsColl        = "day_guards"
)

type Store struct {
	client        *mongo.Client
	professionals *mongo.Collection
	treatments    *mongo.Collection
	appointments  *mongo.Collection
	guards        *mongo.Collection
	logger        *zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, pings the server and ensures indexes. Transactions
// need a replica set; a standalone server fails on the first booking.
func Connect(ctx context.Context, uri, database string, logger *zerolog.Logger) (*Store, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:        client,
		professionals: db.Collection(professionalsColl),
		treatments:    db.Collection(treatmentsColl),
		appointments:  db.Collection(appointmentsColl),
		guards:        db.Collection(guardsColl),
		logger:        logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info().Str("database", database).Msg("Connected to mongo")
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.appointments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "professional_id", Value: 1}, {Key: "date", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes every collection. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	for _, c := range []*mongo.Collection{s.professionals, s.treatments, s.appointments, s.guards} {
		if err := c.Drop(ctx); err != nil {
			return err
		}
	}
	return s.ensureIndexes(ctx)
}

func notFound(err error, what, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", what, id, store.ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", what, id, err)
}
