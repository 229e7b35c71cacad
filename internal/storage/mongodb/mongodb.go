package mongodb

import (
	"context"
	"errors"
	"fmt"
	"shop/internal/domain/models"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Storage keeps users, roles and refresh tokens in MongoDB.
type Storage struct {
	client   *mongo.Client
	database *mongo.Database
	users    *mongo.Collection
	roles    *mongo.Collection
	counters *mongo.Collection
	tokens   *mongo.Collection
}

type counterDoc struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

var defaultRoles = []models.Role{
	{Name: models.RoleAdmin, Description: "Manages users and the catalog"},
	{Name: models.RoleManager, Description: "Manages the catalog"},
	{Name: models.RoleCustomer, Description: "Default role for self registered users"},
}

// New creates a new MongoDB storage instance, sets up indexes and seeds roles.
func New(ctx context.Context, uri, database string) (*Storage, error) {
	const op = "storage.mongodb.New"

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	db := client.Database(database)
	s := &Storage{
		client:   client,
		database: db,
		users:    db.Collection("users"),
		roles:    db.Collection("roles"),
		counters: db.Collection("counters"),
		tokens:   db.Collection("refresh_tokens"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("%s: indexes: %w", op, err)
	}

	if err := s.ensureRoles(ctx); err != nil {
		return nil, fmt.Errorf("%s: roles: %w", op, err)
	}

	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users.email index: %w", err)
	}

	_, err = s.roles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("roles.name index: %w", err)
	}

	_, err = s.tokens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("refresh_tokens.user_id index: %w", err)
	}

	// expired tokens are purged by the server; they are rejected by the exp claim before lookup anyway
	_, err = s.tokens.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("refresh_tokens.expires_at TTL index: %w", err)
	}

	return nil
}

func (s *Storage) ensureRoles(ctx context.Context) error {
	for _, role := range defaultRoles {
		filter := bson.D{{Key: "name", Value: role.Name}}
		var existing roleDoc
		err := s.roles.FindOne(ctx, filter).Decode(&existing)
		if err == nil {
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}

		id, err := s.nextID(ctx, "roles")
		if err != nil {
			return err
		}

		_, err = s.roles.InsertOne(ctx, roleDoc{ID: id, Name: role.Name, Description: role.Description})
		if err != nil && !isDuplicateKeyError(err) {
			return err
		}
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// nextID atomically increments and returns the next ID for a given collection.
func (s *Storage) nextID(ctx context.Context, collectionName string) (int64, error) {
	filter := bson.D{{Key: "_id", Value: collectionName}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "value", Value: int64(1)}}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter counterDoc
	err := s.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// isDuplicateKeyError checks if the error is a MongoDB duplicate key error (code 11000).
func isDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
