package mongodb

import (
	"context"
	"errors"
	"fmt"
	"shop/internal/domain/models"
	"shop/internal/storage"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type refreshTokenDoc struct {
	ID        int64     `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	Revoked   bool      `bson:"revoked"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d *refreshTokenDoc) toDomain() *models.RefreshToken {
	return &models.RefreshToken{
		ID:        d.ID,
		UserID:    d.UserID,
		Revoked:   d.Revoked,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
	}
}

// SaveRefreshToken stores a new live refresh token record.
func (s *Storage) SaveRefreshToken(
	ctx context.Context,
	userID int64,
	expiresAt time.Time,
) (*models.RefreshToken, error) {
	const op = "storage.mongodb.SaveRefreshToken"

	id, err := s.nextID(ctx, "refresh_tokens")
	if err != nil {
		return nil, fmt.Errorf("%s: nextID: %w", op, err)
	}

	doc := refreshTokenDoc{
		ID:        id,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC().Truncate(time.Millisecond),
		CreatedAt: now(),
	}

	if _, err := s.tokens.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toDomain(), nil
}

// RefreshToken retrieves a refresh token record by its id.
func (s *Storage) RefreshToken(ctx context.Context, id int64) (*models.RefreshToken, error) {
	const op = "storage.mongodb.RefreshToken"

	var doc refreshTokenDoc
	err := s.tokens.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrRefreshTokenNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toDomain(), nil
}

func (s *Storage) RevokeRefreshToken(ctx context.Context, id int64) (int64, error) {
	const op = "storage.mongodb.RevokeRefreshToken"

	res, err := s.tokens.UpdateOne(
		ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "revoked", Value: true}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return res.MatchedCount, nil
}

func (s *Storage) DeleteRefreshToken(ctx context.Context, id int64) error {
	const op = "storage.mongodb.DeleteRefreshToken"

	if _, err := s.tokens.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
