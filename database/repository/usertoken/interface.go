// File: database/repository/usertoken/interface.go
package usertokenRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deployhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a user has no token registration.
var ErrNotFound = errors.New("user tokens not found")

// UserTokenRepository changes token sets with single atomic writes, so concurrent
// registrations and pruning never overwrite each other.
type UserTokenRepository interface {
	// Get returns the token set of a user.
	Get(ctx context.Context, userID string) (*models.UserToken, error)
	// AddToken adds a token, or refreshes its device metadata when already present.
	// The set is created on first use.
	AddToken(ctx context.Context, userID string, req models.RegisterTokenRequest, now time.Time) (*models.UserToken, error)
	// RemoveTokens drops the given tokens and their devices and returns how many were registered.
	RemoveTokens(ctx context.Context, userID string, tokens []string, now time.Time) (int, error)
	// Delete removes the whole token set of a user.
	Delete(ctx context.Context, userID string) error
}

type mongoUserTokenRepo struct {
	coll *mongo.Collection
}

// NewMongoUserTokenRepo constructs a MongoDB UserTokenRepository on the given database.
func NewMongoUserTokenRepo(db *mongo.Database) UserTokenRepository {
	repo := &mongoUserTokenRepo{coll: db.Collection("user_tokens")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create user token indexes: %v\n", err)
	}
	return repo
}

func (r *mongoUserTokenRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tokens", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *mongoUserTokenRepo) Get(ctx context.Context, userID string) (*models.UserToken, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var t models.UserToken
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch tokens for user %s: %w", userID, err)
	}
	return &t, nil
}

func (r *mongoUserTokenRepo) AddToken(ctx context.Context, userID string, req models.RegisterTokenRequest, now time.Time) (*models.UserToken, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// A concurrent first registration can win the upsert; the loser retries as a refresh.
	for attempt := 0; attempt < 3; attempt++ {
		t, err := r.refreshDevice(ctx, userID, req, now)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to refresh token for user %s: %w", userID, err)
		}

		t, err = r.pushDevice(ctx, userID, req, now)
		if err == nil {
			return t, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to add token for user %s: %w", userID, err)
		}
	}
	return nil, fmt.Errorf("failed to add token for user %s: too much contention", userID)
}

// refreshDevice updates the metadata of an already registered token.
func (r *mongoUserTokenRepo) refreshDevice(ctx context.Context, userID string, req models.RegisterTokenRequest, now time.Time) (*models.UserToken, error) {
	set := bson.M{"devices.$.lastActive": now, "updatedAt": now}
	for field, v := range map[string]string{
		"platform":   req.Platform,
		"browser":    req.Browser,
		"version":    req.Version,
		"deviceName": req.DeviceName,
	} {
		if v != "" {
			set["devices.$."+field] = v
		}
	}

	var t models.UserToken
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "devices.token": req.Token},
		bson.M{"$set": set, "$addToSet": bson.M{"tokens": req.Token}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// pushDevice appends a new token and device, creating the set when the user has none.
func (r *mongoUserTokenRepo) pushDevice(ctx context.Context, userID string, req models.RegisterTokenRequest, now time.Time) (*models.UserToken, error) {
	device := models.DeviceInfo{
		Token:      req.Token,
		Platform:   req.Platform,
		Browser:    req.Browser,
		Version:    req.Version,
		DeviceName: req.DeviceName,
		AddedAt:    now,
		LastActive: now,
	}

	var t models.UserToken
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "devices.token": bson.M{"$ne": req.Token}},
		bson.M{
			"$addToSet":    bson.M{"tokens": req.Token},
			"$push":        bson.M{"devices": device},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"type": models.NotificationTypeSystem, "createdAt": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *mongoUserTokenRepo) RemoveTokens(ctx context.Context, userID string, tokens []string, now time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var before models.UserToken
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "tokens": bson.M{"$in": tokens}},
		bson.M{
			"$pull": bson.M{
				"tokens":  bson.M{"$in": tokens},
				"devices": bson.M{"token": bson.M{"$in": tokens}},
			},
			"$set": bson.M{"updatedAt": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err == nil {
		removed := 0
		for _, t := range tokens {
			if before.HasToken(t) {
				removed++
			}
		}
		return removed, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("failed to remove tokens for user %s: %w", userID, err)
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to check tokens for user %s: %w", userID, err)
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return 0, nil
}

func (r *mongoUserTokenRepo) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete tokens for user %s: %w", userID, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
