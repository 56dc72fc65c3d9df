package licenseRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deployhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (r *mongoLicenseRepo) Create(ctx context.Context, l *models.UserLicense) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	if _, err := r.licenses.InsertOne(ctx, l); err != nil {
		return fmt.Errorf("failed to create user license: %w", err)
	}
	return nil
}

func (r *mongoLicenseRepo) Update(ctx context.Context, l *models.UserLicense) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	l.UpdatedAt = time.Now()
	result, err := r.licenses.ReplaceOne(ctx, bson.M{"id": l.ID}, l)
	if err != nil {
		return fmt.Errorf("failed to update user license %s: %w", l.ID, err)
	}
	if result.MatchedCount == 0 {
		return ErrLicenseNotFound
	}
	return nil
}

func (r *mongoLicenseRepo) ActiveExpiringBetween(ctx context.Context, from, to time.Time) ([]models.UserLicense, error) {
	filter := bson.M{
		"active":    true,
		"expiresAt": bson.M{"$gte": from, "$lt": to},
	}
	return r.find(ctx, filter)
}

func (r *mongoLicenseRepo) ActiveExpiredBefore(ctx context.Context, t time.Time) ([]models.UserLicense, error) {
	filter := bson.M{
		"active":    true,
		"expiresAt": bson.M{"$lt": t},
	}
	return r.find(ctx, filter)
}

func (r *mongoLicenseRepo) find(ctx context.Context, filter bson.M) ([]models.UserLicense, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.licenses.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query user licenses: %w", err)
	}
	defer cursor.Close(ctx)

	var licenses []models.UserLicense
	if err := cursor.All(ctx, &licenses); err != nil {
		return nil, fmt.Errorf("failed to decode user licenses: %w", err)
	}
	return licenses, nil
}

func (r *mongoLicenseRepo) CreateOption(ctx context.Context, o *models.LicenseOption) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.options.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("failed to create license option: %w", err)
	}
	return nil
}

func (r *mongoLicenseRepo) GetOption(ctx context.Context, id string) (*models.LicenseOption, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o models.LicenseOption
	if err := r.options.FindOne(ctx, bson.M{"id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOptionNotFound
		}
		return nil, fmt.Errorf("failed to fetch license option %s: %w", id, err)
	}
	return &o, nil
}
