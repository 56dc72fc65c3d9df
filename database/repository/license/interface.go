// File: database/repository/license/interface.go
package licenseRepo

import (
	"context"
	"errors"
	"time"

	"deployhub/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrLicenseNotFound = errors.New("user license not found")
	ErrOptionNotFound  = errors.New("license option not found")
)

type LicenseRepository interface {
	// Create inserts a user license.
	Create(ctx context.Context, l *models.UserLicense) error
	// Update replaces a stored user license with l.
	Update(ctx context.Context, l *models.UserLicense) error
	// ActiveExpiringBetween lists active licenses with from <= expiresAt < to.
	ActiveExpiringBetween(ctx context.Context, from, to time.Time) ([]models.UserLicense, error)
	// ActiveExpiredBefore lists active licenses with expiresAt < t.
	ActiveExpiredBefore(ctx context.Context, t time.Time) ([]models.UserLicense, error)
	// CreateOption inserts a license option.
	CreateOption(ctx context.Context, o *models.LicenseOption) error
	// GetOption retrieves a license option by its ID.
	GetOption(ctx context.Context, id string) (*models.LicenseOption, error)
}

type mongoLicenseRepo struct {
	licenses *mongo.Collection
	options  *mongo.Collection
}

// NewMongoLicenseRepo constructs a MongoDB LicenseRepository on the given database.
func NewMongoLicenseRepo(db *mongo.Database) LicenseRepository {
	return &mongoLicenseRepo{
		licenses: db.Collection("user_licenses"),
		options:  db.Collection("license_options"),
	}
}
