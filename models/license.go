// File: deployhub/models/license.go
package models

import "time"

// LicenseOption is a purchasable license attached to a project.
type LicenseOption struct {
	ID           string  `bson:"id" json:"id"`
	ProjectID    string  `bson:"projectId" json:"projectId"`
	ProjectName  string  `bson:"projectName" json:"projectName"`
	Name         string  `bson:"name" json:"name"`
	Price        float64 `bson:"price" json:"price"`
	Currency     string  `bson:"currency" json:"currency"`
	DurationDays int     `bson:"durationDays" json:"durationDays"`
}

// UserLicense is a license a buyer owns. ExpiresAt is nil for perpetual licenses.
type UserLicense struct {
	ID              string     `bson:"id" json:"id"`
	UserID          string     `bson:"userId" json:"userId"`
	LicenseOptionID string     `bson:"licenseOptionId" json:"licenseOptionId"`
	Active          bool       `bson:"active" json:"active"`
	ExpiresAt       *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt" json:"updatedAt"`
}
