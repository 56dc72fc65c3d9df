// File: database/repository/notification/interface.go
package notificationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deployhub/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no notification matches the given id.
var ErrNotFound = errors.New("notification not found")

type NotificationRepository interface {
	// Create inserts a new notification record.
	Create(ctx context.Context, n *models.Notification) error
	// GetByID retrieves a notification by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	// Find returns one page of notifications matching the filter and the total match count.
	Find(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int64, error)
	// Update replaces a stored notification with n.
	Update(ctx context.Context, n *models.Notification) error
	// UpdateStatus writes only the delivery fields of n: status, error, processedAt and updatedAt.
	UpdateStatus(ctx context.Context, n *models.Notification) error
	// MarkAllRead flags every unread notification of a user as read and returns the affected count.
	MarkAllRead(ctx context.Context, userID string, types []models.NotificationType, at time.Time) (int64, error)
	// CountUnread counts unread notifications of a user.
	CountUnread(ctx context.Context, userID string, types []models.NotificationType) (int64, error)
	// Delete removes a notification by its ID.
	Delete(ctx context.Context, id string) error
}

type mongoNotificationRepo struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepo constructs a MongoDB NotificationRepository on the given database.
func NewMongoNotificationRepo(db *mongo.Database) NotificationRepository {
	repo := &mongoNotificationRepo{coll: db.Collection("notifications")}
	if err := repo.EnsureIndexes(); err != nil {
		fmt.Printf("failed to create notification indexes: %v\n", err)
	}
	return repo
}
