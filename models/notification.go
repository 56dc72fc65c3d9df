// File: deployhub/models/notification.go
package models

import "time"

type NotificationType string

const (
	NotificationTypeEmail  NotificationType = "EMAIL"
	NotificationTypeSMS    NotificationType = "SMS"
	NotificationTypeSystem NotificationType = "SYSTEM" // in-app + push
)

// Valid reports whether t is one of the known channel types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeEmail, NotificationTypeSMS, NotificationTypeSystem:
		return true
	}
	return false
}

// NotificationScope is the business category of a notification. It selects the email template.
type NotificationScope string

const (
	ScopeDeployment NotificationScope = "DEPLOYMENT"
	ScopePayment    NotificationScope = "PAYMENT"
	ScopeOrder      NotificationScope = "ORDER"
	ScopeSale       NotificationScope = "SALE"
	ScopeProjects   NotificationScope = "PROJECTS"
	ScopeLicenses   NotificationScope = "LICENSES"
	ScopeWelcome    NotificationScope = "WELCOME"
	ScopeAccount    NotificationScope = "ACCOUNT"
)

type NotificationStatus string

const (
	StatusPending    NotificationStatus = "pending"
	StatusProcessing NotificationStatus = "processing"
	StatusDelivered  NotificationStatus = "delivered"
	StatusFailed     NotificationStatus = "failed"
)

// Notification is one attempted communication with a user over a single channel.
type Notification struct {
	ID          string             `bson:"id" json:"id"`
	Type        NotificationType   `bson:"type" json:"type"`
	Scope       NotificationScope  `bson:"scope,omitempty" json:"scope,omitempty"`
	UserID      string             `bson:"userId" json:"userId"`
	Recipient   string             `bson:"recipient,omitempty" json:"recipient,omitempty"`
	Subject     string             `bson:"subject,omitempty" json:"subject,omitempty"`
	Message     string             `bson:"message" json:"message"`
	Template    string             `bson:"template,omitempty" json:"template,omitempty"`
	Data        map[string]any     `bson:"data,omitempty" json:"data,omitempty"`
	Status      NotificationStatus `bson:"status" json:"status"`
	Error       string             `bson:"error,omitempty" json:"error,omitempty"`
	Read        bool               `bson:"read" json:"read"`
	ReadAt      *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
	ProcessedAt *time.Time         `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsTerminal reports whether the record reached delivered or failed.
func (n *Notification) IsTerminal() bool {
	return n.Status == StatusDelivered || n.Status == StatusFailed
}

// CreateNotificationInput carries the fields a producer may set on a new notification.
type CreateNotificationInput struct {
	Type      NotificationType  `json:"type" binding:"required"`
	Scope     NotificationScope `json:"scope,omitempty"`
	UserID    string            `json:"userId" binding:"required"`
	Recipient string            `json:"recipient,omitempty"`
	Subject   string            `json:"subject,omitempty"`
	Message   string            `json:"message" binding:"required"`
	Template  string            `json:"template,omitempty"`
	Data      map[string]any    `json:"data,omitempty"`
}

// UpdateNotificationInput is a partial update; nil fields are left untouched.
type UpdateNotificationInput struct {
	Subject   *string             `json:"subject,omitempty"`
	Message   *string             `json:"message,omitempty"`
	Recipient *string             `json:"recipient,omitempty"`
	Template  *string             `json:"template,omitempty"`
	Data      map[string]any      `json:"data,omitempty"`
	Status    *NotificationStatus `json:"status,omitempty"`
	Error     *string             `json:"error,omitempty"`
	Read      *bool               `json:"read,omitempty"`
}

// NotificationFilter drives list queries. Zero values mean "no constraint".
type NotificationFilter struct {
	UserID        string             `form:"userId"`
	Types         []NotificationType `form:"types"`
	Read          *bool              `form:"read"`
	Status        NotificationStatus `form:"status"`
	Search        string             `form:"search"`
	Template      string             `form:"template"`
	HasError      *bool              `form:"hasError"`
	CreatedFrom   *time.Time         `form:"createdFrom" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedTo     *time.Time         `form:"createdTo" time_format:"2006-01-02T15:04:05Z07:00"`
	ProcessedFrom *time.Time         `form:"processedFrom" time_format:"2006-01-02T15:04:05Z07:00"`
	ProcessedTo   *time.Time         `form:"processedTo" time_format:"2006-01-02T15:04:05Z07:00"`
	ReadFrom      *time.Time         `form:"readFrom" time_format:"2006-01-02T15:04:05Z07:00"`
	ReadTo        *time.Time         `form:"readTo" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string             `form:"sortBy"`
	SortOrder     string             `form:"sortOrder"` // ASC or DESC
	Page          int                `form:"page"`
	Limit         int                `form:"limit"`
}

// NotificationPage is one page of a list query.
type NotificationPage struct {
	Items []Notification `json:"items"`
	Meta  PageMeta       `json:"meta"`
}
