// File: deployhub/models/events.go
package models

import "time"

// Domain event names emitted by business modules.
const (
	EventOrderCreated        = "order.created"
	EventOrderCompleted      = "order.completed"
	EventPaymentFailed       = "payment.failed"
	EventDeploymentStarted   = "deployment.started"
	EventDeploymentCompleted = "deployment.completed"
	EventDeploymentFailed    = "deployment.failed"
	EventProjectApproved     = "project.approved"
	EventProjectRejected     = "project.rejected"
	EventUserCreated         = "user.created"
	EventUserPasswordChanged = "user.password_changed"
)

type OrderCreatedEvent struct {
	OrderID     string
	BuyerID     string
	BuyerEmail  string
	ProjectName string
	LicenseName string
	Amount      float64
	Currency    string
}

type OrderCompletedEvent struct {
	OrderID           string
	BuyerID           string
	BuyerEmail        string
	LicenseOwnerID    string
	LicenseOwnerEmail string
	ProjectName       string
	LicenseName       string
	Amount            float64
	Currency          string
}

type PaymentFailedEvent struct {
	OrderID    string
	PaymentID  string
	BuyerID    string
	BuyerEmail string
	Amount     float64
	Currency   string
	Reason     string
}

type DeploymentStartedEvent struct {
	DeploymentID string
	UserID       string
	UserEmail    string
	ProjectName  string
	Environment  string
}

type DeploymentCompletedEvent struct {
	DeploymentID string
	UserID       string
	UserEmail    string
	ProjectName  string
	Environment  string
	URL          string
	Duration     time.Duration
}

type DeploymentFailedEvent struct {
	DeploymentID string
	UserID       string
	UserEmail    string
	ProjectName  string
	Environment  string
	Reason       string
}

type ProjectApprovedEvent struct {
	ProjectID   string
	OwnerID     string
	OwnerEmail  string
	ProjectName string
	Comment     string
}

type ProjectRejectedEvent struct {
	ProjectID   string
	OwnerID     string
	OwnerEmail  string
	ProjectName string
	Reason      string
}

type UserCreatedEvent struct {
	UserID   string
	Email    string
	Username string
}

type PasswordChangedEvent struct {
	UserID    string
	Email     string
	ChangedAt time.Time
}
