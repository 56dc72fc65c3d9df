package notificationRepo

import (
	"regexp"
	"strings"
	"time"

	"deployhub/models"

	"go.mongodb.org/mongo-driver/bson"
)

// sortable maps accepted sort keys to document fields.
var sortable = map[string]string{
	"createdAt":   "createdAt",
	"updatedAt":   "updatedAt",
	"processedAt": "processedAt",
	"readAt":      "readAt",
	"status":      "status",
	"type":        "type",
}

// sortSpec returns the document field to sort on and whether the order is descending.
// Unknown fields fall back to createdAt; the order defaults to descending.
func sortSpec(f models.NotificationFilter) (string, bool) {
	field, ok := sortable[f.SortBy]
	if !ok {
		field = "createdAt"
	}
	return field, !strings.EqualFold(f.SortOrder, "ASC")
}

func buildFilter(f models.NotificationFilter) bson.M {
	filter := bson.M{}

	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if len(f.Types) > 0 {
		filter["type"] = bson.M{"$in": f.Types}
	}
	if f.Read != nil {
		filter["read"] = *f.Read
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Template != "" {
		filter["template"] = f.Template
	}
	if f.Search != "" {
		filter["message"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	if f.HasError != nil {
		if *f.HasError {
			filter["error"] = bson.M{"$exists": true, "$ne": ""}
		} else {
			filter["error"] = bson.M{"$in": []any{nil, ""}}
		}
	}

	addRange(filter, "createdAt", f.CreatedFrom, f.CreatedTo)
	addRange(filter, "processedAt", f.ProcessedFrom, f.ProcessedTo)
	addRange(filter, "readAt", f.ReadFrom, f.ReadTo)

	return filter
}

func addRange(filter bson.M, field string, from, to *time.Time) {
	if from == nil && to == nil {
		return
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = *from
	}
	if to != nil {
		r["$lte"] = *to
	}
	filter[field] = r
}

// unreadFilter selects the unread notifications of a user, optionally restricted to types.
func unreadFilter(userID string, types []models.NotificationType) bson.M {
	filter := bson.M{"userId": userID, "read": false}
	if len(types) > 0 {
		filter["type"] = bson.M{"$in": types}
	}
	return filter
}

// matches is the in-memory counterpart of buildFilter.
func matches(n *models.Notification, f models.NotificationFilter) bool {
	if f.UserID != "" && n.UserID != f.UserID {
		return false
	}
	if len(f.Types) > 0 && !hasType(f.Types, n.Type) {
		return false
	}
	if f.Read != nil && n.Read != *f.Read {
		return false
	}
	if f.Status != "" && n.Status != f.Status {
		return false
	}
	if f.Template != "" && n.Template != f.Template {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(n.Message), strings.ToLower(f.Search)) {
		return false
	}
	if f.HasError != nil && (n.Error != "") != *f.HasError {
		return false
	}
	if !inRange(&n.CreatedAt, f.CreatedFrom, f.CreatedTo) {
		return false
	}
	if !inRange(n.ProcessedAt, f.ProcessedFrom, f.ProcessedTo) {
		return false
	}
	return inRange(n.ReadAt, f.ReadFrom, f.ReadTo)
}

func hasType(types []models.NotificationType, t models.NotificationType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func inRange(v *time.Time, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if v == nil {
		return false
	}
	if from != nil && v.Before(*from) {
		return false
	}
	if to != nil && v.After(*to) {
		return false
	}
	return true
}
