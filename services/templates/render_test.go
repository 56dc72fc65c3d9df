package templates

import (
	"context"
	"testing"
	"time"

	"deployhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRenderTemplate_AllRegistered(t *testing.T) {
	data := map[string]any{
		"title":       "Hello",
		"message":     "Body text",
		"projectName": "Atlas",
	}
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			html, err := RenderTemplate(context.Background(), name, data)
			require.NoError(t, err)
			assert.Contains(t, html, "<title>Hello</title>")
			assert.Contains(t, html, "Body text")
		})
	}
}

func TestRenderTemplate_Unknown(t *testing.T) {
	_, err := RenderTemplate(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderTemplate_EscapesData(t *testing.T) {
	html, err := RenderTemplate(context.Background(), "order-notification", map[string]any{
		"message":     "<script>alert(1)</script>",
		"projectName": "A & B",
		"amount":      49.5,
		"currency":    "usd",
	})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "A &amp; B")
	assert.Contains(t, html, "49.50 USD")
}

func TestRenderTemplate_LicenseDate(t *testing.T) {
	expires := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	html, err := RenderTemplate(context.Background(), "license-notification", map[string]any{
		"expiresAt": expires,
		"daysLeft":  7,
	})
	require.NoError(t, err)
	assert.Contains(t, html, "March 4, 2026")
	assert.Contains(t, html, ">7<")
}

func TestRenderTemplate_DatesStoredInMongo(t *testing.T) {
	expires := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(models.Notification{
		ID:   "n-1",
		Data: map[string]any{"expiresAt": expires, "daysLeft": 1},
	})
	require.NoError(t, err)

	var stored models.Notification
	require.NoError(t, bson.Unmarshal(raw, &stored))
	require.IsType(t, primitive.DateTime(0), stored.Data["expiresAt"])

	html, err := RenderTemplate(context.Background(), "license-notification", stored.Data)
	require.NoError(t, err)
	assert.Contains(t, html, "October 19, 2026")
	assert.NotContains(t, html, "1792411200000")

	changed, err := RenderTemplate(context.Background(), "account-notification",
		map[string]any{"changedAt": primitive.NewDateTimeFromTime(expires)})
	require.NoError(t, err)
	assert.Contains(t, changed, "October 19, 2026")
}

func TestButton_RejectsUnsafeURL(t *testing.T) {
	html, err := RenderTemplate(context.Background(), "deployment-notification", map[string]any{
		"url": "javascript:alert(1)",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "javascript:")
}

func TestFallback(t *testing.T) {
	html, err := Render(context.Background(), Fallback("Subject", "Plain message", map[string]any{
		"orderId": "o-1",
		"title":   "ignored",
	}))
	require.NoError(t, err)

	assert.Contains(t, html, "<h1 style=\"font-size:20px\">Subject</h1>")
	assert.Contains(t, html, "Plain message")
	assert.Contains(t, html, "orderId")
	assert.Contains(t, html, "o-1")
	assert.NotContains(t, html, "ignored")
}
