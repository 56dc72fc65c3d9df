package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/a-h/templ"
)

var ErrTemplateNotFound = errors.New("email template not found")

// Template builds an email body from the notification data payload.
type Template func(data map[string]any) templ.Component

var registry = map[string]Template{
	"deployment-notification": deploymentEmail,
	"payment-notification":    paymentEmail,
	"order-notification":      orderEmail,
	"sale-notification":       saleEmail,
	"project-notification":    projectEmail,
	"license-notification":    licenseEmail,
	"welcome":                 welcomeEmail,
	"account-notification":    accountEmail,
}

// Lookup returns the template registered under name.
func Lookup(name string) (Template, bool) {
	t, ok := registry[name]
	return t, ok
}

// Names lists the registered template names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Render takes a templ.Component and renders it to a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderTemplate renders the named template against data.
func RenderTemplate(ctx context.Context, name string, data map[string]any) (string, error) {
	t, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return Render(ctx, t(data))
}
