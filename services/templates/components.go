package templates

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type block func(w io.Writer) error

func layout(title string, blocks ...block) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title></head>`+
				`<body style="font-family:Arial,sans-serif;color:#1f2933;max-width:600px;margin:0 auto;padding:24px">`+
				`<h1 style="font-size:20px">%s</h1>`,
			templ.EscapeString(title), templ.EscapeString(title)); err != nil {
			return err
		}
		for _, b := range blocks {
			if b == nil {
				continue
			}
			if err := b(w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<p style="font-size:12px;color:#7b8794">DeployHub</p></body></html>`)
		return err
	})
}

func paragraph(text string) block {
	if text == "" {
		return nil
	}
	return func(w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(text))
		return err
	}
}

func details(rows ...[2]string) block {
	return func(w io.Writer) error {
		if _, err := io.WriteString(w, `<table style="border-collapse:collapse">`); err != nil {
			return err
		}
		for _, r := range rows {
			if r[1] == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, `<tr><td style="padding:4px 12px 4px 0"><strong>%s</strong></td><td>%s</td></tr>`,
				templ.EscapeString(r[0]), templ.EscapeString(r[1])); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table>`)
		return err
	}
}

func button(label, href string) block {
	if href == "" {
		return nil
	}
	return func(w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p><a href="%s" style="background:#2563eb;color:#fff;padding:10px 16px;text-decoration:none;border-radius:4px">%s</a></p>`,
			templ.EscapeString(string(templ.URL(href))), templ.EscapeString(label))
		return err
	}
}

func row(label, value string) [2]string { return [2]string{label, value} }

// str reads a data value as display text.
func str(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format("January 2, 2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format("January 2, 2006")
	case primitive.DateTime:
		// Dates inside Data decode from Mongo as primitive.DateTime.
		return t.Time().UTC().Format("January 2, 2006")
	case float64:
		return fmt.Sprintf("%.2f", t)
	case float32:
		return fmt.Sprintf("%.2f", t)
	default:
		return fmt.Sprint(t)
	}
}

func money(data map[string]any) string {
	amount := str(data, "amount")
	if amount == "" {
		return ""
	}
	return strings.TrimSpace(amount + " " + strings.ToUpper(str(data, "currency")))
}

func titleOr(data map[string]any, fallback string) string {
	if t := str(data, "title"); t != "" {
		return t
	}
	return fallback
}

// Fallback is the generic body used when a named template cannot be rendered.
func Fallback(title, message string, data map[string]any) templ.Component {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "title" || k == "message" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][2]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, row(k, str(data, k)))
	}
	return layout(title, paragraph(message), details(rows...))
}
