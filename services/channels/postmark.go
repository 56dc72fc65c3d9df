package channels

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mrz1836/postmark"
)

type postmarkSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkTransport sends mail through Postmark's transactional API.
type PostmarkTransport struct {
	client  postmarkSender
	from    string
	replyTo string
}

func NewPostmarkTransport(serverToken, accountToken, from, replyTo string) (*PostmarkTransport, error) {
	if serverToken == "" {
		return nil, fmt.Errorf("postmark: server token is required")
	}
	if from == "" {
		return nil, fmt.Errorf("postmark: sender email is required")
	}
	return &PostmarkTransport{
		client:  postmark.NewClient(serverToken, accountToken),
		from:    from,
		replyTo: replyTo,
	}, nil
}

func (t *PostmarkTransport) SendMail(ctx context.Context, mail Mail) (string, error) {
	email := postmark.Email{
		From:       t.from,
		ReplyTo:    t.replyTo,
		To:         mail.To,
		Subject:    mail.Subject,
		Tag:        mail.Tag,
		HTMLBody:   mail.HTML,
		TextBody:   mail.Text,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	}
	for _, a := range mail.Attachments {
		email.Attachments = append(email.Attachments, postmark.Attachment{
			Name:        a.Name,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			ContentType: a.ContentType,
		})
	}

	resp, err := t.client.SendEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if resp.ErrorCode > 0 {
		return "", fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return resp.MessageID, nil
}
