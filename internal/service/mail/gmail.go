package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"VerifyFlow/entity"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Gmail sends through the Gmail API with a stored refresh token.
type Gmail struct {
	from    string
	service *gmail.Service
}

func NewGmail(ctx context.Context, clientID, clientSecret, refreshToken, from string) (*Gmail, error) {
	if clientID == "" || refreshToken == "" {
		return nil, fmt.Errorf("gmail credentials are not configured")
	}
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail client: %w", err)
	}
	return &Gmail{from: from, service: svc}, nil
}

func (g *Gmail) Send(ctx context.Context, msg entity.MailMessage) error {
	raw := base64.URLEncoding.EncodeToString([]byte(BuildMime(g.from, msg)))
	_, err := g.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

// BuildMime renders an RFC 5322 html message.
func BuildMime(from string, msg entity.MailMessage) string {
	var sb strings.Builder
	if from != "" {
		sb.WriteString("From: " + from + "\r\n")
	}
	sb.WriteString("To: " + msg.To + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Html)
	return sb.String()
}
