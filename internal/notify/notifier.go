// Package notify delivers captured leads to the sales team over e-mail and
// an optional chat webhook. From the booking flow's point of view delivery
// is fire-and-forget: failures are reported but never fail the turn.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"lead-agent/internal/domain"
)

const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// sesAPI is the minimal SES interface required by Notifier.
// *sesv2.Client from aws-sdk-go-v2 satisfies this interface.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifier sends a lead to the configured channels.
type Notifier struct {
	ses        sesAPI
	sender     string
	recipient  string
	webhookURL string
	httpClient *http.Client
}

type Option func(*Notifier)

// WithWebhook enables the chat-webhook channel.
func WithWebhook(url string) Option {
	return func(n *Notifier) {
		n.webhookURL = strings.TrimSpace(url)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(n *Notifier) {
		n.httpClient = httpClient
	}
}

// New creates a Notifier sending from sender to recipient via SES.
func New(ses sesAPI, sender, recipient string, opts ...Option) (*Notifier, error) {
	if ses == nil {
		return nil, errors.New("notify: ses api must not be nil")
	}
	if strings.TrimSpace(sender) == "" {
		return nil, errors.New("notify: sender address must not be empty")
	}
	if strings.TrimSpace(recipient) == "" {
		return nil, errors.New("notify: recipient address must not be empty")
	}
	n := &Notifier{
		ses:        ses,
		sender:     strings.TrimSpace(sender),
		recipient:  strings.TrimSpace(recipient),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Channels lists the channels this notifier will deliver to. The lead-sync
// duplicate window is keyed by normalized e-mail plus these values.
func (n *Notifier) Channels() []string {
	channels := []string{ChannelEmail}
	if n.webhookURL != "" {
		channels = append(channels, ChannelWebhook)
	}
	return channels
}

// Notify delivers the lead to every configured channel. The first failure
// is returned but later channels are still attempted.
func (n *Notifier) Notify(ctx context.Context, lead domain.Lead) error {
	var firstErr error
	if err := n.sendEmail(ctx, lead); err != nil {
		firstErr = err
	}
	if n.webhookURL != "" {
		if err := n.postWebhook(ctx, lead); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (n *Notifier) sendEmail(ctx context.Context, lead domain.Lead) error {
	subject := fmt.Sprintf("Demo request from %s", lead.Name)
	body := leadBody(lead)

	_, err := n.ses.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.sender),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.recipient},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}
	return nil
}

func (n *Notifier) postWebhook(ctx context.Context, lead domain.Lead) error {
	payload, err := json.Marshal(map[string]string{"text": leadBody(lead)})
	if err != nil {
		return fmt.Errorf("notify: marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned status %d", res.StatusCode)
	}
	return nil
}

func leadBody(lead domain.Lead) string {
	message := lead.Message
	if strings.TrimSpace(message) == "" {
		message = "-"
	}
	return strings.Join([]string{
		"Demo request from chatbot",
		"",
		"Name: " + lead.Name,
		"Email: " + lead.NormalizedEmail(),
		"Company: " + lead.Company,
		"",
		"User message: " + message,
		"",
		"Interested in scheduling a demo / discovery call.",
	}, "\n")
}
