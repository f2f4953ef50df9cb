package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"CampusSOS/pkg/logger"

	"go.uber.org/zap"
)

// Notifier pushes an emergency message to the security desk. Providers
// are fire-and-forget: a failed notification is logged, never retried,
// and never blocks the alert flow.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Multi fans a notification out to every configured provider.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, body string) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, title, body); err != nil {
			logger.Warn("notification provider failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SMSClient is the provider SDK seam; the real gateway client is
// injected at boot, tests inject a recorder.
type SMSClient interface {
	Send(ctx context.Context, phone, message string) error
}

type SMSConfig struct {
	Phones []string // security staff on call
}

type SMS struct {
	cfg SMSConfig
	cli SMSClient
}

func NewSMS(cfg SMSConfig, cli SMSClient) *SMS { return &SMS{cfg: cfg, cli: cli} }

func (s *SMS) Notify(ctx context.Context, title, body string) error {
	if s.cli == nil {
		return fmt.Errorf("sms client not configured")
	}
	msg := title + ": " + body
	var firstErr error
	for _, phone := range s.cfg.Phones {
		if err := s.cli.Send(ctx, phone, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// HTTPGatewayClient posts messages to an internal SMS gateway.
type HTTPGatewayClient struct {
	URL    string
	Client *http.Client
}

func NewHTTPGatewayClient(url string) *HTTPGatewayClient {
	return &HTTPGatewayClient{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (c *HTTPGatewayClient) Send(ctx context.Context, phone, message string) error {
	payload, _ := json.Marshal(map[string]string{"phone": phone, "message": message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %s", resp.Status)
	}
	return nil
}

// PushClient is the mobile push seam for the security staff app.
type PushClient interface {
	Push(ctx context.Context, title, body string, extras map[string]interface{}) error
}

type Push struct {
	cli    PushClient
	extras map[string]interface{}
}

func NewPush(cli PushClient) *Push { return &Push{cli: cli} }

func (p *Push) Notify(ctx context.Context, title, body string) error {
	if p.cli == nil {
		return fmt.Errorf("push client not configured")
	}
	return p.cli.Push(ctx, title, body, p.extras)
}
