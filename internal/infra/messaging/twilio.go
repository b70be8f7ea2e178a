// Package messaging implements the Messenger on the Twilio WhatsApp REST API.
package messaging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"clustercart/config"
	"clustercart/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const messagesURLFormat = "https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json"

// Params defines the dependencies for the Twilio messenger.
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

type twilioMessenger struct {
	accountSID        string
	authToken         string
	fromNumber        string
	statusCallbackURL string
	endpoint          string
	client            *http.Client
	logger            *slog.Logger
}

// NewTwilioMessenger is the constructor for twilioMessenger.
func NewTwilioMessenger(params Params) (service.Messenger, error) {
	cfg := params.Config.Twilio
	if cfg == nil || cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, errors.New("twilio account sid, auth token and from number are required")
	}

	return &twilioMessenger{
		accountSID:        cfg.AccountSID,
		authToken:         cfg.AuthToken,
		fromNumber:        cfg.FromNumber,
		statusCallbackURL: cfg.StatusCallbackURL,
		endpoint:          strings.Replace(messagesURLFormat, "%s", cfg.AccountSID, 1),
		client:            &http.Client{},
		logger:            params.Logger,
	}, nil
}

// Send delivers a WhatsApp message and returns the provider SID. When the
// media attachment is rejected, the text is retried without it so the member
// still gets a reply.
func (m *twilioMessenger) Send(ctx context.Context, phone string, body string, mediaURL string) (string, error) {
	sid, err := m.send(ctx, phone, body, mediaURL)
	if err != nil && mediaURL != "" {
		m.logger.Warn("media send failed, retrying text-only",
			slog.String("phone", phone), slog.Any("error", err))

		return m.send(ctx, phone, body, "")
	}

	return sid, err
}

func (m *twilioMessenger) send(ctx context.Context, phone string, body string, mediaURL string) (string, error) {
	form := url.Values{}
	form.Set("To", whatsappAddress(phone))
	form.Set("From", whatsappAddress(m.fromNumber))
	form.Set("Body", body)
	if mediaURL != "" {
		form.Set("MediaUrl", mediaURL)
	}
	if m.statusCallbackURL != "" {
		form.Set("StatusCallback", m.statusCallbackURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "failed to create twilio request")
	}
	req.SetBasicAuth(m.accountSID, m.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "twilio request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read twilio response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var twilioErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &twilioErr) == nil && twilioErr.Message != "" {
			return "", errors.Errorf("twilio error (%d/%d): %s", resp.StatusCode, twilioErr.Code, twilioErr.Message)
		}

		return "", errors.Errorf("twilio error (%d): %s", resp.StatusCode, string(respBody))
	}

	var message struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(respBody, &message); err != nil {
		return "", errors.Wrap(err, "failed to decode twilio response")
	}

	return message.SID, nil
}

// whatsappAddress prefixes the channel scheme Twilio expects and restores the
// leading + that phone normalization may have stripped.
func whatsappAddress(phone string) string {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "whatsapp:")
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	return "whatsapp:" + phone
}
