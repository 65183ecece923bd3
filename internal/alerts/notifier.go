// Package alerts notifies operators when the insight collection cannot be served.
package alerts

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	awsclient "hms-analytics/internal/common/aws"
	"hms-analytics/internal/common/config"
	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/common/logger"

	"github.com/google/uuid"
)

const (
	ChannelSNS = "sns"
	ChannelSES = "ses"
)

// Notifier publishes DataUnavailable alerts to SNS and/or SES, at most once per cooldown.
type Notifier struct {
	cfg      config.AlertsConfig
	service  string
	sns      awsclient.SNSService
	ses      awsclient.SESService
	logger   logger.Logger
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSent time.Time
}

// New builds a Notifier with AWS clients for the enabled channels. With no channel
// enabled it returns a Notifier that does nothing and never touches AWS.
func New(ctx context.Context, cfg config.AlertsConfig, service string, log logger.Logger) (*Notifier, error) {
	var (
		snsSvc awsclient.SNSService
		sesSvc awsclient.SESService
	)
	if cfg.SNS.Enabled || cfg.SES.Enabled {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		if cfg.SNS.Enabled {
			snsSvc = awsclient.NewSNSClient(awsCfg)
		}
		if cfg.SES.Enabled {
			sesSvc = awsclient.NewSESClient(awsCfg)
		}
	}
	return NewWithClients(cfg, service, snsSvc, sesSvc, log), nil
}

// NewWithClients builds a Notifier around existing clients. A nil client disables its channel.
func NewWithClients(cfg config.AlertsConfig, service string, snsSvc awsclient.SNSService, sesSvc awsclient.SESService, log logger.Logger) *Notifier {
	if !cfg.SNS.Enabled {
		snsSvc = nil
	}
	if !cfg.SES.Enabled {
		sesSvc = nil
	}
	return &Notifier{
		cfg:      cfg,
		service:  service,
		sns:      snsSvc,
		ses:      sesSvc,
		logger:   log.WithFields(map[string]interface{}{"component": "alerts"}),
		cooldown: config.GetDuration(cfg.Cooldown),
		now:      time.Now,
	}
}

// Enabled reports whether any channel is configured.
func (n *Notifier) Enabled() bool {
	return n.sns != nil || n.ses != nil
}

// NotifyDataUnavailable sends one alert describing cause. Calls inside the cooldown window
// after a successful send are dropped.
func (n *Notifier) NotifyDataUnavailable(ctx context.Context, cause error) error {
	if !n.Enabled() {
		return nil
	}

	now := n.now()
	n.mu.Lock()
	if !n.lastSent.IsZero() && now.Sub(n.lastSent) < n.cooldown {
		n.mu.Unlock()
		n.logger.Debug("alert suppressed by cooldown", map[string]interface{}{
			"lastSent": n.lastSent.UTC().Format(time.RFC3339),
		})
		return nil
	}
	previous := n.lastSent
	n.lastSent = now
	n.mu.Unlock()

	alertID := uuid.New().String()
	subject, body := n.render(alertID, now, cause)

	var failures []error
	sent := 0

	if n.sns != nil {
		msgID, err := awsclient.PublishToTopic(ctx, n.sns, n.cfg.SNS.TopicARN, subject, body)
		if err != nil {
			failures = append(failures, errors.NewNotificationSendFailedError(ChannelSNS, err))
		} else {
			sent++
			n.logger.Info("alert published", map[string]interface{}{"alertId": alertID, "channel": ChannelSNS, "messageId": msgID})
		}
	}

	if n.ses != nil {
		msgID, err := awsclient.SendTextEmail(ctx, n.ses, n.cfg.SES.FromEmail, n.cfg.SES.ToEmails, subject, body)
		if err != nil {
			failures = append(failures, errors.NewNotificationSendFailedError(ChannelSES, err))
		} else {
			sent++
			n.logger.Info("alert published", map[string]interface{}{"alertId": alertID, "channel": ChannelSES, "messageId": msgID})
		}
	}

	if sent == 0 {
		// Nothing went out, so the next failure may try again.
		n.mu.Lock()
		if n.lastSent.Equal(now) {
			n.lastSent = previous
		}
		n.mu.Unlock()
	}

	return stderrors.Join(failures...)
}

func (n *Notifier) render(alertID string, at time.Time, cause error) (string, string) {
	stdErr := errors.Normalize(cause)
	subject := fmt.Sprintf("[%s] Insight data unavailable", n.service)

	var b strings.Builder
	fmt.Fprintf(&b, "The doctor-patient insights endpoint could not serve its collection.\n\n")
	fmt.Fprintf(&b, "Alert ID:   %s\n", alertID)
	fmt.Fprintf(&b, "Service:    %s\n", n.service)
	fmt.Fprintf(&b, "Time:       %s\n", at.UTC().Format(time.RFC3339))
	if stdErr != nil {
		fmt.Fprintf(&b, "Error code: %s\n", stdErr.Code)
		if stdErr.Details != "" {
			fmt.Fprintf(&b, "Details:    %s\n", stdErr.Details)
		}
	}
	fmt.Fprintf(&b, "\nRegenerate the fixture with the regenerate-insights job or fixture-generator.\n")
	return subject, b.String()
}
