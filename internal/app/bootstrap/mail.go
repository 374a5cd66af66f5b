package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/howtosavemytime-sys/chatbot-backend/internal/config"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/notify"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// BuildEmailSender picks the mail transport from MAIL_PROVIDER. "auto"
// prefers SMTP when MAIL_HOST is set, then SendGrid, then the stub. It also
// returns the name of the transport that was chosen.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (notify.EmailSender, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	provider := cfg.MailProvider
	if provider == "" || provider == "auto" {
		switch {
		case strings.TrimSpace(cfg.MailHost) != "":
			provider = "smtp"
		case strings.TrimSpace(cfg.SendGridAPIKey) != "":
			provider = "sendgrid"
		default:
			provider = "stub"
		}
	}

	switch provider {
	case "smtp":
		sender := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			User:     cfg.MailUser,
			Password: cfg.MailPassword,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
			StartTLS: cfg.MailStartTLS,
		}, logger)
		if sender == nil {
			return nil, "", fmt.Errorf("bootstrap: MAIL_PROVIDER=smtp requires MAIL_HOST")
		}
		return sender, provider, nil
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.MailFrom,
			FromName:  cfg.MailFromName,
		}, logger)
		if sender == nil {
			return nil, "", fmt.Errorf("bootstrap: MAIL_PROVIDER=sendgrid requires SENDGRID_API_KEY")
		}
		return sender, provider, nil
	case "ses":
		if loadAWS == nil {
			return nil, "", fmt.Errorf("bootstrap: ses requires aws configuration")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.MailFrom,
			FromName:  cfg.MailFromName,
		}, logger)
		return sender, provider, nil
	case "stub":
		logger.Warn("no mail transport configured; booking notifications are logged only")
		return notify.NewStubEmailSender(logger), provider, nil
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown MAIL_PROVIDER %q", provider)
	}
}
