package mailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/mail.v2"

	"github.com/nurpe/weshare-leasing/internal/config"
)

// Attachment carries inline Content or points at a Path on disk or a URL
// that is fetched at send time.
type Attachment struct {
	Filename string
	Content  []byte
	Path     string
	URL      string
}

type Message struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPSender struct {
	dialer *mail.Dialer
	from   string
	client *http.Client
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.Timeout = 30 * time.Second
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		dialer: dialer,
		from:   from,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("send %q: no recipients", msg.Subject)
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	for _, att := range msg.Attachments {
		data, err := LoadAttachment(ctx, s.client, att)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", att.Filename, err)
		}
		m.Attach(att.Filename, mail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}

	return s.dialer.DialAndSend(m)
}

// LoadAttachment returns the attachment bytes from whichever source is set.
func LoadAttachment(ctx context.Context, client *http.Client, att Attachment) ([]byte, error) {
	switch {
	case len(att.Content) > 0:
		return att.Content, nil
	case att.Path != "":
		return os.ReadFile(att.Path)
	case att.URL != "":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, att.URL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("fetch %s: status %d", att.URL, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	default:
		return nil, fmt.Errorf("attachment has no content")
	}
}

// LogSender stands in when SMTP is not configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("smtp disabled, email not sent")
	return nil
}
