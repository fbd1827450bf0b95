// Package mailtest provides in-process doubles for the mail pipeline.
package mailtest

import (
	"context"
	"errors"
	"sync"

	"github.com/nurpe/weshare-leasing/internal/mailer"
)

// InlineScheduler runs each job as soon as it is enqueued.
type InlineScheduler struct {
	mu   sync.Mutex
	Errs []error
}

func (s *InlineScheduler) Enqueue(job mailer.Job) bool {
	err := job.Run(context.Background())
	s.mu.Lock()
	s.Errs = append(s.Errs, err)
	s.mu.Unlock()
	return true
}

func (s *InlineScheduler) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, err := range s.Errs {
		if err != nil {
			n++
		}
	}
	return n
}

var ErrSMTPDown = errors.New("smtp unreachable")

// RecordingSender keeps every message it is asked to send.
type RecordingSender struct {
	mu   sync.Mutex
	Sent []mailer.Message
	Fail error
}

func (s *RecordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.Sent = append(s.Sent, msg)
	return nil
}

func (s *RecordingSender) To(email string) []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []mailer.Message
	for _, msg := range s.Sent {
		for _, to := range msg.To {
			if to == email {
				out = append(out, msg)
				break
			}
		}
	}
	return out
}

// StaticRenderer renders every slug as "<slug>" unless listed in Missing.
type StaticRenderer struct {
	Missing map[string]bool
}

func (r StaticRenderer) Render(_ context.Context, slug, lang string, data map[string]string) (*mailer.Rendered, error) {
	if r.Missing[slug] {
		return nil, mailer.ErrTemplateNotFound
	}
	return &mailer.Rendered{Subject: slug + ":" + lang, HTML: "<p>" + data["name"] + "</p>"}, nil
}
