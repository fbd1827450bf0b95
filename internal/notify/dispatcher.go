// Package notify persists in-app notifications and schedules the matching
// transactional email in the background.
package notify

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/weshare-leasing/internal/i18n"
	"github.com/nurpe/weshare-leasing/internal/mailer"
	"github.com/nurpe/weshare-leasing/internal/model"
	"github.com/nurpe/weshare-leasing/internal/repository"
	"github.com/nurpe/weshare-leasing/internal/storage"
)

type Scheduler interface {
	Enqueue(job mailer.Job) bool
}

type Renderer interface {
	Render(ctx context.Context, slug, lang string, data map[string]string) (*mailer.Rendered, error)
}

type Locator interface {
	Locate(ctx context.Context, key string) (storage.Location, error)
}

type Meta struct {
	ModuleType model.ModuleType
	ModuleID   int64
	ActionURL  string
	CreatedBy  int64
}

// Attachment references a stored document by key, or carries inline bytes.
type Attachment struct {
	Filename string
	BlobKey  string
	Content  []byte
}

// Delivery is one recipient's share of a fan-out. Key is the translation
// prefix; "<Key>.title" and "<Key>.message" become the notification text.
// Template names the email template; empty means in-app only.
type Delivery struct {
	Recipient   model.User
	Key         string
	Vars        map[string]any
	Meta        Meta
	Template    string
	Attachments []Attachment
}

type Deps struct {
	Notifications *repository.NotificationRepository
	Users         *repository.UserRepository
	Translator    *i18n.Translator
	Renderer      Renderer
	Sender        mailer.Sender
	Scheduler     Scheduler
	Blobs         Locator
	Log           zerolog.Logger
}

type Dispatcher struct {
	notifications *repository.NotificationRepository
	users         *repository.UserRepository
	translator    *i18n.Translator
	renderer      Renderer
	sender        mailer.Sender
	scheduler     Scheduler
	blobs         Locator
	log           zerolog.Logger
}

func NewDispatcher(deps Deps) *Dispatcher {
	return &Dispatcher{
		notifications: deps.Notifications,
		users:         deps.Users,
		translator:    deps.Translator,
		renderer:      deps.Renderer,
		sender:        deps.Sender,
		scheduler:     deps.Scheduler,
		blobs:         deps.Blobs,
		log:           deps.Log,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, userID int64, title, message string, meta Meta) (*model.Notification, error) {
	n := buildNotification(userID, title, message, meta)
	if err := d.notifications.Create(ctx, &n); err != nil {
		return nil, fmt.Errorf("notify user %d: %w", userID, err)
	}
	return &n, nil
}

// NotifyMany stores the same notification for every user in one insert.
func (d *Dispatcher) NotifyMany(ctx context.Context, userIDs []int64, title, message string, meta Meta) (int, error) {
	items := make([]model.Notification, 0, len(userIDs))
	seen := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		items = append(items, buildNotification(id, title, message, meta))
	}
	if err := d.notifications.CreateBatch(ctx, items); err != nil {
		return 0, fmt.Errorf("notify %d users: %w", len(items), err)
	}
	return len(items), nil
}

// Deliver stores the translated notification and schedules the email. Only
// the storage error is returned; email problems surface in the logs.
func (d *Dispatcher) Deliver(ctx context.Context, del Delivery) error {
	lang := d.translator.Normalize(del.Recipient.Language)
	title := d.translator.T(lang, del.Key+".title", del.Vars)
	message := d.translator.T(lang, del.Key+".message", del.Vars)

	_, err := d.Notify(ctx, del.Recipient.ID, title, message, del.Meta)
	if err != nil {
		d.log.Error().Err(err).Int64("user_id", del.Recipient.ID).Str("key", del.Key).Msg("failed to store notification")
	}

	if del.Template != "" && del.Recipient.Email != "" {
		d.Email(del.Recipient, lang, del.Template, del.Vars, del.Attachments)
	}
	return err
}

// DeliverTo loads the recipient by id and delivers to them.
func (d *Dispatcher) DeliverTo(ctx context.Context, userID int64, del Delivery) error {
	user, err := d.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recipient %d: %w", userID, err)
	}
	del.Recipient = *user
	return d.Deliver(ctx, del)
}

// DeliverToAdmins sends an individual delivery to every admin user, each in
// their own language.
func (d *Dispatcher) DeliverToAdmins(ctx context.Context, del Delivery) error {
	admins, err := d.users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	var errs []error
	for _, admin := range admins {
		del.Recipient = admin
		if err := d.Deliver(ctx, del); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Email schedules rendering and sending on the background queue and reports
// whether the job was accepted.
func (d *Dispatcher) Email(to model.User, lang, slug string, vars map[string]any, attachments []Attachment) bool {
	data := make(map[string]string, len(vars)+2)
	for k, v := range vars {
		data[k] = fmt.Sprint(v)
	}
	if _, ok := data["name"]; !ok {
		data["name"] = to.Name
	}
	if _, ok := data["email"]; !ok {
		data["email"] = to.Email
	}

	job := mailer.Job{
		ID: slug + "/" + strconv.FormatInt(to.ID, 10) + "/" + uuid.NewString()[:8],
		Run: func(ctx context.Context) error {
			rendered, err := d.renderer.Render(ctx, slug, lang, data)
			if errors.Is(err, mailer.ErrTemplateNotFound) {
				d.log.Warn().Str("template", slug).Int64("user_id", to.ID).Msg("email template missing, email skipped")
				return nil
			}
			if err != nil {
				return err
			}
			return d.sender.Send(ctx, mailer.Message{
				To:          []string{to.Email},
				Subject:     rendered.Subject,
				HTML:        rendered.HTML,
				Attachments: d.resolveAttachments(ctx, attachments),
			})
		},
	}
	return d.scheduler.Enqueue(job)
}

// resolveAttachments turns document keys into fetchable locations. A
// document that cannot be located is left out rather than failing the email.
func (d *Dispatcher) resolveAttachments(ctx context.Context, attachments []Attachment) []mailer.Attachment {
	out := make([]mailer.Attachment, 0, len(attachments))
	for _, att := range attachments {
		name := att.Filename
		if len(att.Content) > 0 {
			out = append(out, mailer.Attachment{Filename: name, Content: att.Content})
			continue
		}
		if att.BlobKey == "" {
			continue
		}
		if name == "" {
			name = path.Base(att.BlobKey)
		}
		loc, err := d.blobs.Locate(ctx, att.BlobKey)
		if err != nil {
			d.log.Warn().Err(err).Str("key", att.BlobKey).Msg("attachment unavailable, sending without it")
			continue
		}
		out = append(out, mailer.Attachment{Filename: name, URL: loc.URL, Path: loc.Path})
	}
	return out
}

func buildNotification(userID int64, title, message string, meta Meta) model.Notification {
	n := model.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		ModuleType: meta.ModuleType,
		ActionURL:  meta.ActionURL,
	}
	if meta.ModuleID != 0 {
		id := meta.ModuleID
		n.ModuleID = &id
	}
	if meta.CreatedBy != 0 {
		by := meta.CreatedBy
		n.CreatedBy = &by
	}
	return n
}
