package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/weshare-leasing/internal/model"
)

var ErrTemplateNotFound = errors.New("email template not found")

// TemplateSource looks up a stored template by slug. Implementations return
// ErrTemplateNotFound when the slug is unknown.
type TemplateSource interface {
	Template(ctx context.Context, slug string) (*model.EmailTemplate, error)
}

type DBTemplates struct {
	db *gorm.DB
}

func NewDBTemplates(db *gorm.DB) *DBTemplates {
	return &DBTemplates{db: db}
}

func (s *DBTemplates) Template(ctx context.Context, slug string) (*model.EmailTemplate, error) {
	var tpl model.EmailTemplate
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (s *DBTemplates) Save(ctx context.Context, tpl *model.EmailTemplate) error {
	return s.db.WithContext(ctx).Save(tpl).Error
}

// CachedTemplates puts a Redis read-through cache in front of another
// source. A nil client disables caching. Redis errors fall through to the
// wrapped source.
type CachedTemplates struct {
	next   TemplateSource
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewCachedTemplates(next TemplateSource, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedTemplates {
	return &CachedTemplates{next: next, client: client, ttl: ttl, log: log}
}

func (c *CachedTemplates) Template(ctx context.Context, slug string) (*model.EmailTemplate, error) {
	if c.client == nil {
		return c.next.Template(ctx, slug)
	}

	key := cacheKey(slug)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var tpl model.EmailTemplate
		if jsonErr := json.Unmarshal(raw, &tpl); jsonErr == nil {
			return &tpl, nil
		}
		c.log.Warn().Str("slug", slug).Msg("discarding malformed cached template")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("slug", slug).Msg("template cache read failed")
	}

	tpl, err := c.next.Template(ctx, slug)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(tpl); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("slug", slug).Msg("template cache write failed")
		}
	}
	return tpl, nil
}

// Invalidate drops a cached template after it was edited.
func (c *CachedTemplates) Invalidate(ctx context.Context, slug string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey(slug)).Err()
}

func cacheKey(slug string) string {
	return "leasing:email_template:" + slug
}
