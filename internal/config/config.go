package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

const (
	StorageDriverS3    = "s3"
	StorageDriverLocal = "local"

	StorageFallbackLocal = "local"
	StorageFallbackNone  = "none"
)

type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type StorageConfig struct {
	Driver       string
	Fallback     string
	S3           S3Config
	LocalDir     string
	LocalBaseURL string
	SignedURLTTL time.Duration
}

// RemoteEnabled reports whether documents go to the object store.
func (c StorageConfig) RemoteEnabled() bool {
	return c.Driver == StorageDriverS3 && c.S3.Bucket != ""
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type MailConfig struct {
	Workers   int
	QueueSize int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SiteConfig holds the site-wide merge fields available to every email template.
type SiteConfig struct {
	CompanyName     string
	CompanyLogo     string
	SupportEmail    string
	SupportPhone    string
	URL             string
	DefaultLanguage string
}

type SequenceConfig struct {
	PadWidth      int
	InvoicePrefix string
	PayoutPrefix  string
}

type NotificationConfig struct {
	RetentionDays    int
	SweepInterval    time.Duration
	TemplateCacheTTL time.Duration
}

type Config struct {
	Environment   string
	HTTP          HTTPConfig
	DB            DBConfig
	Auth          AuthConfig
	Storage       StorageConfig
	SMTP          SMTPConfig
	Mail          MailConfig
	Redis         RedisConfig
	Site          SiteConfig
	Sequence      SequenceConfig
	Notifications NotificationConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
			Fallback: strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_FALLBACK"))),
			S3: S3Config{
				Bucket:        v.GetString("S3_BUCKET"),
				Region:        v.GetString("S3_REGION"),
				Endpoint:      v.GetString("S3_ENDPOINT"),
				AccessKey:     v.GetString("S3_ACCESS_KEY"),
				SecretKey:     v.GetString("S3_SECRET_KEY"),
				PublicBaseURL: v.GetString("S3_PUBLIC_BASE_URL"),
			},
			LocalDir:     v.GetString("STORAGE_LOCAL_DIR"),
			LocalBaseURL: v.GetString("STORAGE_LOCAL_BASE_URL"),
			SignedURLTTL: v.GetDuration("STORAGE_SIGNED_URL_TTL"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Mail: MailConfig{
			Workers:   v.GetInt("MAIL_WORKERS"),
			QueueSize: v.GetInt("MAIL_QUEUE_SIZE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Site: SiteConfig{
			CompanyName:     v.GetString("SITE_COMPANY_NAME"),
			CompanyLogo:     v.GetString("SITE_COMPANY_LOGO"),
			SupportEmail:    v.GetString("SITE_SUPPORT_EMAIL"),
			SupportPhone:    v.GetString("SITE_SUPPORT_PHONE"),
			URL:             v.GetString("SITE_URL"),
			DefaultLanguage: v.GetString("SITE_DEFAULT_LANGUAGE"),
		},
		Sequence: SequenceConfig{
			PadWidth:      v.GetInt("SEQUENCE_PAD_WIDTH"),
			InvoicePrefix: v.GetString("INVOICE_PREFIX"),
			PayoutPrefix:  v.GetString("PAYOUT_PREFIX"),
		},
		Notifications: NotificationConfig{
			RetentionDays:    v.GetInt("NOTIFICATION_RETENTION_DAYS"),
			SweepInterval:    v.GetDuration("NOTIFICATION_SWEEP_INTERVAL"),
			TemplateCacheTTL: v.GetDuration("TEMPLATE_CACHE_TTL"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageDriverLocal
	}
	if cfg.Storage.Fallback == "" {
		cfg.Storage.Fallback = StorageFallbackLocal
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "./uploads"
	}
	if cfg.Storage.SignedURLTTL <= 0 {
		cfg.Storage.SignedURLTTL = time.Hour
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Mail.Workers <= 0 {
		cfg.Mail.Workers = 4
	}
	if cfg.Mail.QueueSize <= 0 {
		cfg.Mail.QueueSize = 256
	}
	if cfg.Site.CompanyName == "" {
		cfg.Site.CompanyName = "WeShare"
	}
	if cfg.Site.DefaultLanguage == "" {
		cfg.Site.DefaultLanguage = "en"
	}
	if cfg.Sequence.PadWidth <= 0 {
		cfg.Sequence.PadWidth = 4
	}
	if cfg.Sequence.InvoicePrefix == "" {
		cfg.Sequence.InvoicePrefix = "INV-"
	}
	if cfg.Sequence.PayoutPrefix == "" {
		cfg.Sequence.PayoutPrefix = "PO-"
	}
	if cfg.Notifications.RetentionDays <= 0 {
		cfg.Notifications.RetentionDays = 180
	}
	if cfg.Notifications.SweepInterval <= 0 {
		cfg.Notifications.SweepInterval = 24 * time.Hour
	}
	if cfg.Notifications.TemplateCacheTTL <= 0 {
		cfg.Notifications.TemplateCacheTTL = 10 * time.Minute
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	switch cfg.Storage.Driver {
	case StorageDriverS3:
		if cfg.Storage.S3.Bucket == "" || cfg.Storage.S3.Region == "" {
			return fmt.Errorf("S3_BUCKET and S3_REGION are required when STORAGE_DRIVER=s3")
		}
	case StorageDriverLocal:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	switch cfg.Storage.Fallback {
	case StorageFallbackLocal, StorageFallbackNone:
	default:
		return fmt.Errorf("unsupported STORAGE_FALLBACK %q", cfg.Storage.Fallback)
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
