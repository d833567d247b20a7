package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/validator"
)

type APIKeyPermissions struct {
	CacheManagement bool `mapstructure:"cache_management" json:"cache_management"`
	FormManagement  bool `mapstructure:"form_management"  json:"form_management"`
	EntriesRead     bool `mapstructure:"entries_read"     json:"entries_read"`
}

type APIKey struct {
	Active      *bool             `mapstructure:"active"      json:"active"      validate:"required"`
	ID          string            `mapstructure:"id"          json:"id"          validate:"required,uuid_rfc4122"`
	Note        string            `mapstructure:"note"        json:"note"        validate:"required"`
	Token       string            `mapstructure:"token"       json:"token"       validate:"required"`
	Permissions APIKeyPermissions `mapstructure:"permissions" json:"permissions"`
}

// A form rendered by the CMS and the integration item its submissions go to
type Form struct {
	Settings    map[string]string `mapstructure:"settings"    json:"settings"`
	Active      *bool             `mapstructure:"active"      json:"active"`
	ID          string            `mapstructure:"id"          json:"id"          validate:"required"`
	Integration string            `mapstructure:"integration" json:"integration" validate:"required,oneof=hubspot mailchimp greenhouse workable"`
	ItemID      string            `mapstructure:"item_id"     json:"item_id"     validate:"required"`
}

type PostgresConfig struct {
	User               string        `validate:"required"`
	Password           string        `validate:"required"`
	Host               string        `validate:"required"`
	Database           string        `validate:"required"`
	MaxIdleConnections int           `validate:"required" mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `validate:"required" mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `validate:"required" mapstructure:"connection_ttl"`
	Port               int16         `validate:"required"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm    GormLogConfig `mapstructure:"gorm"`
	App     SlogConfig    `mapstructure:"app"`
	UseOTLP bool          `mapstructure:"use_otlp"`
}

// Base URLs are only set to point a client at a sandbox or a proxy
type HubspotConfig struct {
	APIKey            string `mapstructure:"api_key"`
	FilemanagerFolder string `mapstructure:"filemanager_folder"`
	FormsURL          string `mapstructure:"forms_url"`
	APIURL            string `mapstructure:"api_url"`
}

type MailchimpConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type GreenhouseConfig struct {
	APIKey     string `mapstructure:"api_key"`
	BoardToken string `mapstructure:"board_token"`
	BaseURL    string `mapstructure:"base_url"`
}

type WorkableConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Subdomain string `mapstructure:"subdomain"`
	BaseURL   string `mapstructure:"base_url"`
}

type IntegrationsConfig struct {
	Hubspot     HubspotConfig    `mapstructure:"hubspot"`
	Mailchimp   MailchimpConfig  `mapstructure:"mailchimp"`
	Greenhouse  GreenhouseConfig `mapstructure:"greenhouse"`
	Workable    WorkableConfig   `mapstructure:"workable"`
	HTTPTimeout time.Duration    `mapstructure:"http_timeout" validate:"required"`
	CacheTTL    time.Duration    `mapstructure:"cache_ttl"    validate:"required"`
	// Bypass cached item lists. Only meant for local debugging.
	SkipCache bool `mapstructure:"skip_cache"`
}

type CacheConfig struct {
	RedisHost string `mapstructure:"redis_host"`
	Prefix    string `mapstructure:"prefix"`
	RedisDB   int    `mapstructure:"redis_db"`
	// Use the in process store instead of redis
	InMemory bool `mapstructure:"in_memory"`
}

type RateLimitConfig struct {
	RedisHost       string `mapstructure:"redis_host"`
	SubmitPerMinute int64  `mapstructure:"submit_per_minute"`
	FailOpen        bool   `mapstructure:"fail_open"`
}

type SMTPConfig struct {
	Host     string   `mapstructure:"host"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	Port     int      `mapstructure:"port"`
}

type S3ArchiveConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	SSLEnabled      bool   `mapstructure:"ssl_enabled"`
}

type AzureArchiveConfig struct {
	AccountName  string `mapstructure:"account_name"`
	AccountKey   string `mapstructure:"account_key"`
	ContainerURL string `mapstructure:"container_url"`
	Container    string `mapstructure:"container"`
}

// Where attachments are copied before they are handed to a vendor
type ArchiveConfig struct {
	S3       *S3ArchiveConfig    `mapstructure:"s3"`
	Azure    *AzureArchiveConfig `mapstructure:"azure"`
	Provider string              `mapstructure:"provider" validate:"omitempty,oneof=s3 azure"`
	// Key prefix inside the bucket or container
	Prefix string `mapstructure:"prefix"`
	// Lifetime of attachment links in fallback mails
	LinkTTL time.Duration `mapstructure:"link_ttl"`
}

type EnrichmentConfig struct {
	// url param -> form fields it fills
	Map     map[string][]string `mapstructure:"map"`
	Allowed []string            `mapstructure:"allowed"`
	// storage older than this many days is ignored
	ExpirationDays int `mapstructure:"expiration_days"`
}

type SecurityConfig struct {
	// Optional HMAC secret for the X-Forms-Signature header
	SigningSecret  string   `mapstructure:"signing_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxBodyBytes   string   `mapstructure:"max_body"`
}

// See formbridge.yaml for an example config
type Config struct {
	Postgres             *PostgresConfig    `mapstructure:"postgres"               validate:"required"`
	Logging              *LoggingConfig     `mapstructure:"logging"                validate:"required"`
	Integrations         IntegrationsConfig `mapstructure:"integrations"`
	Cache                *CacheConfig       `mapstructure:"cache"                  validate:"required"`
	RateLimit            *RateLimitConfig   `mapstructure:"ratelimit"`
	SMTP                 *SMTPConfig        `mapstructure:"smtp"`
	Archive              *ArchiveConfig     `mapstructure:"archive"`
	Enrichment           EnrichmentConfig   `mapstructure:"enrichment"`
	Security             SecurityConfig     `mapstructure:"security"`
	TempDir              *string            `mapstructure:"temp_dir"`
	LabelsFile           string             `mapstructure:"labels_file"`
	ListenAddress        string             `mapstructure:"listen_address"         validate:"required"`
	APIKeys              []APIKey           `mapstructure:"api_keys"               validate:"dive"`
	Forms                []Form             `mapstructure:"forms"                  validate:"dive"`
	GracefulShutdownSecs int64              `mapstructure:"graceful_shutdown_secs"`
}

const (
	AppLogLevel                string = "logging.app.level"
	CacheInMemory              string = "cache.in_memory"
	CachePrefix                string = "cache.prefix"
	CacheRedisHost             string = "cache.redis_host"
	EnvPrefix                  string = "formbridge"
	EnrichmentExpirationDays   string = "enrichment.expiration_days"
	UseOTLP                    string = "logging.use_otlp"
	GormLogLevel               string = "logging.gorm.level"
	GormTraceQueries           string = "logging.gorm.trace_queries"
	GracefulShutdownSecs       string = "graceful_shutdown_secs"
	HubspotAPIKey              string = "integrations.hubspot.api_key"
	HubspotFilemanagerFolder   string = "integrations.hubspot.filemanager_folder"
	MailchimpAPIKey            string = "integrations.mailchimp.api_key"
	GreenhouseAPIKey           string = "integrations.greenhouse.api_key"
	GreenhouseBoardToken       string = "integrations.greenhouse.board_token"
	WorkableAPIKey             string = "integrations.workable.api_key"
	WorkableSubdomain          string = "integrations.workable.subdomain"
	IntegrationsHTTPTimeout    string = "integrations.http_timeout"
	IntegrationsCacheTTL       string = "integrations.cache_ttl"
	IntegrationsSkipCache      string = "integrations.skip_cache"
	ListenAddress              string = "listen_address"
	PostgresDatabase           string = "postgres.database"
	PostgresHost               string = "postgres.host"
	PostgresPassword           string = "postgres.password"
	PostgresPort               string = "postgres.port"
	PostgresUser               string = "postgres.user"
	PostgresMaxIdleConnections string = "postgres.max_idle_connections"
	PostgresMaxOpenConnections string = "postgres.max_open_connections"
	PostgresConnectonTTL       string = "postgres.connection_ttl"
	RateLimitFailOpen          string = "ratelimit.fail_open"
	RateLimitRedisHost         string = "ratelimit.redis_host"
	SubmitPerMinute            string = "ratelimit.submit_per_minute"
	S3AccessKeyID              string = "archive.s3.access_key_id"
	S3SecretAccessKey          string = "archive.s3.secret_access_key" // #nosec
	AzureAccountKey            string = "archive.azure.account_key"    // #nosec
	SecurityMaxBody            string = "security.max_body"
	SecuritySigningSecret      string = "security.signing_secret" // #nosec
	SMTPPassword               string = "smtp.password"           // #nosec
	SMTPPort                   string = "smtp.port"
	TempDir                    string = "temp_dir"
)

// Vendor credentials defined in the environment win over the config file
var keyOverrides = map[string]string{
	"ES_API_KEY_HUBSPOT":        HubspotAPIKey,
	"ES_API_KEY_MAILCHIMP":      MailchimpAPIKey,
	"ES_API_KEY_GREENHOUSE":     GreenhouseAPIKey,
	"ES_BOARD_TOKEN_GREENHOUSE": GreenhouseBoardToken,
	"ES_API_KEY_WORKABLE":       WorkableAPIKey,
	"ES_SUBDOMAIN_WORKABLE":     WorkableSubdomain,
}

var configReady = false
var config Config

func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	v := viper.New()

	v.SetConfigName("formbridge")

	v.AddConfigPath("/etc/formbridge/")
	v.AddConfigPath(".")

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	for _, key := range []string{
		PostgresPassword,
		HubspotAPIKey,
		MailchimpAPIKey,
		GreenhouseAPIKey,
		GreenhouseBoardToken,
		WorkableAPIKey,
		WorkableSubdomain,
		S3AccessKeyID,
		S3SecretAccessKey,
		AzureAccountKey,
		SecuritySigningSecret,
		SMTPPassword,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault(ListenAddress, "[::]:1323")
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdleConnections, 2)
	v.SetDefault(PostgresMaxOpenConnections, 10)
	v.SetDefault(PostgresConnectonTTL, 10*time.Minute)
	v.SetDefault(GormLogLevel, int(slog.LevelDebug))
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, int(slog.LevelDebug))

	v.SetDefault(CacheRedisHost, "localhost")
	v.SetDefault(CachePrefix, "formbridge")
	v.SetDefault(CacheInMemory, false)

	v.SetDefault(IntegrationsHTTPTimeout, 30*time.Second)
	v.SetDefault(IntegrationsCacheTTL, time.Hour)
	v.SetDefault(IntegrationsSkipCache, false)
	v.SetDefault(HubspotFilemanagerFolder, "esforms")

	v.SetDefault(RateLimitRedisHost, "localhost")
	v.SetDefault(SubmitPerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	v.SetDefault(EnrichmentExpirationDays, 30)
	v.SetDefault(SecurityMaxBody, "20M")
	v.SetDefault(SMTPPort, 587)

	v.SetDefault(UseOTLP, false)

	v.SetDefault(TempDir, os.TempDir())
	v.SetDefault(GracefulShutdownSecs, 30)

	err := v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	for env, key := range keyOverrides {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&config)
	if err != nil {
		configReady = false
		return nil, err
	}

	configReady = true
	return &config, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}

func (c *CacheConfig) RedisAddr() string {
	if strings.Contains(c.RedisHost, ":") {
		return c.RedisHost
	}

	return c.RedisHost + ":6379"
}
