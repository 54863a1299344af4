package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFile is read before environment variables are bound.
const DefaultEnvFile = "configs/.env"

// DefaultUserAgent mimics a desktop browser; the listing source rejects unidentified clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	ListingURL         string        `mapstructure:"listing_url"`
	ListingPageParam   string        `mapstructure:"listing_page_param"`
	ListingIDParam     string        `mapstructure:"listing_id_param"`
	MaxPages           int           `mapstructure:"max_pages"`
	UserAgent          string        `mapstructure:"user_agent"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	SourceTag   string `mapstructure:"source_tag"`
	DateLayout  string `mapstructure:"date_layout"`
	StorageDir  string `mapstructure:"storage_dir"`
	ArtifactExt string `mapstructure:"artifact_ext"`

	StateType string `mapstructure:"state_type"`
	StatePath string `mapstructure:"state_path"`

	SinksFile string `mapstructure:"sinks_file"`

	FTPEnabled        bool          `mapstructure:"ftp_enabled"`
	FTPHost           string        `mapstructure:"ftp_host"`
	FTPPort           int           `mapstructure:"ftp_port"`
	FTPUsername       string        `mapstructure:"ftp_username"`
	FTPPassword       string        `mapstructure:"ftp_password" json:"-"`
	FTPDir            string        `mapstructure:"ftp_dir"`
	FTPTimeoutSeconds int64         `mapstructure:"ftp_timeout_seconds"`
	FTPTimeout        time.Duration `mapstructure:"-"`

	NotifyUsername   string `mapstructure:"notify_username"`
	SlackWebhookURL  string `mapstructure:"slack_webhook_url" json:"-"`
	SlackIconEmoji   string `mapstructure:"slack_icon_emoji"`
	TelegramBotToken string `mapstructure:"telegram_bot_token" json:"-"`
	TelegramChatID   string `mapstructure:"telegram_chat_id"`
	SNSTopicARN      string `mapstructure:"sns_topic_arn"`
	AWSRegion        string `mapstructure:"aws_region"`
	AWSAccessKeyID   string `mapstructure:"aws_access_key_id" json:"-"`
	AWSSecretKey     string `mapstructure:"aws_secret_access_key" json:"-"`

	CrawlIntervalSeconds int64         `mapstructure:"crawl_interval"`
	CrawlInterval        time.Duration `mapstructure:"-"`

	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// Load reads configuration from the env file (if present) and environment variables.
func Load(envFile string) (*Config, error) {
	if strings.TrimSpace(envFile) == "" {
		envFile = DefaultEnvFile
	}
	_ = godotenv.Load(envFile)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "samvad-report-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("listing_url", "https://finance.naver.com/research/industry_list.naver?searchType=upjong&upjong=%BF%A1%B3%CA%C1%F6")
	v.SetDefault("listing_page_param", "page")
	v.SetDefault("listing_id_param", "nid")
	v.SetDefault("max_pages", 0)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("http_timeout_seconds", 30)

	v.SetDefault("source_tag", "naver-research")
	v.SetDefault("date_layout", "06.01.02")
	v.SetDefault("storage_dir", "./downloads")
	v.SetDefault("artifact_ext", ".pdf")

	v.SetDefault("state_type", "bbolt")
	v.SetDefault("state_path", "./data/state.db")

	v.SetDefault("sinks_file", "./configs/sinks.yaml")

	v.SetDefault("ftp_enabled", true)
	v.SetDefault("ftp_host", "")
	v.SetDefault("ftp_port", 21)
	v.SetDefault("ftp_username", "")
	v.SetDefault("ftp_password", "")
	v.SetDefault("ftp_dir", "/")
	v.SetDefault("ftp_timeout_seconds", 30)

	v.SetDefault("notify_username", "report-harvester")
	v.SetDefault("slack_webhook_url", "")
	v.SetDefault("slack_icon_emoji", ":robot_face:")
	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("telegram_chat_id", "")
	v.SetDefault("sns_topic_arn", "")
	v.SetDefault("aws_region", "")
	v.SetDefault("aws_access_key_id", "")
	v.SetDefault("aws_secret_access_key", "")

	v.SetDefault("crawl_interval", 3600) // seconds
	v.SetDefault("metrics_textfile", "")
}

func (c *Config) normalize() error {
	c.ListingURL = strings.TrimSpace(c.ListingURL)
	if c.ListingURL == "" {
		return fmt.Errorf("listing_url is required")
	}
	if _, err := url.Parse(c.ListingURL); err != nil {
		return fmt.Errorf("invalid listing_url: %w", err)
	}
	if strings.TrimSpace(c.ListingPageParam) == "" {
		return fmt.Errorf("listing_page_param is required")
	}
	if strings.TrimSpace(c.ListingIDParam) == "" {
		return fmt.Errorf("listing_id_param is required")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("invalid max_pages (must be zero or positive)")
	}

	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second

	if strings.TrimSpace(c.StorageDir) == "" {
		return fmt.Errorf("storage_dir is required")
	}
	if c.ArtifactExt != "" && !strings.HasPrefix(c.ArtifactExt, ".") {
		c.ArtifactExt = "." + c.ArtifactExt
	}

	if c.FTPEnabled {
		if strings.TrimSpace(c.FTPHost) == "" {
			return fmt.Errorf("ftp_host is required when ftp_enabled is true")
		}
		if strings.TrimSpace(c.FTPUsername) == "" || c.FTPPassword == "" {
			return fmt.Errorf("ftp_username and ftp_password are required when ftp_enabled is true")
		}
		if c.FTPPort <= 0 || c.FTPPort > 65535 {
			return fmt.Errorf("invalid ftp_port %d", c.FTPPort)
		}
	}
	if c.FTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid ftp_timeout_seconds (must be positive seconds)")
	}
	c.FTPTimeout = time.Duration(c.FTPTimeoutSeconds) * time.Second

	if c.CrawlIntervalSeconds <= 0 {
		return fmt.Errorf("invalid crawl_interval (must be positive seconds)")
	}
	c.CrawlInterval = time.Duration(c.CrawlIntervalSeconds) * time.Second

	return nil
}
