package sinks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// Supported sink types.
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeHTTP     = "http"
	TypeSQS      = "sqs"
	TypePubSub   = "pubsub"

	defaultTable              = "report_metadata"
	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the sinks configuration file.
type configFile struct {
	Sinks []SinkConfig `json:"sinks" yaml:"sinks"`
}

// SinkConfig represents a single sink entry declared in config files.
type SinkConfig struct {
	ID       string          `json:"id" yaml:"id"`
	Type     string          `json:"type" yaml:"type"`
	Enabled  *bool           `json:"enabled" yaml:"enabled"`
	SQLite   *SQLiteConfig   `json:"sqlite" yaml:"sqlite"`
	Postgres *PostgresConfig `json:"postgres" yaml:"postgres"`
	HTTP     *HTTPConfig     `json:"http" yaml:"http"`
	SQS      *SQSConfig      `json:"sqs" yaml:"sqs"`
	PubSub   *PubSubConfig   `json:"pubsub" yaml:"pubsub"`
}

// SQLiteConfig holds local table settings.
type SQLiteConfig struct {
	Path  string `json:"path" yaml:"path"`
	Table string `json:"table" yaml:"table"`
}

// PostgresConfig holds Postgres table settings.
type PostgresConfig struct {
	DSN         string `json:"dsn" yaml:"dsn"`
	Table       string `json:"table" yaml:"table"`
	MaxConns    int32  `json:"max_conns" yaml:"max_conns"`
	CreateTable bool   `json:"create_table" yaml:"create_table"`
}

// HTTPConfig holds generic webhook settings.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// SQSConfig holds AWS SQS specific settings.
type SQSConfig struct {
	QueueURL string `json:"uri" yaml:"uri"`
	Region   string `json:"region" yaml:"region"`
}

// PubSubConfig holds GCP Pub/Sub settings.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// ConfigRegistry materializes sink definitions loaded from config files.
type ConfigRegistry struct {
	mu    sync.RWMutex
	sinks []SinkConfig
	idx   map[string]SinkConfig
}

// LoadRegistry loads the sink registry from a YAML/JSON file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sinks file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sinks file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sinks file: %w", err)
	}

	fileReg, err := parseSinkRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewConfigRegistry(fileReg.Sinks)
}

// NewConfigRegistry validates cfgs and indexes them by id.
func NewConfigRegistry(cfgs []SinkConfig) (*ConfigRegistry, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("no sinks configured")
	}

	reg := &ConfigRegistry{
		sinks: make([]SinkConfig, len(cfgs)),
		idx:   make(map[string]SinkConfig, len(cfgs)),
	}
	for i := range cfgs {
		cfg := sanitizeSinkConfig(cfgs[i])
		if err := validateSinkConfig(cfg); err != nil {
			return nil, fmt.Errorf("sinks[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate sink id %q", cfg.ID)
		}
		reg.sinks[i] = cfg
		reg.idx[cfg.ID] = cfg
	}
	return reg, nil
}

// parseSinkRegistry attempts to decode the sinks file content.
func parseSinkRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg configFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return configFile{}, errors.New("sinks file format not recognized (expected YAML or JSON)")
}

// sanitizeSinkConfig trims and normalizes the sink config fields.
func sanitizeSinkConfig(cfg SinkConfig) SinkConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.SQLite != nil {
		c := *cfg.SQLite
		c.Path = strings.TrimSpace(c.Path)
		c.Table = tableOrDefault(c.Table)
		cfg.SQLite = &c
	}
	if cfg.Postgres != nil {
		c := *cfg.Postgres
		c.DSN = strings.TrimSpace(c.DSN)
		c.Table = tableOrDefault(c.Table)
		cfg.Postgres = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		c.URL = strings.TrimSpace(c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		c.Headers = sanitizeHeaders(c.Headers)
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &c
	}
	if cfg.SQS != nil {
		c := *cfg.SQS
		c.QueueURL = strings.TrimSpace(c.QueueURL)
		c.Region = strings.TrimSpace(c.Region)
		cfg.SQS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		c.ProjectID = strings.TrimSpace(c.ProjectID)
		c.Topic = strings.TrimSpace(c.Topic)
		c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
		cfg.PubSub = &c
	}

	return cfg
}

func tableOrDefault(table string) string {
	if table = strings.TrimSpace(table); table == "" {
		return defaultTable
	}
	return table
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validateSinkConfig checks that required fields are present.
func validateSinkConfig(cfg SinkConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	switch cfg.Type {
	case "":
		return fmt.Errorf("type is required for sink %q", cfg.ID)
	case TypeSQLite:
		if cfg.SQLite == nil || cfg.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for sink %q", cfg.ID)
		}
		if !validTableName.MatchString(cfg.SQLite.Table) {
			return fmt.Errorf("invalid sqlite.table %q for sink %q", cfg.SQLite.Table, cfg.ID)
		}
	case TypePostgres:
		if cfg.Postgres == nil || cfg.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for sink %q", cfg.ID)
		}
		if !validTableName.MatchString(cfg.Postgres.Table) {
			return fmt.Errorf("invalid postgres.table %q for sink %q", cfg.Postgres.Table, cfg.ID)
		}
	case TypeHTTP:
		if cfg.HTTP == nil || cfg.HTTP.URL == "" {
			return fmt.Errorf("http.url is required for sink %q", cfg.ID)
		}
	case TypeSQS:
		if cfg.SQS == nil {
			return fmt.Errorf("sqs config required for sink %q", cfg.ID)
		}
		if cfg.SQS.QueueURL == "" {
			return fmt.Errorf("sqs.uri is required for sink %q", cfg.ID)
		}
		if cfg.SQS.Region == "" {
			return fmt.Errorf("sqs.region is required for sink %q", cfg.ID)
		}
	case TypePubSub:
		if cfg.PubSub == nil || cfg.PubSub.ProjectID == "" || cfg.PubSub.Topic == "" {
			return fmt.Errorf("pubsub.project_id and pubsub.topic are required for sink %q", cfg.ID)
		}
	}
	return nil
}

// All returns all configured sinks.
func (r *ConfigRegistry) All() []SinkConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SinkConfig, len(r.sinks))
	copy(out, r.sinks)
	return out
}

// Enabled returns sinks that are enabled.
func (r *ConfigRegistry) Enabled() []SinkConfig {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]SinkConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg SinkConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
